package root

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"questlife/internal/engine"
	"questlife/internal/game"
	"questlife/internal/quests"
	"questlife/internal/ui"
)

func newQuestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "quest",
		Aliases: []string{"q"},
		Short:   "Manage quests (habits, dailies, to-dos, rewards)",
	}
	cmd.AddCommand(
		newQuestAddCmd(),
		newQuestListCmd(),
		newQuestEditCmd(),
		newQuestArchiveCmd(),
		newQuestRmCmd(),
	)
	return cmd
}

func newQuestArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive an active quest",
		Args:  requireArgs("id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.ArchiveQuest(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Muted.Render("Archived"), args[0])
			return nil
		},
	}
}

func newQuestRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a quest and its completion log",
		Args:  requireArgs("id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.DeleteQuest(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Warn.Render("Deleted"), args[0])
			return nil
		},
	}
}

func newQuestEditCmd() *cobra.Command {
	var (
		title, desc, category, diff, deadline, polarity string
		clearDeadline                                   bool
		bars                                            []string
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a quest",
		Args:  requireArgs("id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p quests.Patch
			flags := cmd.Flags()
			if flags.Changed("title") {
				p.Title = &title
			}
			if flags.Changed("desc") {
				p.Description = &desc
			}
			if flags.Changed("category") {
				p.Category = &category
			}
			if flags.Changed("diff") {
				d, err := game.ParseDifficulty(diff)
				if err != nil {
					return err
				}
				p.Difficulty = &d
			}
			if flags.Changed("deadline") {
				t, err := engine.ParseDeadline(deadline, time.Now())
				if err != nil {
					return err
				}
				p.Deadline = &t
			}
			p.ClearDeadline = clearDeadline
			if flags.Changed("polarity") {
				positive, err := parsePolarity(polarity)
				if err != nil {
					return err
				}
				p.IsPositive = &positive
			}
			if flags.Changed("bar") {
				p.LinkedBars = bars
			}

			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			q, err := svc.UpdateQuest(ctx, args[0], p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render("Updated"), questLine(q))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&desc, "desc", "", "New description")
	cmd.Flags().StringVarP(&category, "category", "c", "", "New category")
	cmd.Flags().StringVarP(&diff, "diff", "d", "", "New difficulty (trivial|easy|medium|hard)")
	cmd.Flags().StringVar(&deadline, "deadline", "", "New deadline (YYYY-MM-DD, today, tomorrow, +Nd)")
	cmd.Flags().BoolVar(&clearDeadline, "clear-deadline", false, "Remove the deadline")
	cmd.Flags().StringVar(&polarity, "polarity", "", "Habit polarity (positive|negative)")
	cmd.Flags().StringSliceVar(&bars, "bar", nil, "Linked progress bar ids")
	return cmd
}

func parsePolarity(s string) (bool, error) {
	switch s {
	case "positive", "+":
		return true, nil
	case "negative", "-":
		return false, nil
	default:
		return false, fmt.Errorf("invalid polarity: %q (want positive|negative)", s)
	}
}
