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

func newQuestAddCmd() *cobra.Command {
	var (
		typ, diff, category, desc, deadline string
		negative                            bool
		bars                                []string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a quest",
		Args:  requireArgs("title"),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := game.ParseQuestType(typ)
			if err != nil {
				return err
			}
			d, err := game.ParseDifficulty(diff)
			if err != nil {
				return err
			}
			in := quests.NewQuest{
				Title:       args[0],
				Description: desc,
				Type:        t,
				Category:    category,
				Difficulty:  d,
				LinkedBars:  bars,
			}
			if deadline != "" {
				due, err := engine.ParseDeadline(deadline, time.Now())
				if err != nil {
					return err
				}
				in.Deadline = &due
			}
			if negative {
				if t != game.QuestHabit {
					return fmt.Errorf("--negative only applies to habits")
				}
				positive := false
				in.IsPositive = &positive
			}

			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			q, err := svc.AddQuest(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render(ui.IconPlus+" Added"), questLine(q))
			fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render(fmt.Sprintf("%d XP, %d gold, costs %d stamina", q.XPReward, q.GoldReward, q.StaminaCost)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&typ, "type", "t", string(game.QuestTodo), "Quest type (habit|daily|todo|reward)")
	cmd.Flags().StringVarP(&diff, "diff", "d", string(game.DefaultDifficulty), "Difficulty (trivial|easy|medium|hard)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category")
	cmd.Flags().StringVar(&desc, "desc", "", "Description")
	cmd.Flags().StringVar(&deadline, "deadline", "", "Deadline (YYYY-MM-DD, today, tomorrow, +Nd)")
	cmd.Flags().BoolVar(&negative, "negative", false, "Mark a habit as one to avoid")
	cmd.Flags().StringSliceVar(&bars, "bar", nil, "Linked progress bar ids")
	return cmd
}
