package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"questlife/internal/game"
	"questlife/internal/quests"
	"questlife/internal/ui"
)

func newQuestListCmd() *cobra.Command {
	var typ, status, category, diff string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List quests",
		RunE: func(cmd *cobra.Command, args []string) error {
			var f quests.Filter
			var err error
			if typ != "" {
				if f.Type, err = game.ParseQuestType(typ); err != nil {
					return err
				}
			}
			if status != "all" {
				if f.Status, err = game.ParseQuestStatus(status); err != nil {
					return err
				}
			}
			if diff != "" {
				if f.Difficulty, err = game.ParseDifficulty(diff); err != nil {
					return err
				}
			}
			f.Category = category

			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			list := svc.Quests(f)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconScroll, "Quest Log"))
			if len(list) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(empty)"))
				return nil
			}
			for _, q := range list {
				line := questLine(q)
				if q.Status != game.StatusActive {
					line += " " + ui.StatusText(q.Status)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&typ, "type", "t", "", "Filter by type")
	cmd.Flags().StringVarP(&status, "status", "s", string(game.StatusActive), "Filter by status (active|completed|archived|all)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Filter by category")
	cmd.Flags().StringVarP(&diff, "diff", "d", "", "Filter by difficulty")
	return cmd
}
