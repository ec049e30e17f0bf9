package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"questlife/internal/quests"
	"questlife/internal/ui"
)

func newTodayCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show today's quests and upcoming deadlines",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconCalDay, "Today"))
			today := svc.Today()
			if len(today) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(all done)"))
			}
			for _, q := range today {
				fmt.Fprintln(out, questLine(q))
			}

			upcoming := svc.UpcomingDeadlines(limit)
			if len(upcoming) > 0 {
				fmt.Fprintln(out, "")
				fmt.Fprintln(out, ui.H2.Render("Upcoming deadlines"))
				for _, q := range upcoming {
					fmt.Fprintln(out, questLine(q))
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", quests.DefaultUpcomingLimit, "Number of upcoming deadlines")
	return cmd
}
