package root

import (
	"context"

	"github.com/spf13/cobra"
)

func newDoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "do <id>",
		Short: "Complete a quest",
		Args:  requireArgs("id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			q, err := svc.Quest(args[0])
			if err != nil {
				return err
			}
			res, err := svc.CompleteQuest(ctx, q.ID)
			if res != nil {
				printCompletion(cmd.OutOrStdout(), q, res)
			}
			return err
		},
	}
}
