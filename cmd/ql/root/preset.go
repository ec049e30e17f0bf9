package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"questlife/internal/engine"
	"questlife/internal/progress"
	"questlife/internal/ui"
)

func newBarPresetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preset [code]",
		Short: "Create a bar from a preset, or list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(out, ui.Heading(ui.IconScroll, "Presets"))
				for _, p := range progress.Presets() {
					fmt.Fprintf(out, "- %s %s %s\n", p.Bar.Icon, ui.Key.Render(p.Code), ui.Muted.Render(p.Bar.Description))
				}
				return nil
			}
			return withService(func(ctx context.Context, svc *engine.Service) error {
				b, err := svc.CreateBarFromPreset(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %s → %s\n", ui.Good.Render(ui.IconScroll+" Created"), ui.Muted.Render(args[0]), barLine(b))
				if len(b.Milestones) > 0 {
					fmt.Fprintf(out, "%s Next milestone at %g: %s\n", ui.Muted.Render("💡"), b.Milestones[0].Value, b.Milestones[0].Title)
				}
				return nil
			})
		},
	}
}
