package root

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"questlife/internal/engine"
	"questlife/internal/game"
	"questlife/internal/ui"
)

func newHeroCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hero",
		Short: "Act on the hero directly",
	}
	cmd.AddCommand(
		newHeroDamageCmd(),
		heroAmountCmd("heal <n>", "Restore HP", func(ctx context.Context, svc *engine.Service, n int) error {
			return svc.Heal(ctx, n)
		}),
		heroAmountCmd("rest <n>", "Restore stamina", func(ctx context.Context, svc *engine.Service, n int) error {
			return svc.RestoreStamina(ctx, n)
		}),
		heroAmountCmd("meditate <n>", "Restore mana", func(ctx context.Context, svc *engine.Service, n int) error {
			return svc.RestoreMana(ctx, n)
		}),
		heroAmountCmd("spend <n>", "Spend gold", func(ctx context.Context, svc *engine.Service, n int) error {
			return svc.SpendGold(ctx, n)
		}),
		newHeroWellnessCmd(),
		newHeroClassCmd(),
		newHeroRenameCmd(),
	)
	return cmd
}

// heroAmountCmd builds a command that applies a positive amount to the hero
// and prints the resulting vitals.
func heroAmountCmd(use, short string, apply func(context.Context, *engine.Service, int) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  requireArgs("n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseAmount("n", args[0])
			if err != nil {
				return err
			}
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := apply(ctx, svc, n); err != nil {
				return err
			}
			printVitals(cmd, svc.Hero())
			return nil
		},
	}
}

func printVitals(cmd *cobra.Command, u game.User) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d/%d  %s %d/%d  %s %d/%d  %s %d/%d  %s %d\n",
		ui.IconHeart, u.HP, u.MaxHP,
		ui.IconBolt, u.Stamina, u.MaxStamina,
		ui.IconLeaf, u.Wellness, u.MaxWellness,
		ui.IconMana, u.Mana, u.MaxMana,
		ui.IconGold, u.Gold)
}

func newHeroDamageCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "damage <n>",
		Short: "Take damage (constitution reduces it)",
		Args:  requireArgs("n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseAmount("n", args[0])
			if err != nil {
				return err
			}
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := svc.Damage(ctx, n, reason)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", ui.Bad.Render(fmt.Sprintf("-%d HP", res.Dealt)), ui.Muted.Render(fmt.Sprintf("(%d requested)", res.Requested)))
			if res.Died {
				fmt.Fprintf(out, "%s %s\n", ui.Bad.Render(ui.IconSkull+" You died."),
					ui.Muted.Render(fmt.Sprintf("lost %d gold, level %d → %d", res.Death.GoldLost, res.Death.LevelBefore, res.Death.LevelAfter)))
			}
			printVitals(cmd, svc.Hero())
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "What hurt")
	return cmd
}

func newHeroWellnessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wellness <delta>",
		Short: "Adjust wellness (use -- before negative values)",
		Args:  requireArgs("delta"),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("delta must be an integer, got %q", args[0])
			}
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.AdjustWellness(ctx, delta); err != nil {
				return err
			}
			printVitals(cmd, svc.Hero())
			return nil
		},
	}
}

func newHeroClassCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "class <warrior|mage|healer|rogue>",
		Short: "Choose or change the hero class (level 10+)",
		Args:  requireArgs("class"),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := game.ParseClass(args[0])
			if err != nil {
				return err
			}
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.ChooseClass(ctx, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render("You are now a"), ui.Gold.Render(string(c)))
			return nil
		},
	}
}

func newHeroRenameCmd() *cobra.Command {
	var desc string
	cmd := &cobra.Command{
		Use:   "rename <name>",
		Short: "Rename the hero",
		Args:  requireArgs("name"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if !cmd.Flags().Changed("desc") {
				desc = svc.Hero().Description
			}
			if err := svc.UpdateProfile(ctx, args[0], desc); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Name", args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&desc, "desc", "", "Hero description")
	return cmd
}
