package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"questlife/internal/game"
	"questlife/internal/ledger"
	"questlife/internal/ui"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the hero sheet and achievements",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			u := svc.Hero()
			out := cmd.OutOrStdout()
			into, span := ledger.LevelProgress(u.XP)

			fmt.Fprintln(out, ui.Heading(ui.IconSparkle, u.Name))
			if u.Description != "" {
				fmt.Fprintln(out, ui.Muted.Render(u.Description))
			}
			fmt.Fprintln(out, ui.LabelValue("Level", u.Level))
			fmt.Fprintln(out, ui.LabelValue("XP", fmt.Sprintf("%d (%d/%d into level, next at %d)", u.XP, into, span, ledger.XPForLevel(u.Level+1))))
			fmt.Fprintln(out, "")

			fmt.Fprintln(out, ui.H2.Render("Vitals"))
			fmt.Fprintf(out, "%s HP       %s\n", ui.IconHeart, ui.Meter(float64(u.HP), float64(u.MaxHP), 20, ui.Vital("hp")))
			fmt.Fprintf(out, "%s Stamina  %s\n", ui.IconBolt, ui.Meter(float64(u.Stamina), float64(u.MaxStamina), 20, ui.Vital("stamina")))
			fmt.Fprintf(out, "%s Wellness %s\n", ui.IconLeaf, ui.Meter(float64(u.Wellness), float64(u.MaxWellness), 20, ui.Vital("wellness")))
			if u.MaxMana > 0 {
				fmt.Fprintf(out, "%s Mana     %s\n", ui.IconMana, ui.Meter(float64(u.Mana), float64(u.MaxMana), 20, ui.Vital("mana")))
			} else {
				fmt.Fprintf(out, "%s Mana     %s\n", ui.IconMana, ui.Muted.Render(fmt.Sprintf("locked until level %d", ledger.LevelMana)))
			}
			fmt.Fprintf(out, "%s %s  %s %d\n", ui.IconGold, ui.Gold.Render(fmt.Sprintf("%d gold", u.Gold)), ui.IconGem, u.Gems)
			fmt.Fprintln(out, "")

			fmt.Fprintln(out, ui.H2.Render("Class"))
			if err := ledger.CanChooseClass(u.Level); err != nil {
				fmt.Fprintln(out, ui.Muted.Render(err.Error()))
			} else if u.Class == game.ClassNone {
				fmt.Fprintln(out, ui.Good.Render("available")+" "+ui.Muted.Render("(ql hero class <warrior|mage|healer|rogue>)"))
			} else {
				fmt.Fprintln(out, ui.LabelValue("Class", u.Class))
			}
			fmt.Fprintf(out, "STR %d  INT %d  CON %d  PER %d\n", u.Stats.Strength, u.Stats.Intelligence, u.Stats.Constitution, u.Stats.Perception)
			fmt.Fprintln(out, "")

			fmt.Fprintln(out, ui.H2.Render("Record"))
			fmt.Fprintln(out, ui.LabelValue("Streak", fmt.Sprintf("%d (best %d)", u.CurrentStreak, u.LongestStreak)))
			fmt.Fprintln(out, ui.LabelValue("Quests completed", u.CompletedQuests))
			fmt.Fprintln(out, "")

			fmt.Fprintln(out, ui.H2.Render(ui.IconTrophy+" Achievements"))
			for _, a := range svc.Achievements() {
				mark := ui.Muted.Render(fmt.Sprintf("%d/%d", a.Progress, a.Requirement))
				if a.Earned {
					mark = ui.Good.Render("earned")
				}
				fmt.Fprintf(out, "- %s %s %s\n", a.Icon, a.Name, mark)
			}
			return nil
		},
	}

	return cmd
}
