package root

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"questlife/internal/engine"
	"questlife/internal/game"
	"questlife/internal/progress"
	"questlife/internal/ui"
)

func newBarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bar",
		Short: "Manage custom progress bars",
	}
	cmd.AddCommand(
		newBarCreateCmd(),
		newBarEditCmd(),
		newBarListCmd(),
		newBarShowCmd(),
		newBarSetCmd(),
		newBarAddCmd(),
		newBarRuleCmd(),
		newBarUnruleCmd(),
		newBarMilestoneCmd(),
		newBarUnmilestoneCmd(),
		newBarPresetCmd(),
		newBarRmCmd(),
	)
	return cmd
}

// withService opens the service for a single command run.
func withService(fn func(ctx context.Context, svc *engine.Service) error) error {
	ctx := context.Background()
	svc, cleanup, err := openService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, svc)
}

func barLine(b game.ProgressBar) string {
	return fmt.Sprintf("%s %s %s %s", b.Icon, ui.Muted.Render(b.ID), b.Name, ui.Meter(b.CurrentValue, b.TargetValue, 20, ui.BarStyle(b)))
}

func newBarCreateCmd() *cobra.Command {
	var in progress.NewBar
	var vis string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a progress bar",
		Args:  requireArgs("name"),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = args[0]
			in.Visualization = game.Visualization(vis)
			return withService(func(ctx context.Context, svc *engine.Service) error {
				b, err := svc.CreateBar(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render(ui.IconPlus+" Created"), barLine(b))
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&in.Target, "target", progress.DefaultTarget, "Target value")
	cmd.Flags().Float64Var(&in.Initial, "initial", 0, "Starting value")
	cmd.Flags().StringVar(&in.Icon, "icon", "", "Icon")
	cmd.Flags().StringVar(&in.Color, "color", "", "Hex colour")
	cmd.Flags().StringVarP(&in.Category, "category", "c", "", "Category")
	cmd.Flags().StringVar(&in.Description, "desc", "", "Description")
	cmd.Flags().StringVar(&vis, "vis", string(game.VisualBar), "Visualization (bar|circle|crystal)")
	return cmd
}

func newBarEditCmd() *cobra.Command {
	var name, desc, icon, color, category, vis string
	var target float64
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a progress bar (lowering the target clamps the value)",
		Args:  requireArgs("id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p progress.Patch
			flags := cmd.Flags()
			if flags.Changed("name") {
				p.Name = &name
			}
			if flags.Changed("desc") {
				p.Description = &desc
			}
			if flags.Changed("icon") {
				p.Icon = &icon
			}
			if flags.Changed("color") {
				p.Color = &color
			}
			if flags.Changed("category") {
				p.Category = &category
			}
			if flags.Changed("vis") {
				v := game.Visualization(vis)
				p.Visualization = &v
			}
			if flags.Changed("target") {
				p.Target = &target
			}
			return withService(func(ctx context.Context, svc *engine.Service) error {
				b, err := svc.UpdateBar(ctx, args[0], p)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render("Updated"), barLine(b))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Name")
	cmd.Flags().StringVar(&desc, "desc", "", "Description")
	cmd.Flags().StringVar(&icon, "icon", "", "Icon")
	cmd.Flags().StringVar(&color, "color", "", "Hex colour")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category")
	cmd.Flags().StringVar(&vis, "vis", "", "Visualization (bar|circle|crystal)")
	cmd.Flags().Float64Var(&target, "target", 0, "Target value")
	return cmd
}

func newBarListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List progress bars by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *engine.Service) error {
				out := cmd.OutOrStdout()
				groups := svc.BarsByCategory()
				if len(groups) == 0 {
					fmt.Fprintln(out, ui.Muted.Render("(no progress bars; try ql bar preset fitness_level)"))
					return nil
				}
				cats := make([]string, 0, len(groups))
				for c := range groups {
					cats = append(cats, c)
				}
				sort.Strings(cats)
				for _, c := range cats {
					title := c
					if title == "" {
						title = "uncategorized"
					}
					fmt.Fprintln(out, ui.H2.Render(title))
					for _, b := range groups[c] {
						fmt.Fprintln(out, barLine(b))
					}
				}
				return nil
			})
		},
	}
}

func newBarShowCmd() *cobra.Command {
	var historyLimit int
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a bar with its rules, milestones and recent history",
		Args:  requireArgs("id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *engine.Service) error {
				b, err := svc.Bar(args[0])
				if err != nil {
					return err
				}
				printBar(cmd.OutOrStdout(), b, historyLimit)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&historyLimit, "history", "n", 10, "History entries to show")
	return cmd
}

func printBar(out io.Writer, b game.ProgressBar, historyLimit int) {
	fmt.Fprintln(out, ui.Heading(b.Icon, b.Name))
	if b.Description != "" {
		fmt.Fprintln(out, ui.Muted.Render(b.Description))
	}
	fmt.Fprintln(out, ui.Meter(b.CurrentValue, b.TargetValue, 30, ui.BarStyle(b)))

	fmt.Fprintln(out, ui.H2.Render("Rules"))
	rules := append(append([]game.Rule(nil), b.Rules.Increment...), b.Rules.Decrement...)
	if len(rules) == 0 {
		fmt.Fprintln(out, ui.Muted.Render("(none)"))
	}
	for _, r := range rules {
		scope := "any quest"
		if r.TriggerTaskID != "" {
			scope = "quest " + r.TriggerTaskID
		}
		fmt.Fprintf(out, "- %s %s %+g %s %s\n", ui.Muted.Render(r.ID), r.TriggerType, r.Value, ui.Muted.Render(scope), r.Description)
	}

	fmt.Fprintln(out, ui.H2.Render("Milestones"))
	if len(b.Milestones) == 0 {
		fmt.Fprintln(out, ui.Muted.Render("(none)"))
	}
	for _, m := range b.Milestones {
		state := ui.Muted.Render("pending")
		if m.Achieved {
			state = ui.Good.Render("achieved")
		}
		reward := ""
		if m.Reward != nil {
			reward = ui.Gold.Render(rewardText(*m.Reward))
		}
		fmt.Fprintf(out, "- %s %g %s %s %s\n", ui.Muted.Render(m.ID), m.Value, m.Title, reward, state)
	}

	fmt.Fprintln(out, ui.H2.Render("History"))
	start := max(0, len(b.History)-historyLimit)
	for _, h := range b.History[start:] {
		fmt.Fprintf(out, "- %s %g → %g %s %s\n", h.Date.Format("2006-01-02 15:04"), h.PreviousValue, h.NewValue,
			ui.Muted.Render(string(h.TriggerType)), h.Reason)
	}
}

func newBarSetCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "set <id> <value>",
		Short: "Set a bar to a value",
		Args:  requireArgs("id", "value"),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseNumber("value", args[1])
			if err != nil {
				return err
			}
			return withService(func(ctx context.Context, svc *engine.Service) error {
				u, err := svc.SetBarValue(ctx, args[0], v, reason)
				if u.BarID != "" {
					printBarUpdate(cmd.OutOrStdout(), u)
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "manual update", "Reason recorded in history")
	return cmd
}

func newBarAddCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:     "add <id> <delta>",
		Short:   "Move a bar by delta",
		Example: "  ql bar add 1a2b3c4d 5\n  ql bar add 1a2b3c4d -- -2",
		Args:    requireArgs("id", "delta"),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseNumber("delta", args[1])
			if err != nil {
				return err
			}
			return withService(func(ctx context.Context, svc *engine.Service) error {
				u, err := svc.AdjustBar(ctx, args[0], d, reason)
				if u.BarID != "" {
					printBarUpdate(cmd.OutOrStdout(), u)
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "manual update", "Reason recorded in history")
	return cmd
}

func newBarRuleCmd() *cobra.Command {
	var trigger, questID, desc, kind string
	var value float64
	cmd := &cobra.Command{
		Use:   "rule <id>",
		Short: "Add a rule that moves the bar when quests complete",
		Args:  requireArgs("id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := game.ParseTriggerType(trigger)
			if err != nil {
				return err
			}
			k, err := engine.ParseRuleKind(kind, value)
			if err != nil {
				return err
			}
			return withService(func(ctx context.Context, svc *engine.Service) error {
				r, err := svc.AddRule(ctx, args[0], k, game.Rule{TriggerType: t, TriggerTaskID: questID, Value: value, Description: desc})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %+g\n", ui.Good.Render(ui.IconPlus+" Rule"), ui.Muted.Render(r.ID), r.TriggerType, r.Value)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&trigger, "trigger", "", "Trigger (quest_complete|daily_complete|habit_positive|habit_negative)")
	cmd.Flags().Float64Var(&value, "value", 0, "Signed amount to move the bar")
	cmd.Flags().StringVar(&questID, "quest", "", "Only fire for this quest id")
	cmd.Flags().StringVar(&desc, "desc", "", "Description")
	cmd.Flags().StringVar(&kind, "kind", "", "Rule list (increment|decrement); defaults from the sign of --value")
	_ = cmd.MarkFlagRequired("trigger")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func newBarUnruleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unrule <id> <rule-id>",
		Short: "Remove a rule",
		Args:  requireArgs("id", "rule-id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *engine.Service) error {
				if err := svc.RemoveRule(ctx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Warn.Render("Removed rule"), args[1])
				return nil
			})
		},
	}
}

func newBarMilestoneCmd() *cobra.Command {
	var title, desc, reward string
	var value float64
	cmd := &cobra.Command{
		Use:   "milestone <id>",
		Short: "Add a milestone",
		Args:  requireArgs("id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := engine.ParseReward(reward)
			if err != nil {
				return err
			}
			return withService(func(ctx context.Context, svc *engine.Service) error {
				m, err := svc.AddMilestone(ctx, args[0], game.Milestone{Value: value, Title: title, Description: desc, Reward: r})
				if err != nil {
					return err
				}
				line := fmt.Sprintf("%s %s %g %s", ui.Good.Render(ui.IconPlus+" Milestone"), ui.Muted.Render(m.ID), m.Value, m.Title)
				if m.Achieved {
					line += " " + ui.Good.Render("(already achieved)")
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&value, "value", 0, "Value that achieves the milestone")
	cmd.Flags().StringVar(&title, "title", "", "Title")
	cmd.Flags().StringVar(&desc, "desc", "", "Description")
	cmd.Flags().StringVar(&reward, "reward", "", "Reward (gold:N, gems:N, xp:N, item:ID)")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func newBarUnmilestoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unmilestone <id> <milestone-id>",
		Short: "Remove a milestone",
		Args:  requireArgs("id", "milestone-id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *engine.Service) error {
				if err := svc.RemoveMilestone(ctx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Warn.Render("Removed milestone"), args[1])
				return nil
			})
		},
	}
}

func newBarRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a bar with its rules, milestones and history",
		Args:  requireArgs("id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *engine.Service) error {
				if err := svc.DeleteBar(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Warn.Render("Deleted"), args[0])
				return nil
			})
		},
	}
}
