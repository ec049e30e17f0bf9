package root

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"questlife/internal/game"
	"questlife/internal/quests"
	"questlife/internal/ui"
)

// requireArgs checks the positional arguments by name.
func requireArgs(names ...string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < len(names) {
			return fmt.Errorf("%s is required", names[len(args)])
		}
		if len(args) > len(names) {
			return fmt.Errorf("too many arguments (want %s)", strings.Join(names, ", "))
		}
		return nil
	}
}

func parseAmount(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, s)
	}
	return n, nil
}

func parseNumber(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a number, got %q", name, s)
	}
	return v, nil
}

func questLine(q game.Quest) string {
	extra := []string{string(q.Difficulty)}
	if q.Category != "" {
		extra = append(extra, q.Category)
	}
	if q.Type == game.QuestDaily && q.Streak > 0 {
		extra = append(extra, fmt.Sprintf("%s%d", ui.IconFire, q.Streak))
	}
	if q.Deadline != nil {
		extra = append(extra, "due "+q.Deadline.Format("2006-01-02"))
	}
	return fmt.Sprintf("%s %s %s %s",
		ui.QuestIcon(q), ui.Muted.Render(q.ID), q.Title, ui.Muted.Render("("+strings.Join(extra, ", ")+")"))
}

func printCompletion(w io.Writer, q game.Quest, res *quests.CompleteResult) {
	fmt.Fprintf(w, "%s %s %s\n", ui.Good.Render(ui.IconDone+" Completed"), q.Title,
		ui.Muted.Render(fmt.Sprintf("(+%d XP, +%d gold)", res.XPAwarded, res.GoldAwarded)))
	if res.LeveledUp() {
		fmt.Fprintf(w, "%s %s\n", ui.BadgeLevelUp, ui.LabelValue("Level", fmt.Sprintf("%d → %d", res.LevelBefore, res.LevelAfter)))
	}
	if res.StreakIncreased() {
		fmt.Fprintf(w, "%s %s\n", ui.IconFire, ui.LabelValue("Streak", res.StreakAfter))
	}
	for _, u := range res.BarUpdates {
		printBarUpdate(w, u)
	}
}

func printBarUpdate(w io.Writer, u game.BarUpdate) {
	fmt.Fprintf(w, "%s %s %g → %g %s\n", ui.IconBolt, u.BarName, u.Previous, u.New, ui.Muted.Render(fmt.Sprintf("(%+g)", u.Change)))
	for _, m := range u.Achieved {
		line := fmt.Sprintf("%s Milestone: %s", ui.IconTrophy, m.Title)
		if m.Reward != nil {
			line += " " + ui.Gold.Render(rewardText(*m.Reward))
		}
		fmt.Fprintln(w, line)
	}
}

func rewardText(r game.Reward) string {
	if r.Type == game.RewardItem {
		return "item " + r.ItemID
	}
	return fmt.Sprintf("+%d %s", r.Amount, r.Type)
}
