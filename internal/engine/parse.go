package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"questlife/internal/game"
)

// ParseDeadline parses user input into a deadline at the end of that day in
// now's location. Supported: YYYY-MM-DD, today, tomorrow, +Nd.
func ParseDeadline(input string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	var day time.Time
	switch {
	case s == "":
		return time.Time{}, fmt.Errorf("deadline is empty")
	case s == "today":
		day = now
	case s == "tomorrow":
		day = now.AddDate(0, 0, 1)
	case strings.HasPrefix(s, "+") && strings.HasSuffix(s, "d"):
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(s, "+"), "d"))
		if err != nil || n < 0 {
			return time.Time{}, fmt.Errorf("invalid relative deadline: %q", input)
		}
		day = now.AddDate(0, 0, n)
	default:
		t, err := time.ParseInLocation("2006-01-02", s, now.Location())
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid deadline %q (want YYYY-MM-DD)", input)
		}
		day = t
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, now.Location()), nil
}

// ParseReward parses "type:amount" (e.g. gold:100) or "item:<id>".
func ParseReward(input string) (*game.Reward, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, nil
	}
	kind, value, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("invalid reward %q (want type:amount)", input)
	}
	t, err := game.ParseRewardType(kind)
	if err != nil {
		return nil, err
	}
	value = strings.TrimSpace(value)
	if t == game.RewardItem {
		if value == "" {
			return nil, fmt.Errorf("item reward needs an item id")
		}
		return &game.Reward{Type: t, ItemID: value}, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid reward amount %q", value)
	}
	return &game.Reward{Type: t, Amount: n}, nil
}

// ParseRuleKind maps user input to a rule list. Empty input picks the list
// from the sign of value.
func ParseRuleKind(input string, value float64) (game.RuleKind, error) {
	switch strings.TrimSpace(strings.ToLower(input)) {
	case "":
		if value < 0 {
			return game.RuleDecrement, nil
		}
		return game.RuleIncrement, nil
	case "inc", "increment":
		return game.RuleIncrement, nil
	case "dec", "decrement":
		return game.RuleDecrement, nil
	default:
		return "", fmt.Errorf("invalid rule kind: %q", input)
	}
}
