package progress

import (
	"context"
	"fmt"
	"strings"

	"questlife/internal/game"
)

// PresetRule is a rule template; the kind decides which list it lands in.
type PresetRule struct {
	Kind        game.RuleKind
	Trigger     game.TriggerType
	Value       float64
	Description string
}

// Preset is a built-in bar template.
type Preset struct {
	Code string
	Bar  NewBar

	Rules      []PresetRule
	Milestones []game.Milestone
}

func builtinPresets() []Preset {
	return []Preset{
		{
			Code: "fitness_level",
			Bar: NewBar{
				Name:        "Fitness Level",
				Description: "Track your physical fitness progress",
				Icon:        "💪",
				Color:       "#22c55e",
				Category:    "health",
				Initial:     25,
				Target:      100,
			},
			Rules: []PresetRule{
				{Kind: game.RuleIncrement, Trigger: game.TriggerHabitPositive, Value: 5, Description: "Exercise or workout completed"},
				{Kind: game.RuleDecrement, Trigger: game.TriggerHabitNegative, Value: -2, Description: "Skipped planned workout"},
			},
			Milestones: []game.Milestone{
				{Value: 50, Title: "Getting Stronger", Description: "You are halfway to peak fitness!", Reward: &game.Reward{Type: game.RewardGold, Amount: 100}},
				{Value: 100, Title: "Fitness Master", Description: "You have reached peak physical condition!", Reward: &game.Reward{Type: game.RewardGems, Amount: 5}},
			},
		},
		{
			Code: "reading",
			Bar: NewBar{
				Name:          "Bookworm",
				Description:   "Pages read this season",
				Icon:          "📚",
				Color:         "#3b82f6",
				Category:      "learning",
				Target:        1000,
				Visualization: game.VisualCircle,
			},
			Rules: []PresetRule{
				{Kind: game.RuleIncrement, Trigger: game.TriggerDailyComplete, Value: 20, Description: "Daily reading session"},
			},
			Milestones: []game.Milestone{
				{Value: 250, Title: "First Chapters", Reward: &game.Reward{Type: game.RewardXP, Amount: 50}},
				{Value: 1000, Title: "Library Card", Reward: &game.Reward{Type: game.RewardGems, Amount: 3}},
			},
		},
		{
			Code: "focus",
			Bar: NewBar{
				Name:          "Focus Crystal",
				Description:   "Grows with finished work, cracks with distractions",
				Icon:          "💎",
				Color:         "#A060FF",
				Category:      "work",
				Initial:       10,
				Target:        50,
				Visualization: game.VisualCrystal,
			},
			Rules: []PresetRule{
				{Kind: game.RuleIncrement, Trigger: game.TriggerQuestComplete, Value: 2, Description: "Quest finished"},
				{Kind: game.RuleDecrement, Trigger: game.TriggerHabitNegative, Value: -5, Description: "Gave in to a distraction"},
			},
			Milestones: []game.Milestone{
				{Value: 50, Title: "Deep Work", Reward: &game.Reward{Type: game.RewardGold, Amount: 50}},
			},
		},
	}
}

// Presets lists the built-in templates.
func Presets() []Preset {
	return builtinPresets()
}

func normalizePresetCode(code string) (string, error) {
	c := strings.ReplaceAll(strings.TrimSpace(strings.ToLower(code)), "-", "_")
	if c == "" {
		return "", fmt.Errorf("preset code is required")
	}
	return c, nil
}

// CreateFromPreset instantiates a built-in template with fresh ids.
func (e *Engine) CreateFromPreset(ctx context.Context, code string) (game.ProgressBar, error) {
	c, err := normalizePresetCode(code)
	if err != nil {
		return game.ProgressBar{}, err
	}
	var def *Preset
	presets := builtinPresets()
	for i := range presets {
		if presets[i].Code == c {
			def = &presets[i]
			break
		}
	}
	if def == nil {
		return game.ProgressBar{}, fmt.Errorf("unknown preset: %s", c)
	}

	b, err := e.Create(ctx, def.Bar)
	if err != nil {
		return game.ProgressBar{}, err
	}
	for _, r := range def.Rules {
		rule := game.Rule{TriggerType: r.Trigger, Value: r.Value, Description: r.Description}
		if _, err := e.AddRule(ctx, b.ID, r.Kind, rule); err != nil {
			return game.ProgressBar{}, err
		}
	}
	for _, m := range def.Milestones {
		if _, err := e.AddMilestone(ctx, b.ID, m); err != nil {
			return game.ProgressBar{}, err
		}
	}
	return e.mustGet(b.ID), nil
}
