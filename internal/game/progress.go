package game

import "time"

type Rule struct {
	ID            string
	TriggerType   TriggerType
	TriggerTaskID string // empty matches any quest
	Value         float64
	Description   string
}

type Reward struct {
	Type   RewardType
	Amount int
	ItemID string
}

type Milestone struct {
	ID          string
	Value       float64
	Title       string
	Description string
	Reward      *Reward
	Achieved    bool
	AchievedAt  *time.Time
}

// HistoryEntry is immutable once appended.
type HistoryEntry struct {
	ID            string
	Date          time.Time
	PreviousValue float64
	NewValue      float64
	Change        float64
	Reason        string
	TriggerType   TriggerType
}

type Rules struct {
	Increment []Rule
	Decrement []Rule
}

type ProgressBar struct {
	ID            string
	Name          string
	Description   string
	Icon          string
	Color         string
	Category      string
	CurrentValue  float64
	TargetValue   float64
	Visualization Visualization

	Rules      Rules
	Milestones []Milestone
	History    []HistoryEntry

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Ratio is the fill fraction in [0, 1].
func (b ProgressBar) Ratio() float64 {
	if b.TargetValue <= 0 {
		return 0
	}
	r := b.CurrentValue / b.TargetValue
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

func (b ProgressBar) Clone() ProgressBar {
	b.Rules = Rules{
		Increment: append([]Rule(nil), b.Rules.Increment...),
		Decrement: append([]Rule(nil), b.Rules.Decrement...),
	}
	ms := make([]Milestone, len(b.Milestones))
	for i, m := range b.Milestones {
		if m.Reward != nil {
			r := *m.Reward
			m.Reward = &r
		}
		if m.AchievedAt != nil {
			t := *m.AchievedAt
			m.AchievedAt = &t
		}
		ms[i] = m
	}
	b.Milestones = ms
	b.History = append([]HistoryEntry(nil), b.History...)
	return b
}

// BarUpdate describes one value change produced by the rule engine.
type BarUpdate struct {
	BarID    string
	BarName  string
	Previous float64
	New      float64
	Change   float64
	Reason   string
	Trigger  TriggerType
	Achieved []Milestone
}

// LevelChange is the outcome of adding experience.
type LevelChange struct {
	Before int
	After  int
}

func (c LevelChange) LeveledUp() bool { return c.After > c.Before }
