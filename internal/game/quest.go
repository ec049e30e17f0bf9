package game

import "time"

type Quest struct {
	ID          string
	Title       string
	Description string
	Type        QuestType
	Category    string
	Difficulty  Difficulty

	XPReward    int
	GoldReward  int
	ManaReward  int
	StaminaCost int

	Status         QuestStatus
	Deadline       *time.Time
	CompletedAt    *time.Time
	CompletedDates []time.Time
	Streak         int

	// IsPositive is the habit polarity. nil counts as positive.
	IsPositive *bool

	LinkedProgressBars []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Positive reports the polarity used for rule matching: anything that is not a
// habit explicitly marked negative counts as positive.
func (q Quest) Positive() bool {
	return q.Type != QuestHabit || q.IsPositive == nil || *q.IsPositive
}

// CompletedOn reports whether any completion falls on the calendar day of day,
// evaluated in day's location.
func (q Quest) CompletedOn(day time.Time) bool {
	for _, d := range q.CompletedDates {
		if SameDay(d, day) {
			return true
		}
	}
	return false
}

func (q Quest) Clone() Quest {
	if q.Deadline != nil {
		t := *q.Deadline
		q.Deadline = &t
	}
	if q.CompletedAt != nil {
		t := *q.CompletedAt
		q.CompletedAt = &t
	}
	if q.IsPositive != nil {
		b := *q.IsPositive
		q.IsPositive = &b
	}
	q.CompletedDates = append([]time.Time(nil), q.CompletedDates...)
	q.LinkedProgressBars = append([]string(nil), q.LinkedProgressBars...)
	return q
}

// SameDay compares calendar dates in the location of b.
func SameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
