package game

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDifficultyRewards(t *testing.T) {
	cases := map[Difficulty]QuestRewards{
		DifficultyTrivial: {XP: 5, Gold: 1, StaminaCost: 5},
		DifficultyEasy:    {XP: 10, Gold: 2, StaminaCost: 10},
		DifficultyMedium:  {XP: 25, Gold: 5, StaminaCost: 20},
		DifficultyHard:    {XP: 50, Gold: 10, StaminaCost: 35},
	}
	for d, want := range cases {
		got, err := d.Rewards()
		require.NoError(t, err)
		assert.Equal(t, want, got, d)
	}

	_, err := Difficulty("epic").Rewards()
	assert.Error(t, err)
}

func TestParseEnums(t *testing.T) {
	qt, err := ParseQuestType(" Daily ")
	require.NoError(t, err)
	assert.Equal(t, QuestDaily, qt)

	tt, err := ParseTriggerType("habit-positive")
	require.NoError(t, err)
	assert.Equal(t, TriggerHabitPositive, tt)

	_, err = ParseClass("bard")
	assert.Error(t, err)

	_, err = ParseRewardType("")
	assert.Error(t, err)
}

func TestClassStatFocus(t *testing.T) {
	p, s, ok := ClassHealer.StatFocus()
	require.True(t, ok)
	assert.Equal(t, StatConstitution, p)
	assert.Equal(t, StatIntelligence, s)

	_, _, ok = ClassNone.StatFocus()
	assert.False(t, ok)
}

func TestQuestPositive(t *testing.T) {
	neg := false
	assert.True(t, Quest{Type: QuestDaily, IsPositive: &neg}.Positive())
	assert.True(t, Quest{Type: QuestHabit}.Positive())
	assert.False(t, Quest{Type: QuestHabit, IsPositive: &neg}.Positive())
}

func TestSameDayUsesReferenceLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	a := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC) // 2 March 05:00 in loc
	b := time.Date(2026, 3, 2, 12, 0, 0, 0, loc)
	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(a, b.AddDate(0, 0, -1)))
}

func TestPersistenceErrorMatches(t *testing.T) {
	base := errors.New("disk full")
	err := Persistence("quest put", base)

	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, base)

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "quest put", pe.Op)
	assert.Nil(t, Persistence("noop", nil))
}

func TestCloneIsDeep(t *testing.T) {
	now := time.Now()
	bar := ProgressBar{
		Milestones: []Milestone{{ID: "m", Reward: &Reward{Type: RewardGold, Amount: 1}}},
		History:    []HistoryEntry{{ID: "h"}},
	}
	c := bar.Clone()
	c.Milestones[0].Achieved = true
	c.Milestones[0].Reward.Amount = 99
	c.History[0].Reason = "changed"
	assert.False(t, bar.Milestones[0].Achieved)
	assert.Equal(t, 1, bar.Milestones[0].Reward.Amount)
	assert.Empty(t, bar.History[0].Reason)

	q := Quest{CompletedDates: []time.Time{now}}
	qc := q.Clone()
	qc.CompletedDates[0] = now.Add(time.Hour)
	assert.Equal(t, now, q.CompletedDates[0])
}
