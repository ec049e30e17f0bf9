package progress

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questlife/internal/game"
)

type memStore struct {
	bars map[string]game.ProgressBar
	fail bool
}

func (s *memStore) ListProgressBars(context.Context) ([]game.ProgressBar, error) {
	var out []game.ProgressBar
	for _, b := range s.bars {
		out = append(out, b.Clone())
	}
	return out, nil
}

func (s *memStore) PutProgressBar(_ context.Context, b *game.ProgressBar) error {
	if s.fail {
		return errors.New("write rejected")
	}
	s.bars[b.ID] = b.Clone()
	return nil
}

func (s *memStore) DeleteProgressBar(_ context.Context, id string) error {
	if s.fail {
		return errors.New("write rejected")
	}
	delete(s.bars, id)
	return nil
}

type fakeSink struct {
	gold, gems, xp int
	grants         int
}

func (s *fakeSink) AddGold(_ context.Context, n int) error {
	s.grants++
	s.gold += n
	return nil
}

func (s *fakeSink) AddGems(_ context.Context, n int) error {
	s.grants++
	s.gems += n
	return nil
}

func (s *fakeSink) ApplyExperience(_ context.Context, n int) (game.LevelChange, error) {
	s.grants++
	s.xp += n
	return game.LevelChange{Before: 1, After: 1}, nil
}

type harness struct {
	engine *Engine
	store  *memStore
	sink   *fakeSink
	now    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store: &memStore{bars: map[string]game.ProgressBar{}},
		sink:  &fakeSink{},
		now:   time.Date(2026, 4, 1, 7, 0, 0, 0, time.UTC),
	}
	h.engine = New(h.store, h.sink, WithClock(func() time.Time {
		h.now = h.now.Add(time.Second)
		return h.now
	}))
	require.NoError(t, h.engine.Load(context.Background()))
	return h
}

func (h *harness) bar(t *testing.T, initial, target float64) game.ProgressBar {
	t.Helper()
	b, err := h.engine.Create(context.Background(), NewBar{Name: "Pushups", Initial: initial, Target: target})
	require.NoError(t, err)
	return b
}

func TestShouldTrigger(t *testing.T) {
	rule := func(tt game.TriggerType, quest string) game.Rule {
		return game.Rule{TriggerType: tt, TriggerTaskID: quest}
	}
	tests := []struct {
		name     string
		rule     game.Rule
		questID  string
		typ      game.QuestType
		positive bool
		want     bool
	}{
		{"any quest", rule(game.TriggerQuestComplete, ""), "q1", game.QuestTodo, true, true},
		{"scoped quest match", rule(game.TriggerQuestComplete, "q1"), "q1", game.QuestHabit, false, true},
		{"scoped quest miss", rule(game.TriggerQuestComplete, "q2"), "q1", game.QuestTodo, true, false},
		{"daily on daily", rule(game.TriggerDailyComplete, ""), "q1", game.QuestDaily, true, true},
		{"daily on todo", rule(game.TriggerDailyComplete, ""), "q1", game.QuestTodo, true, false},
		{"daily scoped miss", rule(game.TriggerDailyComplete, "q9"), "q1", game.QuestDaily, true, false},
		{"positive habit", rule(game.TriggerHabitPositive, ""), "q1", game.QuestHabit, true, true},
		{"positive rule on negative habit", rule(game.TriggerHabitPositive, ""), "q1", game.QuestHabit, false, false},
		{"positive rule on todo", rule(game.TriggerHabitPositive, ""), "q1", game.QuestTodo, true, false},
		{"negative habit", rule(game.TriggerHabitNegative, "q1"), "q1", game.QuestHabit, false, true},
		{"negative rule on positive habit", rule(game.TriggerHabitNegative, ""), "q1", game.QuestHabit, true, false},
		{"manual never", rule(game.TriggerManual, ""), "q1", game.QuestTodo, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldTrigger(tt.rule, tt.questID, tt.typ, tt.positive))
		})
	}
}

func TestCreateValidatesAndClamps(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	b, err := h.engine.Create(ctx, NewBar{Name: "Km run", Initial: 150, Target: 100})
	require.NoError(t, err)
	assert.Equal(t, 100.0, b.CurrentValue)
	assert.Equal(t, DefaultIcon, b.Icon)
	assert.Equal(t, game.VisualBar, b.Visualization)
	assert.Empty(t, b.History)

	_, err = h.engine.Create(ctx, NewBar{Name: "x", Target: 0})
	assert.Error(t, err)
	_, err = h.engine.Create(ctx, NewBar{Name: "", Target: 10})
	assert.Error(t, err)
	_, err = h.engine.Create(ctx, NewBar{Name: "x", Target: 10, Visualization: "pie"})
	assert.Error(t, err)
}

func TestRuleClampsAtTargetAndGrantsMilestoneOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.bar(t, 95, 100)

	_, err := h.engine.AddRule(ctx, b.ID, game.RuleIncrement, game.Rule{TriggerType: game.TriggerQuestComplete, Value: 10, Description: "quest done"})
	require.NoError(t, err)
	_, err = h.engine.AddMilestone(ctx, b.ID, game.Milestone{Value: 100, Title: "Full", Reward: &game.Reward{Type: game.RewardGold, Amount: 50}})
	require.NoError(t, err)

	updates, err := h.engine.ProcessQuestCompletion(ctx, "q1", game.QuestTodo, true)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, 95.0, updates[0].Previous)
	assert.Equal(t, 100.0, updates[0].New)
	assert.Equal(t, 10.0, updates[0].Change)
	require.Len(t, updates[0].Achieved, 1)

	got, _ := h.engine.Get(b.ID)
	assert.Equal(t, 100.0, got.CurrentValue)
	require.True(t, got.Milestones[0].Achieved)
	require.NotNil(t, got.Milestones[0].AchievedAt)
	assert.Equal(t, 50, h.sink.gold)

	_, err = h.engine.ProcessQuestCompletion(ctx, "q2", game.QuestTodo, true)
	require.NoError(t, err)
	_, err = h.engine.CheckMilestones(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, h.sink.gold)
	assert.Equal(t, 1, h.sink.grants)

	got, _ = h.engine.Get(b.ID)
	assert.Equal(t, 100.0, got.CurrentValue)
	assert.Len(t, got.History, 2)
}

func TestJumpAchievesEveryCrossedMilestone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.bar(t, 0, 100)

	for _, v := range []float64{10, 30, 60, 90} {
		_, err := h.engine.AddMilestone(ctx, b.ID, game.Milestone{Value: v, Reward: &game.Reward{Type: game.RewardGems, Amount: 1}})
		require.NoError(t, err)
	}

	u, err := h.engine.SetValue(ctx, b.ID, 80, "caught up")
	require.NoError(t, err)
	assert.Equal(t, game.TriggerManual, u.Trigger)
	assert.Len(t, u.Achieved, 3)
	assert.Equal(t, 3, h.sink.gems)

	got, _ := h.engine.Get(b.ID)
	var achieved []float64
	for _, m := range got.Milestones {
		if m.Achieved {
			achieved = append(achieved, m.Value)
		}
	}
	assert.Equal(t, []float64{10, 30, 60}, achieved)
	require.Len(t, got.History, 1)
	assert.Equal(t, 80.0, got.History[0].Change)

	// Dropping back below a threshold never un-achieves it.
	_, err = h.engine.SetValue(ctx, b.ID, 0, "reset")
	require.NoError(t, err)
	got, _ = h.engine.Get(b.ID)
	assert.True(t, got.Milestones[0].Achieved)
	_, err = h.engine.SetValue(ctx, b.ID, 70, "again")
	require.NoError(t, err)
	assert.Equal(t, 3, h.sink.gems)
}

func TestValueStaysInRange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.bar(t, 5, 20)

	for _, change := range []float64{-50, 3.5, 100, -7.25, 0, 19, -0.5, -1000, 12} {
		u, err := h.engine.UpdateValue(ctx, b.ID, change, "step", game.TriggerManual)
		require.NoError(t, err)
		require.GreaterOrEqual(t, u.New, 0.0)
		require.LessOrEqual(t, u.New, 20.0)
	}
	got, _ := h.engine.Get(b.ID)
	assert.Len(t, got.History, 9)
	for i, entry := range got.History {
		if i > 0 {
			assert.Equal(t, got.History[i-1].NewValue, entry.PreviousValue)
		}
	}
}

func TestNonFiniteNumbersAreRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.bar(t, 5, 20)
	nan, inf := math.NaN(), math.Inf(1)

	_, err := h.engine.SetValue(ctx, b.ID, nan, "broken scale")
	assert.Error(t, err)
	_, err = h.engine.UpdateValue(ctx, b.ID, nan, "step", game.TriggerManual)
	assert.Error(t, err)
	_, err = h.engine.UpdateValue(ctx, b.ID, math.Inf(-1), "step", game.TriggerManual)
	assert.Error(t, err)
	_, err = h.engine.AddRule(ctx, b.ID, game.RuleIncrement, game.Rule{TriggerType: game.TriggerQuestComplete, Value: nan})
	assert.Error(t, err)
	_, err = h.engine.AddMilestone(ctx, b.ID, game.Milestone{Value: nan})
	assert.Error(t, err)
	_, err = h.engine.Update(ctx, b.ID, Patch{Target: &inf})
	assert.Error(t, err)
	_, err = h.engine.Create(ctx, NewBar{Name: "Endless", Target: inf})
	assert.Error(t, err)
	_, err = h.engine.Create(ctx, NewBar{Name: "Broken", Initial: nan, Target: 10})
	assert.Error(t, err)

	got, err := h.engine.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.CurrentValue)
	assert.Equal(t, 20.0, got.TargetValue)
	assert.Empty(t, got.History)
	assert.Empty(t, got.Rules.Increment)
	assert.Empty(t, got.Milestones)
	assert.Len(t, h.engine.List(), 1)
	assert.Len(t, h.store.bars, 1)
}

func TestIncrementAndDecrementRulesBothApply(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.bar(t, 50, 100)

	_, err := h.engine.AddRule(ctx, b.ID, game.RuleIncrement, game.Rule{TriggerType: game.TriggerHabitPositive, Value: 5})
	require.NoError(t, err)
	_, err = h.engine.AddRule(ctx, b.ID, game.RuleDecrement, game.Rule{TriggerType: game.TriggerHabitNegative, Value: -2})
	require.NoError(t, err)
	_, err = h.engine.AddRule(ctx, b.ID, game.RuleIncrement, game.Rule{TriggerType: game.TriggerQuestComplete, Value: 1})
	require.NoError(t, err)

	updates, err := h.engine.ProcessQuestCompletion(ctx, "h1", game.QuestHabit, false)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, 1.0, updates[0].Change)
	assert.Equal(t, -2.0, updates[1].Change)

	got, _ := h.engine.Get(b.ID)
	assert.Equal(t, 49.0, got.CurrentValue)
}

func TestLoweringTargetClampsThroughHistory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.bar(t, 80, 100)

	target := 60.0
	got, err := h.engine.Update(ctx, b.ID, Patch{Target: &target})
	require.NoError(t, err)
	assert.Equal(t, 60.0, got.CurrentValue)
	require.Len(t, got.History, 1)
	assert.Equal(t, -20.0, got.History[0].Change)
	assert.Equal(t, game.TriggerManual, got.History[0].TriggerType)

	zero := 0.0
	_, err = h.engine.Update(ctx, b.ID, Patch{Target: &zero})
	assert.Error(t, err)
}

func TestAddMilestoneAlreadyReached(t *testing.T) {
	h := newHarness(t)
	b := h.bar(t, 40, 100)

	m, err := h.engine.AddMilestone(context.Background(), b.ID, game.Milestone{Value: 25, Title: "Quarter", Reward: &game.Reward{Type: game.RewardXP, Amount: 30}})
	require.NoError(t, err)
	assert.True(t, m.Achieved)
	assert.Equal(t, 30, h.sink.xp)
}

func TestItemRewardIsNotGranted(t *testing.T) {
	h := newHarness(t)
	b := h.bar(t, 0, 10)
	_, err := h.engine.AddMilestone(context.Background(), b.ID, game.Milestone{Value: 5, Reward: &game.Reward{Type: game.RewardItem, ItemID: "sword"}})
	require.NoError(t, err)

	u, err := h.engine.UpdateValue(context.Background(), b.ID, 5, "", game.TriggerManual)
	require.NoError(t, err)
	assert.Len(t, u.Achieved, 1)
	assert.Equal(t, 0, h.sink.grants)
}

func TestFailedWriteKeepsBarAndWithholdsReward(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.bar(t, 90, 100)
	_, err := h.engine.AddMilestone(ctx, b.ID, game.Milestone{Value: 100, Reward: &game.Reward{Type: game.RewardGold, Amount: 10}})
	require.NoError(t, err)
	before, _ := h.engine.Get(b.ID)

	h.store.fail = true
	_, err = h.engine.UpdateValue(ctx, b.ID, 20, "big day", game.TriggerManual)
	require.ErrorIs(t, err, game.ErrPersistence)

	after, _ := h.engine.Get(b.ID)
	assert.Equal(t, before, after)
	assert.Equal(t, 0, h.sink.gold)
}

func TestRemoveRuleAndMilestone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.bar(t, 0, 10)

	r, err := h.engine.AddRule(ctx, b.ID, game.RuleDecrement, game.Rule{TriggerType: game.TriggerHabitNegative, Value: -1})
	require.NoError(t, err)
	m, err := h.engine.AddMilestone(ctx, b.ID, game.Milestone{Value: 10})
	require.NoError(t, err)

	require.NoError(t, h.engine.RemoveRule(ctx, b.ID, r.ID))
	assert.ErrorIs(t, h.engine.RemoveRule(ctx, b.ID, r.ID), game.ErrNotFound)
	require.NoError(t, h.engine.RemoveMilestone(ctx, b.ID, m.ID))
	assert.ErrorIs(t, h.engine.RemoveMilestone(ctx, b.ID, m.ID), game.ErrNotFound)

	got, _ := h.engine.Get(b.ID)
	assert.Empty(t, got.Rules.Decrement)
	assert.Empty(t, got.Milestones)

	_, err = h.engine.AddRule(ctx, b.ID, game.RuleIncrement, game.Rule{TriggerType: "sometimes"})
	assert.Error(t, err)
}

func TestUnknownBarIsReported(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.engine.UpdateValue(ctx, "nope", 1, "", game.TriggerManual)
	assert.ErrorIs(t, err, game.ErrNotFound)
	_, err = h.engine.SetValue(ctx, "nope", 1, "")
	assert.ErrorIs(t, err, game.ErrNotFound)
	_, err = h.engine.CheckMilestones(ctx, "nope")
	assert.ErrorIs(t, err, game.ErrNotFound)
	assert.ErrorIs(t, h.engine.Delete(ctx, "nope"), game.ErrNotFound)
	assert.Empty(t, h.store.bars)
}

func TestCreateFromPreset(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	b, err := h.engine.CreateFromPreset(ctx, "Fitness-Level")
	require.NoError(t, err)
	assert.Equal(t, "Fitness Level", b.Name)
	assert.Equal(t, 25.0, b.CurrentValue)
	require.Len(t, b.Rules.Increment, 1)
	require.Len(t, b.Rules.Decrement, 1)
	assert.Equal(t, -2.0, b.Rules.Decrement[0].Value)
	require.Len(t, b.Milestones, 2)
	assert.False(t, b.Milestones[0].Achieved)

	for i := 0; i < 5; i++ {
		_, err := h.engine.ProcessQuestCompletion(ctx, "pushups", game.QuestHabit, true)
		require.NoError(t, err)
	}
	assert.Equal(t, 100, h.sink.gold)

	_, err = h.engine.CreateFromPreset(ctx, "telepathy")
	assert.Error(t, err)
	for _, p := range Presets() {
		_, err := h.engine.CreateFromPreset(ctx, p.Code)
		require.NoError(t, err, p.Code)
	}
}

func TestByCategoryAndDelete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a, err := h.engine.Create(ctx, NewBar{Name: "Run", Target: 10, Category: "health"})
	require.NoError(t, err)
	_, err = h.engine.Create(ctx, NewBar{Name: "Swim", Target: 10, Category: "health"})
	require.NoError(t, err)
	_, err = h.engine.Create(ctx, NewBar{Name: "Misc", Target: 10})
	require.NoError(t, err)

	groups := h.engine.ByCategory()
	assert.Len(t, groups["health"], 2)
	assert.Len(t, groups[""], 1)
	assert.Equal(t, "Run", groups["health"][0].Name)

	require.NoError(t, h.engine.Delete(ctx, a.ID))
	assert.Len(t, h.engine.List(), 2)
	assert.NotContains(t, h.store.bars, a.ID)
}
