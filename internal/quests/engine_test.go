package quests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questlife/internal/game"
)

type memStore struct {
	quests map[string]game.Quest
	fail   bool
}

func (s *memStore) ListQuests(context.Context) ([]game.Quest, error) {
	var out []game.Quest
	for _, q := range s.quests {
		out = append(out, q.Clone())
	}
	return out, nil
}

func (s *memStore) PutQuest(_ context.Context, q *game.Quest) error {
	if s.fail {
		return errors.New("write rejected")
	}
	s.quests[q.ID] = q.Clone()
	return nil
}

func (s *memStore) DeleteQuest(_ context.Context, id string) error {
	if s.fail {
		return errors.New("write rejected")
	}
	delete(s.quests, id)
	return nil
}

// fakeLedger records every call so tests can check the completion order.
type fakeLedger struct {
	calls   []string
	stamina int
	xp      int
	gold    int
	level   int
	streak  int
	quests  int
}

func (l *fakeLedger) SpendStamina(_ context.Context, n int) (bool, error) {
	l.calls = append(l.calls, "stamina")
	if l.stamina < n {
		return false, nil
	}
	l.stamina -= n
	return true, nil
}

func (l *fakeLedger) ApplyExperience(_ context.Context, n int) (game.LevelChange, error) {
	l.calls = append(l.calls, "xp")
	before := l.level
	l.xp += n
	if l.xp >= 100 {
		l.level = 2
	}
	return game.LevelChange{Before: before, After: l.level}, nil
}

func (l *fakeLedger) AddGold(_ context.Context, n int) error {
	l.calls = append(l.calls, "gold")
	l.gold += n
	return nil
}

func (l *fakeLedger) IncrementQuestCounters(context.Context) error {
	l.calls = append(l.calls, "counters")
	l.quests++
	return nil
}

func (l *fakeLedger) IncrementStreak(context.Context) error {
	l.calls = append(l.calls, "streak")
	l.streak++
	return nil
}

type cascadeCall struct {
	questID  string
	typ      game.QuestType
	positive bool
}

type fakeCascade struct {
	ledger *fakeLedger
	seen   []cascadeCall
	err    error
}

func (c *fakeCascade) ProcessQuestCompletion(_ context.Context, id string, t game.QuestType, positive bool) ([]game.BarUpdate, error) {
	c.ledger.calls = append(c.ledger.calls, "cascade")
	c.seen = append(c.seen, cascadeCall{id, t, positive})
	return []game.BarUpdate{{BarID: "bar", Change: 1}}, c.err
}

type harness struct {
	engine  *Engine
	store   *memStore
	ledger  *fakeLedger
	cascade *fakeCascade
	now     time.Time
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		store:  &memStore{quests: map[string]game.Quest{}},
		ledger: &fakeLedger{stamina: 100, level: 1},
		now:    time.Date(2026, 3, 2, 18, 30, 0, 0, time.UTC),
	}
	h.cascade = &fakeCascade{ledger: h.ledger}
	opts = append([]Option{WithClock(func() time.Time { return h.now })}, opts...)
	h.engine = New(h.store, h.ledger, h.cascade, opts...)
	require.NoError(t, h.engine.Load(context.Background()))
	return h
}

func (h *harness) add(t *testing.T, in NewQuest) game.Quest {
	t.Helper()
	q, err := h.engine.Add(context.Background(), in)
	require.NoError(t, err)
	return q
}

func TestAddDerivesRewardsFromDifficulty(t *testing.T) {
	h := newHarness(t)

	q := h.add(t, NewQuest{Title: "  Run 5k ", Type: game.QuestTodo, Difficulty: game.DifficultyHard})
	assert.Equal(t, "Run 5k", q.Title)
	assert.Equal(t, 50, q.XPReward)
	assert.Equal(t, 10, q.GoldReward)
	assert.Equal(t, 35, q.StaminaCost)
	assert.Equal(t, game.StatusActive, q.Status)
	assert.Len(t, q.ID, 8)
	assert.Contains(t, h.store.quests, q.ID)

	q = h.add(t, NewQuest{Title: "Stretch", Type: game.QuestDaily})
	assert.Equal(t, game.DifficultyMedium, q.Difficulty)
	assert.Equal(t, 25, q.XPReward)

	_, err := h.engine.Add(context.Background(), NewQuest{Title: " ", Type: game.QuestTodo})
	assert.Error(t, err)
	_, err = h.engine.Add(context.Background(), NewQuest{Title: "x", Type: "chore"})
	assert.Error(t, err)
}

func TestCompleteTodoRunsStepsInOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	q := h.add(t, NewQuest{Title: "File taxes", Type: game.QuestTodo, Difficulty: game.DifficultyEasy})

	res, err := h.engine.Complete(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"stamina", "xp", "gold", "counters", "cascade"}, h.ledger.calls)
	assert.Equal(t, 10, res.XPAwarded)
	assert.Equal(t, 2, res.GoldAwarded)
	assert.Len(t, res.BarUpdates, 1)
	assert.Equal(t, 90, h.ledger.stamina)
	assert.Equal(t, []cascadeCall{{q.ID, game.QuestTodo, true}}, h.cascade.seen)

	got, err := h.engine.Get(q.ID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Len(t, got.CompletedDates, 1)
	assert.Equal(t, game.StatusCompleted, h.store.quests[q.ID].Status)

	_, err = h.engine.Complete(ctx, q.ID)
	assert.ErrorIs(t, err, game.ErrQuestClosed)
}

func TestCompleteRewardQuestIsTerminal(t *testing.T) {
	h := newHarness(t)
	q := h.add(t, NewQuest{Title: "Movie night", Type: game.QuestReward, Difficulty: game.DifficultyTrivial})
	_, err := h.engine.Complete(context.Background(), q.ID)
	require.NoError(t, err)
	got, _ := h.engine.Get(q.ID)
	assert.Equal(t, game.StatusCompleted, got.Status)
}

func TestCompleteWithoutStaminaChangesNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	q := h.add(t, NewQuest{Title: "Meditate", Type: game.QuestDaily, Difficulty: game.DifficultyEasy})
	h.ledger.stamina = 5
	before, _ := h.engine.Get(q.ID)

	res, err := h.engine.Complete(ctx, q.ID)
	assert.Nil(t, res)
	require.ErrorIs(t, err, game.ErrInsufficientStamina)

	after, _ := h.engine.Get(q.ID)
	assert.Equal(t, before, after)
	assert.Equal(t, before, h.store.quests[q.ID])
	assert.Equal(t, []string{"stamina"}, h.ledger.calls)
	assert.Equal(t, 5, h.ledger.stamina)
	assert.Empty(t, h.cascade.seen)
}

func TestDailyStreakAcrossDays(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	q := h.add(t, NewQuest{Title: "Journal", Type: game.QuestDaily, Difficulty: game.DifficultyTrivial})

	res, err := h.engine.Complete(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.StreakBefore)
	assert.Equal(t, 1, res.StreakAfter)

	h.now = h.now.AddDate(0, 0, 1)
	res, err = h.engine.Complete(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.StreakAfter)
	assert.Equal(t, 2, h.ledger.streak)

	// Skip a day.
	h.now = h.now.AddDate(0, 0, 2)
	res, err = h.engine.Complete(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.StreakAfter)
	assert.False(t, res.StreakIncreased())
	assert.Equal(t, 2, h.ledger.streak, "a reset does not bump the hero streak")

	got, _ := h.engine.Get(q.ID)
	assert.Equal(t, game.StatusActive, got.Status)
	assert.Len(t, got.CompletedDates, 3)
}

func TestDailyGuard(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	q := h.add(t, NewQuest{Title: "Water plants", Type: game.QuestDaily})

	_, err := h.engine.Complete(ctx, q.ID)
	require.NoError(t, err)
	calls := len(h.ledger.calls)

	h.now = h.now.Add(2 * time.Hour)
	_, err = h.engine.Complete(ctx, q.ID)
	require.ErrorIs(t, err, game.ErrAlreadyCompletedToday)
	assert.Len(t, h.ledger.calls, calls)

	off := newHarness(t, WithDailyGuard(false))
	q = off.add(t, NewQuest{Title: "Water plants", Type: game.QuestDaily})
	_, err = off.engine.Complete(ctx, q.ID)
	require.NoError(t, err)
	_, err = off.engine.Complete(ctx, q.ID)
	require.NoError(t, err)
	got, _ := off.engine.Get(q.ID)
	assert.Len(t, got.CompletedDates, 2)
}

func TestNegativeHabitCascadesAsNegative(t *testing.T) {
	h := newHarness(t)
	neg := false
	q := h.add(t, NewQuest{Title: "Snacking", Type: game.QuestHabit, IsPositive: &neg})

	_, err := h.engine.Complete(context.Background(), q.ID)
	require.NoError(t, err)
	require.Len(t, h.cascade.seen, 1)
	assert.False(t, h.cascade.seen[0].positive)

	got, _ := h.engine.Get(q.ID)
	assert.Equal(t, game.StatusActive, got.Status)
	assert.Equal(t, 0, got.Streak)
}

func TestUnknownIDsAreReported(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.engine.Complete(ctx, "nope")
	assert.ErrorIs(t, err, game.ErrNotFound)
	_, err = h.engine.Update(ctx, "nope", Patch{})
	assert.ErrorIs(t, err, game.ErrNotFound)
	assert.ErrorIs(t, h.engine.Archive(ctx, "nope"), game.ErrNotFound)
	assert.ErrorIs(t, h.engine.Delete(ctx, "nope"), game.ErrNotFound)
	_, err = h.engine.Get("nope")
	assert.ErrorIs(t, err, game.ErrNotFound)
	assert.Empty(t, h.ledger.calls)
}

func TestCompletePersistenceFailure(t *testing.T) {
	h := newHarness(t)
	q := h.add(t, NewQuest{Title: "Call mom", Type: game.QuestTodo})
	h.store.fail = true

	res, err := h.engine.Complete(context.Background(), q.ID)
	require.ErrorIs(t, err, game.ErrPersistence)
	assert.Nil(t, res)
	var pe *game.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "complete quest", pe.Op)

	// Stamina was spent; nothing after the failed write ran.
	assert.Equal(t, []string{"stamina"}, h.ledger.calls)
	got, _ := h.engine.Get(q.ID)
	assert.Equal(t, game.StatusActive, got.Status)
	assert.Empty(t, got.CompletedDates)
}

func TestCompleteKeepsResultWhenCascadeFails(t *testing.T) {
	h := newHarness(t)
	q := h.add(t, NewQuest{Title: "Stretch", Type: game.QuestTodo, Difficulty: game.DifficultyMedium})
	h.cascade.err = game.Persistence("progress update value", errors.New("disk full"))

	res, err := h.engine.Complete(context.Background(), q.ID)
	require.ErrorIs(t, err, game.ErrPersistence)
	require.NotNil(t, res)
	assert.Equal(t, q.ID, res.QuestID)
	assert.Equal(t, q.XPReward, res.XPAwarded)
	assert.Equal(t, q.GoldReward, res.GoldAwarded)
	assert.Len(t, res.BarUpdates, 1)

	got, _ := h.engine.Get(q.ID)
	assert.Equal(t, game.StatusCompleted, got.Status)
	assert.Equal(t, []string{"stamina", "xp", "gold", "counters", "cascade"}, h.ledger.calls)
}

func TestUpdateAndArchive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	q := h.add(t, NewQuest{Title: "Read", Type: game.QuestTodo, Difficulty: game.DifficultyTrivial})

	hard := game.DifficultyHard
	title := "Read a book"
	deadline := h.now.AddDate(0, 0, 3)
	got, err := h.engine.Update(ctx, q.ID, Patch{Title: &title, Difficulty: &hard, Deadline: &deadline})
	require.NoError(t, err)
	assert.Equal(t, "Read a book", got.Title)
	assert.Equal(t, 50, got.XPReward)
	assert.Equal(t, 35, got.StaminaCost)
	require.NotNil(t, got.Deadline)

	got, err = h.engine.Update(ctx, q.ID, Patch{ClearDeadline: true})
	require.NoError(t, err)
	assert.Nil(t, got.Deadline)

	require.NoError(t, h.engine.Archive(ctx, q.ID))
	_, err = h.engine.Complete(ctx, q.ID)
	assert.ErrorIs(t, err, game.ErrQuestClosed)
	assert.ErrorIs(t, h.engine.Archive(ctx, q.ID), game.ErrQuestClosed)

	require.NoError(t, h.engine.Delete(ctx, q.ID))
	assert.Empty(t, h.engine.List(Filter{}))
	assert.Empty(t, h.store.quests)
}

func TestListFilterAndViews(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	daily := h.add(t, NewQuest{Title: "Walk", Type: game.QuestDaily, Category: "health"})
	h.now = h.now.Add(time.Minute)
	done := h.add(t, NewQuest{Title: "Floss", Type: game.QuestDaily, Category: "health"})
	h.now = h.now.Add(time.Minute)
	habit := h.add(t, NewQuest{Title: "Drink water", Type: game.QuestHabit, Category: "health"})

	far := h.now.AddDate(0, 0, 10)
	near := h.now.AddDate(0, 0, 1)
	h.add(t, NewQuest{Title: "Far", Type: game.QuestTodo, Deadline: &far, Category: "work"})
	h.add(t, NewQuest{Title: "Near", Type: game.QuestTodo, Deadline: &near, Category: "work"})
	h.add(t, NewQuest{Title: "Someday", Type: game.QuestTodo, Category: "work"})

	_, err := h.engine.Complete(ctx, done.ID)
	require.NoError(t, err)

	health := h.engine.List(Filter{Category: "HEALTH"})
	require.Len(t, health, 3)
	assert.Equal(t, daily.ID, health[0].ID)
	assert.Len(t, h.engine.List(Filter{Type: game.QuestTodo}), 3)

	today := h.engine.Today()
	require.Len(t, today, 2)
	assert.Equal(t, daily.ID, today[0].ID)
	assert.Equal(t, habit.ID, today[1].ID)

	up := h.engine.UpcomingDeadlines(0)
	require.Len(t, up, 2)
	assert.Equal(t, "Near", up[0].Title)
	assert.Equal(t, "Far", up[1].Title)
	assert.Len(t, h.engine.UpcomingDeadlines(1), 1)
}

func TestLoadRestoresQuests(t *testing.T) {
	h := newHarness(t)
	q := h.add(t, NewQuest{Title: "Persist me", Type: game.QuestTodo})

	again := New(h.store, h.ledger, h.cascade)
	require.NoError(t, again.Load(context.Background()))
	got, err := again.Get(q.ID)
	require.NoError(t, err)
	assert.Equal(t, "Persist me", got.Title)
}

func TestNextStreak(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	older := now.AddDate(0, 0, -3)

	tests := []struct {
		name   string
		prior  []time.Time
		streak int
		want   int
	}{
		{"first ever", nil, 0, 1},
		{"continues", []time.Time{older, yesterday}, 4, 5},
		{"gap resets", []time.Time{older}, 4, 1},
		{"late night yesterday", []time.Time{time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)}, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextStreak(tt.prior, tt.streak, now))
		})
	}
}
