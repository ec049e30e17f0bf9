package ledger

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
	user   *game.User
	puts   int
	failOn int // fail the n-th put (1-based) when > 0
}

func (s *memStore) GetUser(_ context.Context, id string) (*game.User, error) {
	if s.user == nil {
		return nil, nil
	}
	u := s.user.Clone()
	return &u, nil
}

func (s *memStore) PutUser(_ context.Context, u *game.User) error {
	s.puts++
	if s.failOn > 0 && s.puts == s.failOn {
		return errors.New("disk full")
	}
	c := u.Clone()
	s.user = &c
	return nil
}

var testNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func newTestLedger(t *testing.T) (*Ledger, *memStore) {
	t.Helper()
	store := &memStore{}
	l := New(store, WithClock(func() time.Time { return testNow }))
	require.NoError(t, l.Load(context.Background()))
	return l, store
}

func TestLevelFormula(t *testing.T) {
	for xp := 0; xp <= 200_000; xp += 7 {
		lvl := LevelForXP(xp)
		require.LessOrEqual(t, XPForLevel(lvl), xp, "xp=%d", xp)
		require.Greater(t, XPForLevel(lvl+1), xp, "xp=%d", xp)
	}
	assert.Equal(t, 1, LevelForXP(99))
	assert.Equal(t, 2, LevelForXP(100))
	assert.Equal(t, 2, LevelForXP(250))
	assert.Equal(t, 10, LevelForXP(8100))
	assert.Equal(t, 0, XPForLevel(1))
	assert.Equal(t, 8100, XPForLevel(10))
}

func TestLoadCreatesDefaultHero(t *testing.T) {
	l, store := newTestLedger(t)
	u := l.User()
	assert.Equal(t, "Adventurer", u.Name)
	assert.Equal(t, 1, u.Level)
	assert.Equal(t, 50, u.HP)
	assert.Equal(t, 100, u.Stamina)
	assert.Equal(t, 0, u.MaxMana)
	require.NotNil(t, store.user)
}

func TestLoadRederivesLevel(t *testing.T) {
	u := game.NewUser(testNow)
	u.XP = 900
	u.Level = 1
	store := &memStore{user: &u}
	l := New(store)
	require.NoError(t, l.Load(context.Background()))
	assert.Equal(t, 4, l.User().Level)
	assert.Equal(t, 4, store.user.Level)
}

func TestApplyExperienceSingleLevel(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Damage(ctx, 20, "test")
	require.NoError(t, err)

	change, err := l.ApplyExperience(ctx, 250)
	require.NoError(t, err)
	assert.Equal(t, game.LevelChange{Before: 1, After: 2}, change)

	u := l.User()
	assert.Equal(t, 250, u.XP)
	assert.Equal(t, 55, u.MaxHP)
	assert.Equal(t, 55, u.HP)
	assert.Equal(t, 110, u.MaxStamina)
	assert.Equal(t, 110, u.Stamina)
	assert.Equal(t, 105, u.MaxWellness)
	assert.Equal(t, 0, u.MaxMana)
}

func TestApplyExperienceStepsEachLevel(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	change, err := l.ApplyExperience(ctx, XPForLevel(11))
	require.NoError(t, err)
	assert.Equal(t, 11, change.After)

	u := l.User()
	assert.Equal(t, 100, u.MaxHP)
	assert.Equal(t, 200, u.MaxStamina)
	assert.Equal(t, 150, u.MaxWellness)
	// 20 when level 10 is reached, +5 for level 11.
	assert.Equal(t, 25, u.MaxMana)
	assert.Equal(t, 25, u.Mana)
}

func TestApplyExperienceClassStats(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.ApplyExperience(ctx, XPForLevel(10))
	require.NoError(t, err)
	require.NoError(t, l.UnlockClass(ctx, game.ClassWarrior))

	_, err = l.ApplyExperience(ctx, XPForLevel(12)-XPForLevel(10))
	require.NoError(t, err)

	u := l.User()
	assert.Equal(t, 12, u.Level)
	assert.Equal(t, 2, u.Stats.Strength)
	assert.Equal(t, 0, u.Stats.Constitution)
	require.NotNil(t, u.ClassUnlockedAt)
}

func TestApplyExperienceRejectsNegative(t *testing.T) {
	l, _ := newTestLedger(t)
	_, err := l.ApplyExperience(context.Background(), -1)
	assert.Error(t, err)
	assert.Equal(t, 0, l.User().XP)
}

func TestClassGate(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	err := l.UnlockClass(ctx, game.ClassMage)
	var gate game.GateError
	require.ErrorAs(t, err, &gate)
	assert.Equal(t, LevelClasses, gate.RequiredLevel)
	assert.Equal(t, game.ClassNone, l.User().Class)

	require.Error(t, l.ChangeClass(ctx, game.ClassRogue))
	assert.Equal(t, game.ClassNone, l.User().Class)

	_, err = l.ApplyExperience(ctx, XPForLevel(10))
	require.NoError(t, err)
	require.NoError(t, l.UnlockClass(ctx, game.ClassMage))
	require.NoError(t, l.ChangeClass(ctx, game.ClassRogue))
	assert.Equal(t, game.ClassRogue, l.User().Class)
}

func TestDamageMitigation(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	require.NoError(t, l.AddStats(ctx, game.Stats{Constitution: 35}))

	res, err := l.Damage(ctx, 10, "missed daily")
	require.NoError(t, err)
	assert.Equal(t, 7, res.Dealt)
	assert.False(t, res.Died)
	assert.Equal(t, 43, l.User().HP)

	// Mitigation never drops damage below 1.
	res, err = l.Damage(ctx, 2, "tiny")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Dealt)

	_, err = l.Damage(ctx, 0, "none")
	assert.Error(t, err)
}

func TestDamageDeathScenario(t *testing.T) {
	l, store := newTestLedger(t)
	ctx := context.Background()

	_, err := l.ApplyExperience(ctx, 450)
	require.NoError(t, err)
	require.Equal(t, 3, l.User().Level)
	require.NoError(t, l.AddGold(ctx, 55))
	require.NoError(t, l.IncrementStreak(ctx))
	require.NoError(t, l.IncrementStreak(ctx))

	_, err = l.Damage(ctx, l.User().HP-3, "setup")
	require.NoError(t, err)
	require.Equal(t, 3, l.User().HP)
	require.NoError(t, l.AddStats(ctx, game.Stats{Constitution: 20}))

	res, err := l.Damage(ctx, 10, "boss")
	require.NoError(t, err)
	assert.Equal(t, 8, res.Dealt)
	require.True(t, res.Died)
	assert.Equal(t, 5, res.Death.GoldLost)

	u := l.User()
	assert.Equal(t, 1, u.HP)
	assert.Equal(t, 50, u.Gold)
	assert.Equal(t, 2, u.Level)
	assert.Equal(t, XPForLevel(2), u.XP)
	assert.Equal(t, 0, u.CurrentStreak)
	assert.Equal(t, 2, u.LongestStreak)
	assert.Equal(t, 1, store.user.HP, "0 HP must never be persisted")
}

func TestHandleDeathAtLevelOne(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	require.NoError(t, l.AddGold(ctx, 9))

	res, err := l.HandleDeath(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.GoldLost)
	u := l.User()
	assert.Equal(t, 1, u.Level)
	assert.Equal(t, 0, u.XP)
	assert.Equal(t, 9, u.Gold)
	assert.Equal(t, 1, u.HP)
}

func TestSpendShortfallIsNotAnError(t *testing.T) {
	l, store := newTestLedger(t)
	ctx := context.Background()
	puts := store.puts

	ok, err := l.SpendGold(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.SpendMana(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.SpendGems(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, puts, store.puts, "shortfall must not write")

	ok, err = l.SpendStamina(ctx, 30)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 70, l.User().Stamina)
}

func TestRestoreClampsToMax(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.SpendStamina(ctx, 40)
	require.NoError(t, err)
	require.NoError(t, l.RestoreStamina(ctx, 500))
	assert.Equal(t, 100, l.User().Stamina)

	_, err = l.Damage(ctx, 10, "x")
	require.NoError(t, err)
	require.NoError(t, l.HealHP(ctx, 500))
	assert.Equal(t, 50, l.User().HP)

	require.NoError(t, l.RestoreMana(ctx, 10))
	assert.Equal(t, 0, l.User().Mana, "mana stays locked at max 0")

	require.NoError(t, l.AdjustWellness(ctx, -250))
	assert.Equal(t, 0, l.User().Wellness)
	require.NoError(t, l.AdjustWellness(ctx, 250))
	assert.Equal(t, 100, l.User().Wellness)
}

func TestLongestStreakNeverDecreases(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	prev := 0
	ops := []func() error{
		func() error { return l.IncrementStreak(ctx) },
		func() error { return l.IncrementStreak(ctx) },
		func() error { return l.ResetStreak(ctx) },
		func() error { return l.IncrementStreak(ctx) },
		func() error { _, err := l.HandleDeath(ctx); return err },
		func() error { return l.IncrementStreak(ctx) },
		func() error { return l.IncrementStreak(ctx) },
		func() error { return l.IncrementStreak(ctx) },
	}
	for _, op := range ops {
		require.NoError(t, op())
		got := l.User().LongestStreak
		require.GreaterOrEqual(t, got, prev)
		prev = got
	}
	assert.Equal(t, 3, prev)
}

func TestFailedWriteLeavesStateUnchanged(t *testing.T) {
	l, store := newTestLedger(t)
	ctx := context.Background()
	before := l.User()

	store.failOn = store.puts + 1
	_, err := l.ApplyExperience(ctx, 500)
	require.Error(t, err)
	assert.ErrorIs(t, err, game.ErrPersistence)
	assert.Equal(t, before, l.User())

	store.failOn = store.puts + 1
	ok, err := l.SpendStamina(ctx, 10)
	assert.False(t, ok)
	assert.ErrorIs(t, err, game.ErrPersistence)
	assert.Equal(t, before.Stamina, l.User().Stamina)
}

func TestUpdateProfile(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	require.Error(t, l.UpdateProfile(ctx, "  ", ""))
	require.NoError(t, l.UpdateProfile(ctx, " Ada ", "explorer"))
	assert.Equal(t, "Ada", l.User().Name)
}

func TestNotLoaded(t *testing.T) {
	l := New(&memStore{})
	_, err := l.SpendStamina(context.Background(), 1)
	assert.Error(t, err)
	assert.Error(t, l.AddGold(context.Background(), 1))
}
