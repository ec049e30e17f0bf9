// Package ledger owns the hero record: experience, health, mana, currencies,
// stamina, stats and class.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"questlife/internal/game"
	"questlife/internal/log"
)

// Store is the slice of the record store the ledger needs.
// GetUser returns (nil, nil) when no user exists yet.
type Store interface {
	GetUser(ctx context.Context, id string) (*game.User, error)
	PutUser(ctx context.Context, u *game.User) error
}

type Ledger struct {
	store Store
	now   func() time.Time
	user  game.User
	ready bool
}

type Option func(*Ledger)

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{store: store, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches the hero, creating the default one on first launch.
func (l *Ledger) Load(ctx context.Context) error {
	u, err := l.store.GetUser(ctx, game.DefaultUserID)
	if err != nil {
		return game.Persistence("user get", err)
	}
	if u == nil {
		fresh := game.NewUser(l.now())
		if err := l.store.PutUser(ctx, &fresh); err != nil {
			return game.Persistence("user create", err)
		}
		log.Info("created hero", "name", fresh.Name)
		l.user = fresh
		l.ready = true
		return nil
	}

	l.user = *u
	l.ready = true
	if computed := LevelForXP(u.XP); u.Level != computed {
		log.Warn("stored level disagrees with xp, re-deriving", "stored", u.Level, "computed", computed)
		return l.mutate(ctx, "user level sync", func(u *game.User) error {
			u.Level = computed
			return nil
		})
	}
	return nil
}

// User returns a copy of the current hero.
func (l *Ledger) User() game.User {
	return l.user.Clone()
}

var errNotLoaded = errors.New("ledger not loaded")

// mutate applies fn to a copy of the user, persists it, and only then makes it
// the current state.
func (l *Ledger) mutate(ctx context.Context, op string, fn func(u *game.User) error) error {
	if !l.ready {
		return errNotLoaded
	}
	next := l.user.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	next.UpdatedAt = l.now()
	if err := l.store.PutUser(ctx, &next); err != nil {
		log.Warn("user write failed", "op", op, "error", err)
		return game.Persistence(op, err)
	}
	l.user = next
	return nil
}

func checkAmount(amount int) error {
	if amount < 0 {
		return fmt.Errorf("amount must be >= 0, got %d", amount)
	}
	return nil
}

// ApplyExperience adds XP and runs one level-up step per level gained.
func (l *Ledger) ApplyExperience(ctx context.Context, amount int) (game.LevelChange, error) {
	if err := checkAmount(amount); err != nil {
		return game.LevelChange{}, err
	}
	var change game.LevelChange
	err := l.mutate(ctx, "apply experience", func(u *game.User) error {
		change.Before = u.Level
		u.XP += amount
		target := LevelForXP(u.XP)
		for lvl := u.Level + 1; lvl <= target; lvl++ {
			levelUp(u, lvl)
			u.Level = lvl
		}
		change.After = u.Level
		return nil
	})
	if err != nil {
		return game.LevelChange{}, err
	}
	if change.LeveledUp() {
		log.Info("level up", "from", change.Before, "to", change.After)
	}
	return change, nil
}

func (l *Ledger) AddGold(ctx context.Context, amount int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	return l.mutate(ctx, "add gold", func(u *game.User) error {
		u.Gold += amount
		return nil
	})
}

func (l *Ledger) AddGems(ctx context.Context, amount int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	return l.mutate(ctx, "add gems", func(u *game.User) error {
		u.Gems += amount
		return nil
	})
}

// AddStats adds the given per-stat deltas.
func (l *Ledger) AddStats(ctx context.Context, delta game.Stats) error {
	return l.mutate(ctx, "add stats", func(u *game.User) error {
		u.Stats = u.Stats.Plus(delta)
		return nil
	})
}

func (l *Ledger) IncrementQuestCounters(ctx context.Context) error {
	return l.mutate(ctx, "quest counters", func(u *game.User) error {
		u.TotalQuests++
		u.CompletedQuests++
		return nil
	})
}

func (l *Ledger) IncrementStreak(ctx context.Context) error {
	return l.mutate(ctx, "increment streak", func(u *game.User) error {
		u.CurrentStreak++
		if u.CurrentStreak > u.LongestStreak {
			u.LongestStreak = u.CurrentStreak
		}
		return nil
	})
}

func (l *Ledger) ResetStreak(ctx context.Context) error {
	return l.mutate(ctx, "reset streak", func(u *game.User) error {
		u.CurrentStreak = 0
		return nil
	})
}

// UnlockClass picks a class for the first time. Below level 10 it returns a
// GateError and changes nothing.
func (l *Ledger) UnlockClass(ctx context.Context, c game.Class) error {
	if !c.IsValid() {
		return fmt.Errorf("invalid class: %q", c)
	}
	return l.mutate(ctx, "unlock class", func(u *game.User) error {
		if err := CanChooseClass(u.Level); err != nil {
			return err
		}
		now := l.now()
		u.Class = c
		u.ClassUnlockedAt = &now
		return nil
	})
}

// ChangeClass switches an existing class. Same gate as UnlockClass.
func (l *Ledger) ChangeClass(ctx context.Context, c game.Class) error {
	if !c.IsValid() {
		return fmt.Errorf("invalid class: %q", c)
	}
	return l.mutate(ctx, "change class", func(u *game.User) error {
		if err := CanChooseClass(u.Level); err != nil {
			return err
		}
		u.Class = c
		return nil
	})
}

func (l *Ledger) UpdateProfile(ctx context.Context, name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("name is required")
	}
	return l.mutate(ctx, "update profile", func(u *game.User) error {
		u.Name = name
		u.Description = strings.TrimSpace(description)
		return nil
	})
}
