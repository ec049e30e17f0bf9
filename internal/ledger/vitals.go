package ledger

import (
	"context"
	"fmt"

	"questlife/internal/game"
	"questlife/internal/log"
)

const (
	damageReductionPerCon = 0.1
	deathGoldPenalty      = 0.1
	reviveHP              = 1
)

type DamageResult struct {
	Requested int
	Dealt     int
	Died      bool
	Death     *DeathResult
}

type DeathResult struct {
	GoldLost    int
	LevelBefore int
	LevelAfter  int
}

// Damage reduces HP after constitution mitigation. Reaching 0 HP runs death
// handling in the same write, so a 0 HP hero is never persisted.
func (l *Ledger) Damage(ctx context.Context, amount int, reason string) (DamageResult, error) {
	if amount <= 0 {
		return DamageResult{}, fmt.Errorf("damage must be > 0, got %d", amount)
	}
	res := DamageResult{Requested: amount}
	err := l.mutate(ctx, "damage", func(u *game.User) error {
		reduction := int(float64(u.Stats.Constitution) * damageReductionPerCon)
		res.Dealt = max(1, amount-reduction)
		u.HP = max(0, u.HP-res.Dealt)
		if u.HP == 0 {
			d := die(u)
			res.Died = true
			res.Death = &d
		}
		return nil
	})
	if err != nil {
		return DamageResult{}, err
	}
	log.Debug("damage taken", "reason", reason, "dealt", res.Dealt)
	if res.Died {
		log.Info("hero died", "gold_lost", res.Death.GoldLost, "level", res.Death.LevelAfter)
	}
	return res, nil
}

// HandleDeath applies the death penalty and revives the hero at 1 HP.
func (l *Ledger) HandleDeath(ctx context.Context) (DeathResult, error) {
	var res DeathResult
	err := l.mutate(ctx, "handle death", func(u *game.User) error {
		res = die(u)
		return nil
	})
	return res, err
}

func die(u *game.User) DeathResult {
	goldLoss := int(float64(u.Gold) * deathGoldPenalty)
	res := DeathResult{GoldLost: goldLoss, LevelBefore: u.Level}
	if u.Level > 1 {
		u.Level--
	}
	u.XP = XPForLevel(u.Level)
	u.Gold = max(0, u.Gold-goldLoss)
	u.CurrentStreak = 0
	u.HP = reviveHP
	res.LevelAfter = u.Level
	return res
}

func (l *Ledger) HealHP(ctx context.Context, amount int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	return l.mutate(ctx, "heal", func(u *game.User) error {
		u.HP = min(u.HP+amount, u.MaxHP)
		return nil
	})
}

func (l *Ledger) RestoreStamina(ctx context.Context, amount int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	return l.mutate(ctx, "restore stamina", func(u *game.User) error {
		u.Stamina = min(u.Stamina+amount, u.MaxStamina)
		return nil
	})
}

func (l *Ledger) RestoreMana(ctx context.Context, amount int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	return l.mutate(ctx, "restore mana", func(u *game.User) error {
		u.Mana = min(u.Mana+amount, u.MaxMana)
		return nil
	})
}

// AdjustWellness adds delta (either sign) and clamps to [0, maxWellness].
func (l *Ledger) AdjustWellness(ctx context.Context, delta int) error {
	return l.mutate(ctx, "adjust wellness", func(u *game.User) error {
		u.Wellness = max(0, min(u.Wellness+delta, u.MaxWellness))
		return nil
	})
}

// Spend operations report a shortfall as (false, nil) and change nothing.

func (l *Ledger) SpendStamina(ctx context.Context, amount int) (bool, error) {
	return l.spend(ctx, "spend stamina", amount, func(u *game.User) *int { return &u.Stamina })
}

func (l *Ledger) SpendMana(ctx context.Context, amount int) (bool, error) {
	return l.spend(ctx, "spend mana", amount, func(u *game.User) *int { return &u.Mana })
}

func (l *Ledger) SpendGold(ctx context.Context, amount int) (bool, error) {
	return l.spend(ctx, "spend gold", amount, func(u *game.User) *int { return &u.Gold })
}

func (l *Ledger) SpendGems(ctx context.Context, amount int) (bool, error) {
	return l.spend(ctx, "spend gems", amount, func(u *game.User) *int { return &u.Gems })
}

func (l *Ledger) spend(ctx context.Context, op string, amount int, balance func(u *game.User) *int) (bool, error) {
	if err := checkAmount(amount); err != nil {
		return false, err
	}
	if !l.ready {
		return false, errNotLoaded
	}
	cur := l.user
	if *balance(&cur) < amount {
		return false, nil
	}
	err := l.mutate(ctx, op, func(u *game.User) error {
		*balance(u) -= amount
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
