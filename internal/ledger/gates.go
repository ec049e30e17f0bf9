package ledger

import "questlife/internal/game"

const (
	LevelClasses = 10
	LevelMana    = 10
)

// Level-up grants.
const (
	levelUpHP       = 5
	levelUpStamina  = 10
	levelUpWellness = 5
	levelUpMana     = 5
	unlockedMana    = 20
	levelUpStat     = 1
)

func CanChooseClass(level int) error {
	if level < LevelClasses {
		return game.GateError{Feature: "classes", RequiredLevel: LevelClasses}
	}
	return nil
}

// levelUp applies the grants for reaching level reached. It is called once per
// level gained, in ascending order.
func levelUp(u *game.User, reached int) {
	u.MaxHP += levelUpHP
	u.HP = u.MaxHP
	u.MaxStamina += levelUpStamina
	u.Stamina = u.MaxStamina
	u.MaxWellness += levelUpWellness
	u.Wellness = u.MaxWellness

	switch {
	case reached == LevelMana:
		u.MaxMana = unlockedMana
		u.Mana = u.MaxMana
	case reached > LevelMana:
		u.MaxMana += levelUpMana
		u.Mana = u.MaxMana
	}

	if primary, secondary, ok := u.Class.StatFocus(); ok {
		u.Stats.Add(primary, levelUpStat)
		u.Stats.Add(secondary, levelUpStat/2)
	}
}
