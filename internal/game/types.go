package game

import (
	"fmt"
	"strings"
)

type QuestType string

const (
	QuestDaily  QuestType = "daily"
	QuestHabit  QuestType = "habit"
	QuestTodo   QuestType = "todo"
	QuestReward QuestType = "reward"
)

func (t QuestType) IsValid() bool {
	switch t {
	case QuestDaily, QuestHabit, QuestTodo, QuestReward:
		return true
	default:
		return false
	}
}

// OneShot reports whether completing a quest of this type closes it.
func (t QuestType) OneShot() bool {
	switch t {
	case QuestTodo, QuestReward:
		return true
	default:
		return false
	}
}

func ParseQuestType(input string) (QuestType, error) {
	t := QuestType(normalize(input))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid quest type: %q", input)
	}
	return t, nil
}

type Difficulty string

const (
	DifficultyTrivial Difficulty = "trivial"
	DifficultyEasy    Difficulty = "easy"
	DifficultyMedium  Difficulty = "medium"
	DifficultyHard    Difficulty = "hard"
)

// DefaultDifficulty is used by the quest form when nothing is picked.
const DefaultDifficulty = DifficultyMedium

func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyTrivial, DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

func ParseDifficulty(input string) (Difficulty, error) {
	d := Difficulty(normalize(input))
	if !d.IsValid() {
		return "", fmt.Errorf("invalid difficulty: %q", input)
	}
	return d, nil
}

// QuestRewards are frozen onto a quest when it is created or its difficulty changes.
type QuestRewards struct {
	XP          int
	Gold        int
	StaminaCost int
}

func (d Difficulty) Rewards() (QuestRewards, error) {
	switch d {
	case DifficultyTrivial:
		return QuestRewards{XP: 5, Gold: 1, StaminaCost: 5}, nil
	case DifficultyEasy:
		return QuestRewards{XP: 10, Gold: 2, StaminaCost: 10}, nil
	case DifficultyMedium:
		return QuestRewards{XP: 25, Gold: 5, StaminaCost: 20}, nil
	case DifficultyHard:
		return QuestRewards{XP: 50, Gold: 10, StaminaCost: 35}, nil
	default:
		return QuestRewards{}, fmt.Errorf("invalid difficulty: %q", d)
	}
}

type QuestStatus string

const (
	StatusActive    QuestStatus = "active"
	StatusCompleted QuestStatus = "completed"
	StatusArchived  QuestStatus = "archived"
)

func (s QuestStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusArchived:
		return true
	default:
		return false
	}
}

func ParseQuestStatus(input string) (QuestStatus, error) {
	s := QuestStatus(normalize(input))
	if !s.IsValid() {
		return "", fmt.Errorf("invalid quest status: %q", input)
	}
	return s, nil
}

// Class is the hero class. The zero value means no class has been picked.
type Class string

const (
	ClassNone    Class = ""
	ClassWarrior Class = "warrior"
	ClassMage    Class = "mage"
	ClassHealer  Class = "healer"
	ClassRogue   Class = "rogue"
)

func (c Class) IsValid() bool {
	switch c {
	case ClassWarrior, ClassMage, ClassHealer, ClassRogue:
		return true
	default:
		return false
	}
}

func ParseClass(input string) (Class, error) {
	c := Class(normalize(input))
	if !c.IsValid() {
		return "", fmt.Errorf("invalid class: %q", input)
	}
	return c, nil
}

type Stat string

const (
	StatStrength     Stat = "strength"
	StatIntelligence Stat = "intelligence"
	StatConstitution Stat = "constitution"
	StatPerception   Stat = "perception"
)

// StatFocus returns the primary and secondary stat a class grows on level up.
// ok is false when no class is set.
func (c Class) StatFocus() (primary, secondary Stat, ok bool) {
	switch c {
	case ClassWarrior:
		return StatStrength, StatConstitution, true
	case ClassMage:
		return StatIntelligence, StatPerception, true
	case ClassHealer:
		return StatConstitution, StatIntelligence, true
	case ClassRogue:
		return StatPerception, StatStrength, true
	default:
		return "", "", false
	}
}

type TriggerType string

const (
	TriggerQuestComplete TriggerType = "quest_complete"
	TriggerDailyComplete TriggerType = "daily_complete"
	TriggerHabitPositive TriggerType = "habit_positive"
	TriggerHabitNegative TriggerType = "habit_negative"
	TriggerManual        TriggerType = "manual"
)

func (t TriggerType) IsValid() bool {
	switch t {
	case TriggerQuestComplete, TriggerDailyComplete, TriggerHabitPositive, TriggerHabitNegative, TriggerManual:
		return true
	default:
		return false
	}
}

func ParseTriggerType(input string) (TriggerType, error) {
	t := TriggerType(strings.ReplaceAll(normalize(input), "-", "_"))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid trigger type: %q", input)
	}
	return t, nil
}

type RewardType string

const (
	RewardGold RewardType = "gold"
	RewardGems RewardType = "gems"
	RewardXP   RewardType = "xp"
	RewardItem RewardType = "item"
)

func (r RewardType) IsValid() bool {
	switch r {
	case RewardGold, RewardGems, RewardXP, RewardItem:
		return true
	default:
		return false
	}
}

func ParseRewardType(input string) (RewardType, error) {
	r := RewardType(normalize(input))
	if !r.IsValid() {
		return "", fmt.Errorf("invalid reward type: %q", input)
	}
	return r, nil
}

// RuleKind names which rule list a rule lives in. Both lists are evaluated the
// same way; the rule value carries its own sign.
type RuleKind string

const (
	RuleIncrement RuleKind = "increment"
	RuleDecrement RuleKind = "decrement"
)

func (k RuleKind) IsValid() bool {
	switch k {
	case RuleIncrement, RuleDecrement:
		return true
	default:
		return false
	}
}

type Visualization string

const (
	VisualBar     Visualization = "bar"
	VisualCircle  Visualization = "circle"
	VisualCrystal Visualization = "crystal"
)

func (v Visualization) IsValid() bool {
	switch v {
	case VisualBar, VisualCircle, VisualCrystal:
		return true
	default:
		return false
	}
}

func normalize(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
