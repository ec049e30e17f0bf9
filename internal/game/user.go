package game

import "time"

// DefaultUserID is the key of the single user record.
const DefaultUserID = "default"

type Stats struct {
	Strength     int `json:"strength"`
	Intelligence int `json:"intelligence"`
	Constitution int `json:"constitution"`
	Perception   int `json:"perception"`
}

func (s *Stats) Add(stat Stat, n int) {
	switch stat {
	case StatStrength:
		s.Strength += n
	case StatIntelligence:
		s.Intelligence += n
	case StatConstitution:
		s.Constitution += n
	case StatPerception:
		s.Perception += n
	}
}

func (s Stats) Plus(o Stats) Stats {
	return Stats{
		Strength:     s.Strength + o.Strength,
		Intelligence: s.Intelligence + o.Intelligence,
		Constitution: s.Constitution + o.Constitution,
		Perception:   s.Perception + o.Perception,
	}
}

// EquippedItems maps gear slots to item ids. The core stores it but never changes it.
type EquippedItems struct {
	Weapon    string `json:"weapon,omitempty"`
	Armor     string `json:"armor,omitempty"`
	Accessory string `json:"accessory,omitempty"`
	Pet       string `json:"pet,omitempty"`
	Mount     string `json:"mount,omitempty"`
}

type User struct {
	ID          string
	Name        string
	Description string

	XP    int
	Level int

	HP          int
	MaxHP       int
	Mana        int
	MaxMana     int
	Gold        int
	Gems        int
	Stamina     int
	MaxStamina  int
	Wellness    int
	MaxWellness int

	Class           Class
	ClassUnlockedAt *time.Time
	Stats           Stats

	CurrentStreak   int
	LongestStreak   int
	TotalQuests     int
	CompletedQuests int

	Equipped EquippedItems

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser returns the hero created on first launch.
func NewUser(now time.Time) User {
	return User{
		ID:          DefaultUserID,
		Name:        "Adventurer",
		Description: "Ready to embark on life quests!",
		XP:          0,
		Level:       1,
		HP:          50,
		MaxHP:       50,
		Mana:        0,
		MaxMana:     0,
		Stamina:     100,
		MaxStamina:  100,
		Wellness:    100,
		MaxWellness: 100,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Clone returns a deep copy.
func (u User) Clone() User {
	if u.ClassUnlockedAt != nil {
		t := *u.ClassUnlockedAt
		u.ClassUnlockedAt = &t
	}
	return u
}
