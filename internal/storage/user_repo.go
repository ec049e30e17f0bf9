package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"questlife/internal/game"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetUser returns (nil, nil) when no row exists.
func (r *UserRepo) GetUser(ctx context.Context, id string) (*game.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, xp, level,
			hp, max_hp, mana, max_mana, gold, gems,
			stamina, max_stamina, wellness, max_wellness,
			class, class_unlocked_at,
			strength, intelligence, constitution, perception,
			current_streak, longest_streak, total_quests, completed_quests,
			equipped, created_at, updated_at
		FROM users
		WHERE id = ?
	`, id)

	var (
		u             game.User
		class         string
		classUnlocked sql.NullTime
		equipped      sql.NullString
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Description, &u.XP, &u.Level,
		&u.HP, &u.MaxHP, &u.Mana, &u.MaxMana, &u.Gold, &u.Gems,
		&u.Stamina, &u.MaxStamina, &u.Wellness, &u.MaxWellness,
		&class, &classUnlocked,
		&u.Stats.Strength, &u.Stats.Intelligence, &u.Stats.Constitution, &u.Stats.Perception,
		&u.CurrentStreak, &u.LongestStreak, &u.TotalQuests, &u.CompletedQuests,
		&equipped, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("user get: %w", err)
	}
	u.Class = game.Class(class)
	u.ClassUnlockedAt = timePtr(classUnlocked)
	if equipped.Valid && equipped.String != "" {
		if err := json.Unmarshal([]byte(equipped.String), &u.Equipped); err != nil {
			return nil, fmt.Errorf("unmarshal equipped: %w", err)
		}
	}
	return &u, nil
}

// PutUser inserts or replaces the user row.
func (r *UserRepo) PutUser(ctx context.Context, u *game.User) error {
	equipped, err := json.Marshal(u.Equipped)
	if err != nil {
		return fmt.Errorf("marshal equipped: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, name, description, xp, level,
			hp, max_hp, mana, max_mana, gold, gems,
			stamina, max_stamina, wellness, max_wellness,
			class, class_unlocked_at,
			strength, intelligence, constitution, perception,
			current_streak, longest_streak, total_quests, completed_quests,
			equipped, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			xp = excluded.xp,
			level = excluded.level,
			hp = excluded.hp,
			max_hp = excluded.max_hp,
			mana = excluded.mana,
			max_mana = excluded.max_mana,
			gold = excluded.gold,
			gems = excluded.gems,
			stamina = excluded.stamina,
			max_stamina = excluded.max_stamina,
			wellness = excluded.wellness,
			max_wellness = excluded.max_wellness,
			class = excluded.class,
			class_unlocked_at = excluded.class_unlocked_at,
			strength = excluded.strength,
			intelligence = excluded.intelligence,
			constitution = excluded.constitution,
			perception = excluded.perception,
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			total_quests = excluded.total_quests,
			completed_quests = excluded.completed_quests,
			equipped = excluded.equipped,
			updated_at = excluded.updated_at
	`,
		u.ID, u.Name, u.Description, u.XP, u.Level,
		u.HP, u.MaxHP, u.Mana, u.MaxMana, u.Gold, u.Gems,
		u.Stamina, u.MaxStamina, u.Wellness, u.MaxWellness,
		string(u.Class), nullTime(u.ClassUnlockedAt),
		u.Stats.Strength, u.Stats.Intelligence, u.Stats.Constitution, u.Stats.Perception,
		u.CurrentStreak, u.LongestStreak, u.TotalQuests, u.CompletedQuests,
		string(equipped), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("user put: %w", err)
	}
	return nil
}
