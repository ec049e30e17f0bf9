package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"questlife/internal/game"
)

type QuestRepo struct {
	db *sql.DB
}

func NewQuestRepo(db *sql.DB) *QuestRepo {
	return &QuestRepo{db: db}
}

const questColumns = `id, title, description, type, category, difficulty,
	xp_reward, gold_reward, mana_reward, stamina_cost,
	status, deadline, completed_at, streak, is_positive, linked_bars,
	created_at, updated_at`

// ListQuests returns every quest with its completion dates, oldest first.
func (r *QuestRepo) ListQuests(ctx context.Context) ([]game.Quest, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+questColumns+` FROM quests ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("quest list: %w", err)
	}
	defer rows.Close()

	var out []game.Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("quest list rows: %w", err)
	}

	dates, err := r.completions(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].CompletedDates = dates[out[i].ID]
	}
	return out, nil
}

// GetQuest returns (nil, nil) when the quest does not exist.
func (r *QuestRepo) GetQuest(ctx context.Context, id string) (*game.Quest, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+questColumns+` FROM quests WHERE id = ?`, id)
	q, err := scanQuest(row)
	if err != nil || q == nil {
		return q, err
	}
	dates, err := r.completions(ctx, id)
	if err != nil {
		return nil, err
	}
	q.CompletedDates = dates[id]
	return q, nil
}

// PutQuest upserts the quest row and appends any completion dates not yet
// stored. Stored completions are never rewritten.
func (r *QuestRepo) PutQuest(ctx context.Context, q *game.Quest) error {
	linked, err := json.Marshal(q.LinkedProgressBars)
	if err != nil {
		return fmt.Errorf("marshal linked bars: %w", err)
	}
	var positive any
	if q.IsPositive != nil {
		positive = boolToInt(*q.IsPositive)
	}

	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO quests (`+questColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				description = excluded.description,
				type = excluded.type,
				category = excluded.category,
				difficulty = excluded.difficulty,
				xp_reward = excluded.xp_reward,
				gold_reward = excluded.gold_reward,
				mana_reward = excluded.mana_reward,
				stamina_cost = excluded.stamina_cost,
				status = excluded.status,
				deadline = excluded.deadline,
				completed_at = excluded.completed_at,
				streak = excluded.streak,
				is_positive = excluded.is_positive,
				linked_bars = excluded.linked_bars,
				updated_at = excluded.updated_at
		`,
			q.ID, q.Title, q.Description, string(q.Type), q.Category, string(q.Difficulty),
			q.XPReward, q.GoldReward, q.ManaReward, q.StaminaCost,
			string(q.Status), nullTime(q.Deadline), nullTime(q.CompletedAt), q.Streak, positive, string(linked),
			q.CreatedAt, q.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("quest put: %w", err)
		}
		for seq, at := range q.CompletedDates {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO quest_completions (quest_id, seq, completed_at)
				VALUES (?, ?, ?)
			`, q.ID, seq, at); err != nil {
				return fmt.Errorf("quest completion insert: %w", err)
			}
		}
		return nil
	})
}

// DeleteQuest removes the quest and, through the foreign key, its completions.
func (r *QuestRepo) DeleteQuest(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM quests WHERE id = ?`, id); err != nil {
		return fmt.Errorf("quest delete: %w", err)
	}
	return nil
}

// completions loads completion dates grouped by quest. An empty questID loads all.
func (r *QuestRepo) completions(ctx context.Context, questID string) (map[string][]time.Time, error) {
	query := `SELECT quest_id, completed_at FROM quest_completions`
	var args []any
	if questID != "" {
		query += ` WHERE quest_id = ?`
		args = append(args, questID)
	}
	query += ` ORDER BY quest_id, seq`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("completion list: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]time.Time)
	for rows.Next() {
		var (
			id string
			at time.Time
		)
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("completion scan: %w", err)
		}
		out[id] = append(out[id], at)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("completion rows: %w", err)
	}
	return out, nil
}

func scanQuest(row scanner) (*game.Quest, error) {
	var (
		q           game.Quest
		typ         string
		difficulty  string
		status      string
		deadline    sql.NullTime
		completedAt sql.NullTime
		positive    sql.NullInt64
		linked      sql.NullString
	)
	if err := row.Scan(
		&q.ID, &q.Title, &q.Description, &typ, &q.Category, &difficulty,
		&q.XPReward, &q.GoldReward, &q.ManaReward, &q.StaminaCost,
		&status, &deadline, &completedAt, &q.Streak, &positive, &linked,
		&q.CreatedAt, &q.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("quest scan: %w", err)
	}
	q.Type = game.QuestType(typ)
	q.Difficulty = game.Difficulty(difficulty)
	q.Status = game.QuestStatus(status)
	q.Deadline = timePtr(deadline)
	q.CompletedAt = timePtr(completedAt)
	if positive.Valid {
		v := positive.Int64 != 0
		q.IsPositive = &v
	}
	if linked.Valid && linked.String != "" && linked.String != "null" {
		if err := json.Unmarshal([]byte(linked.String), &q.LinkedProgressBars); err != nil {
			return nil, fmt.Errorf("unmarshal linked bars: %w", err)
		}
	}
	return &q, nil
}
