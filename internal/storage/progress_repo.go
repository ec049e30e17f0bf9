package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"questlife/internal/game"
)

type ProgressRepo struct {
	db *sql.DB
}

func NewProgressRepo(db *sql.DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

const barColumns = `id, name, description, icon, color, category,
	current_value, target_value, visualization, created_at, updated_at`

// ListProgressBars loads every bar with its rules, milestones and history.
func (r *ProgressRepo) ListProgressBars(ctx context.Context) ([]game.ProgressBar, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+barColumns+` FROM progress_bars ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("progress list: %w", err)
	}
	defer rows.Close()

	var out []game.ProgressBar
	for rows.Next() {
		b, err := scanBar(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("progress list rows: %w", err)
	}

	for i := range out {
		if err := r.loadChildren(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetProgressBar returns (nil, nil) when the bar does not exist.
func (r *ProgressRepo) GetProgressBar(ctx context.Context, id string) (*game.ProgressBar, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+barColumns+` FROM progress_bars WHERE id = ?`, id)
	b, err := scanBar(row)
	if err != nil || b == nil {
		return b, err
	}
	if err := r.loadChildren(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// PutProgressBar writes the bar, replaces its rules and milestones, and appends
// history entries that are not stored yet.
func (r *ProgressRepo) PutProgressBar(ctx context.Context, b *game.ProgressBar) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO progress_bars (`+barColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				description = excluded.description,
				icon = excluded.icon,
				color = excluded.color,
				category = excluded.category,
				current_value = excluded.current_value,
				target_value = excluded.target_value,
				visualization = excluded.visualization,
				updated_at = excluded.updated_at
		`,
			b.ID, b.Name, b.Description, b.Icon, b.Color, b.Category,
			b.CurrentValue, b.TargetValue, string(b.Visualization), b.CreatedAt, b.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("progress put: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM progress_rules WHERE bar_id = ?`, b.ID); err != nil {
			return fmt.Errorf("progress rules clear: %w", err)
		}
		if err := insertRules(ctx, tx, b.ID, game.RuleIncrement, b.Rules.Increment); err != nil {
			return err
		}
		if err := insertRules(ctx, tx, b.ID, game.RuleDecrement, b.Rules.Decrement); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM progress_milestones WHERE bar_id = ?`, b.ID); err != nil {
			return fmt.Errorf("progress milestones clear: %w", err)
		}
		for pos, m := range b.Milestones {
			var rType, rItem any
			var rAmount any
			if m.Reward != nil {
				rType, rAmount, rItem = string(m.Reward.Type), m.Reward.Amount, m.Reward.ItemID
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO progress_milestones (
					id, bar_id, position, value, title, description,
					reward_type, reward_amount, reward_item_id, achieved, achieved_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, m.ID, b.ID, pos, m.Value, m.Title, m.Description,
				rType, rAmount, rItem, boolToInt(m.Achieved), nullTime(m.AchievedAt)); err != nil {
				return fmt.Errorf("progress milestone insert: %w", err)
			}
		}

		for seq, h := range b.History {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO progress_history (
					id, bar_id, seq, date, previous_value, new_value, change, reason, trigger_type
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, h.ID, b.ID, seq, h.Date, h.PreviousValue, h.NewValue, h.Change, h.Reason, string(h.TriggerType)); err != nil {
				return fmt.Errorf("progress history insert: %w", err)
			}
		}
		return nil
	})
}

// DeleteProgressBar removes the bar. Rules, milestones and history go with it.
func (r *ProgressRepo) DeleteProgressBar(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM progress_bars WHERE id = ?`, id); err != nil {
		return fmt.Errorf("progress delete: %w", err)
	}
	return nil
}

func insertRules(ctx context.Context, tx *sql.Tx, barID string, kind game.RuleKind, rules []game.Rule) error {
	for pos, rule := range rules {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO progress_rules (
				id, bar_id, kind, position, trigger_type, trigger_quest_id, value, description
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, rule.ID, barID, string(kind), pos, string(rule.TriggerType), rule.TriggerTaskID, rule.Value, rule.Description); err != nil {
			return fmt.Errorf("progress rule insert: %w", err)
		}
	}
	return nil
}

func (r *ProgressRepo) loadChildren(ctx context.Context, b *game.ProgressBar) error {
	if err := r.loadRules(ctx, b); err != nil {
		return err
	}
	if err := r.loadMilestones(ctx, b); err != nil {
		return err
	}
	return r.loadHistory(ctx, b)
}

func (r *ProgressRepo) loadRules(ctx context.Context, b *game.ProgressBar) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, trigger_type, trigger_quest_id, value, description
		FROM progress_rules
		WHERE bar_id = ?
		ORDER BY kind, position
	`, b.ID)
	if err != nil {
		return fmt.Errorf("progress rules list: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rule    game.Rule
			kind    string
			trigger string
		)
		if err := rows.Scan(&rule.ID, &kind, &trigger, &rule.TriggerTaskID, &rule.Value, &rule.Description); err != nil {
			return fmt.Errorf("progress rule scan: %w", err)
		}
		rule.TriggerType = game.TriggerType(trigger)
		switch game.RuleKind(kind) {
		case game.RuleIncrement:
			b.Rules.Increment = append(b.Rules.Increment, rule)
		case game.RuleDecrement:
			b.Rules.Decrement = append(b.Rules.Decrement, rule)
		default:
			return fmt.Errorf("progress rule %s: unknown kind %q", rule.ID, kind)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("progress rules rows: %w", err)
	}
	return nil
}

func (r *ProgressRepo) loadMilestones(ctx context.Context, b *game.ProgressBar) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, value, title, description, reward_type, reward_amount, reward_item_id, achieved, achieved_at
		FROM progress_milestones
		WHERE bar_id = ?
		ORDER BY position
	`, b.ID)
	if err != nil {
		return fmt.Errorf("progress milestones list: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m          game.Milestone
			rType      sql.NullString
			rAmount    sql.NullInt64
			rItem      sql.NullString
			achieved   int
			achievedAt sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.Value, &m.Title, &m.Description, &rType, &rAmount, &rItem, &achieved, &achievedAt); err != nil {
			return fmt.Errorf("progress milestone scan: %w", err)
		}
		if rType.Valid {
			m.Reward = &game.Reward{
				Type:   game.RewardType(rType.String),
				Amount: int(rAmount.Int64),
				ItemID: rItem.String,
			}
		}
		m.Achieved = achieved != 0
		m.AchievedAt = timePtr(achievedAt)
		b.Milestones = append(b.Milestones, m)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("progress milestones rows: %w", err)
	}
	return nil
}

func (r *ProgressRepo) loadHistory(ctx context.Context, b *game.ProgressBar) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, previous_value, new_value, change, reason, trigger_type
		FROM progress_history
		WHERE bar_id = ?
		ORDER BY seq
	`, b.ID)
	if err != nil {
		return fmt.Errorf("progress history list: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			h       game.HistoryEntry
			trigger string
		)
		if err := rows.Scan(&h.ID, &h.Date, &h.PreviousValue, &h.NewValue, &h.Change, &h.Reason, &trigger); err != nil {
			return fmt.Errorf("progress history scan: %w", err)
		}
		h.TriggerType = game.TriggerType(trigger)
		b.History = append(b.History, h)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("progress history rows: %w", err)
	}
	return nil
}

func scanBar(row scanner) (*game.ProgressBar, error) {
	var (
		b   game.ProgressBar
		vis string
	)
	if err := row.Scan(
		&b.ID, &b.Name, &b.Description, &b.Icon, &b.Color, &b.Category,
		&b.CurrentValue, &b.TargetValue, &vis, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("progress bar scan: %w", err)
	}
	b.Visualization = game.Visualization(vis)
	return &b, nil
}
