package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the schema. It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			xp INTEGER NOT NULL DEFAULT 0,
			level INTEGER NOT NULL DEFAULT 1,
			hp INTEGER NOT NULL,
			max_hp INTEGER NOT NULL,
			mana INTEGER NOT NULL,
			max_mana INTEGER NOT NULL,
			gold INTEGER NOT NULL DEFAULT 0,
			gems INTEGER NOT NULL DEFAULT 0,
			stamina INTEGER NOT NULL,
			max_stamina INTEGER NOT NULL,
			wellness INTEGER NOT NULL,
			max_wellness INTEGER NOT NULL,
			class TEXT NOT NULL DEFAULT '',
			class_unlocked_at DATETIME,
			strength INTEGER NOT NULL DEFAULT 0,
			intelligence INTEGER NOT NULL DEFAULT 0,
			constitution INTEGER NOT NULL DEFAULT 0,
			perception INTEGER NOT NULL DEFAULT 0,
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			total_quests INTEGER NOT NULL DEFAULT 0,
			completed_quests INTEGER NOT NULL DEFAULT 0,
			equipped TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS quests (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			difficulty TEXT NOT NULL,
			xp_reward INTEGER NOT NULL,
			gold_reward INTEGER NOT NULL,
			mana_reward INTEGER NOT NULL DEFAULT 0,
			stamina_cost INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			deadline DATETIME,
			completed_at DATETIME,
			streak INTEGER NOT NULL DEFAULT 0,
			is_positive INTEGER,
			linked_bars TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		// Append-only log behind Quest.CompletedDates; seq is the slice index.
		`CREATE TABLE IF NOT EXISTS quest_completions (
			quest_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			completed_at DATETIME NOT NULL,
			PRIMARY KEY (quest_id, seq),
			FOREIGN KEY (quest_id) REFERENCES quests(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS progress_bars (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			icon TEXT NOT NULL DEFAULT '',
			color TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			current_value REAL NOT NULL DEFAULT 0,
			target_value REAL NOT NULL,
			visualization TEXT NOT NULL DEFAULT 'bar',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS progress_rules (
			id TEXT NOT NULL,
			bar_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			position INTEGER NOT NULL,
			trigger_type TEXT NOT NULL,
			trigger_quest_id TEXT NOT NULL DEFAULT '',
			value REAL NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (bar_id, id),
			FOREIGN KEY (bar_id) REFERENCES progress_bars(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS progress_milestones (
			id TEXT NOT NULL,
			bar_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			value REAL NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			reward_type TEXT,
			reward_amount INTEGER,
			reward_item_id TEXT,
			achieved INTEGER NOT NULL DEFAULT 0,
			achieved_at DATETIME,
			PRIMARY KEY (bar_id, id),
			FOREIGN KEY (bar_id) REFERENCES progress_bars(id) ON DELETE CASCADE
		);`,
		// History rows are only ever inserted; seq is the slice index.
		`CREATE TABLE IF NOT EXISTS progress_history (
			id TEXT NOT NULL,
			bar_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			date DATETIME NOT NULL,
			previous_value REAL NOT NULL,
			new_value REAL NOT NULL,
			change REAL NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			trigger_type TEXT NOT NULL,
			PRIMARY KEY (bar_id, seq),
			FOREIGN KEY (bar_id) REFERENCES progress_bars(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_quests_status ON quests(status);`,
		`CREATE INDEX IF NOT EXISTS idx_progress_rules_bar ON progress_rules(bar_id, kind, position);`,
		`CREATE INDEX IF NOT EXISTS idx_progress_milestones_bar ON progress_milestones(bar_id, position);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
