package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// schema is applied in order; every statement is idempotent
var schema = []string{
	`CREATE TABLE IF NOT EXISTS user_goals (
		user_id TEXT PRIMARY KEY,
		daily_step_goal INTEGER NOT NULL CHECK (daily_step_goal > 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS fitness_data (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		date DATE NOT NULL,
		data_type VARCHAR(50) NOT NULL,
		value DOUBLE PRECISION NOT NULL CHECK (value >= 0),
		unit VARCHAR(20) NOT NULL DEFAULT '',
		source VARCHAR(50) NOT NULL DEFAULT '',
		source_data_id TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS fitness_data_source_data_id_idx
		ON fitness_data (source_data_id) WHERE source_data_id IS NOT NULL AND source_data_id <> ''`,
	`CREATE INDEX IF NOT EXISTS fitness_data_user_date_idx ON fitness_data (user_id, date)`,
	`CREATE TABLE IF NOT EXISTS friendships (
		user_id TEXT NOT NULL,
		friend_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, friend_id),
		CHECK (user_id <> friend_id)
	)`,
	`CREATE TABLE IF NOT EXISTS group_memberships (
		user_id TEXT NOT NULL,
		group_id TEXT NOT NULL,
		joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, group_id)
	)`,
	`CREATE TABLE IF NOT EXISTS user_achievements (
		user_id TEXT NOT NULL,
		milestone_id TEXT NOT NULL,
		achieved_at TIMESTAMPTZ NOT NULL,
		achievement_count INTEGER NOT NULL CHECK (achievement_count >= 1),
		PRIMARY KEY (user_id, milestone_id)
	)`,
	`CREATE TABLE IF NOT EXISTS analytics_events (
		id UUID PRIMARY KEY,
		user_id TEXT,
		event_name TEXT NOT NULL,
		properties JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the tables this service owns
func Migrate(ctx context.Context, db *pgxpool.Pool, logger *zap.Logger) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			logger.Error("migration failed", zap.Error(err), zap.Int("step", i))
			return fmt.Errorf("failed to apply migration %d: %w", i, err)
		}
	}

	logger.Info("database schema is up to date", zap.Int("statements", len(schema)))
	return nil
}
