package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vcscsvcscs/stride/apps/backend/pkg/model"
	"go.uber.org/zap"
)

// AchievementRepository stores milestone achievements in Postgres.
// RecordAchievement is a single upsert, so concurrent callers across
// processes never lose an increment.
type AchievementRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewAchievementRepository creates a new AchievementRepository
func NewAchievementRepository(db *pgxpool.Pool, logger *zap.Logger) *AchievementRepository {
	return &AchievementRepository{
		db:     db,
		logger: logger,
	}
}

// Load returns the stored achievement, or nil when the milestone was never reached
func (r *AchievementRepository) Load(ctx context.Context, userID, milestoneID string) (*model.StoredAchievement, error) {
	query := `
		SELECT user_id, milestone_id, achieved_at, achievement_count
		FROM user_achievements
		WHERE user_id = $1 AND milestone_id = $2
	`

	a, err := scanAchievement(r.db.QueryRow(ctx, query, userID, milestoneID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to load achievement",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("milestone_id", milestoneID),
		)
		return nil, fmt.Errorf("failed to load achievement: %w", err)
	}

	return a, nil
}

// Save writes or overwrites the achievement record
func (r *AchievementRepository) Save(ctx context.Context, a *model.StoredAchievement) error {
	query := `
		INSERT INTO user_achievements (user_id, milestone_id, achieved_at, achievement_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, milestone_id) DO UPDATE
		SET achieved_at = EXCLUDED.achieved_at, achievement_count = EXCLUDED.achievement_count
	`

	if _, err := r.db.Exec(ctx, query, a.UserID, a.MilestoneID, a.AchievedAt, a.AchievementCount); err != nil {
		r.logger.Error("failed to save achievement",
			zap.Error(err),
			zap.String("user_id", a.UserID),
			zap.String("milestone_id", a.MilestoneID),
		)
		return fmt.Errorf("failed to save achievement: %w", err)
	}

	return nil
}

// RecordAchievement creates the record at count 1, or increments it when repeatable.
// A non-repeatable milestone that already exists is left untouched and fired is false.
func (r *AchievementRepository) RecordAchievement(ctx context.Context, userID, milestoneID string, repeatable bool, at time.Time) (*model.StoredAchievement, bool, error) {
	query := `
		INSERT INTO user_achievements (user_id, milestone_id, achieved_at, achievement_count)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (user_id, milestone_id) DO UPDATE
		SET achievement_count = user_achievements.achievement_count + 1,
			achieved_at = EXCLUDED.achieved_at
		WHERE $4::BOOLEAN
		RETURNING user_id, milestone_id, achieved_at, achievement_count
	`

	a, err := scanAchievement(r.db.QueryRow(ctx, query, userID, milestoneID, at, repeatable))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		r.logger.Error("failed to record achievement",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("milestone_id", milestoneID),
		)
		return nil, false, fmt.Errorf("failed to record achievement: %w", err)
	}

	return a, true, nil
}

// List returns the user's achievements, oldest first
func (r *AchievementRepository) List(ctx context.Context, userID string) ([]model.StoredAchievement, error) {
	query := `
		SELECT user_id, milestone_id, achieved_at, achievement_count
		FROM user_achievements
		WHERE user_id = $1
		ORDER BY achieved_at ASC, milestone_id ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("failed to list achievements", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	var list []model.StoredAchievement
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			r.logger.Error("failed to scan achievement", zap.Error(err))
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		list = append(list, *a)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating achievements", zap.Error(err))
		return nil, fmt.Errorf("error iterating achievements: %w", err)
	}

	return list, nil
}

// Delete removes the achievement record
func (r *AchievementRepository) Delete(ctx context.Context, userID, milestoneID string) error {
	query := `DELETE FROM user_achievements WHERE user_id = $1 AND milestone_id = $2`

	if _, err := r.db.Exec(ctx, query, userID, milestoneID); err != nil {
		r.logger.Error("failed to delete achievement",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("milestone_id", milestoneID),
		)
		return fmt.Errorf("failed to delete achievement: %w", err)
	}

	return nil
}

func scanAchievement(row pgx.Row) (*model.StoredAchievement, error) {
	var (
		a     model.StoredAchievement
		count int32
	)
	if err := row.Scan(&a.UserID, &a.MilestoneID, &a.AchievedAt, &count); err != nil {
		return nil, err
	}
	a.AchievementCount = int(count)
	a.AchievedAt = a.AchievedAt.UTC()
	return &a, nil
}
