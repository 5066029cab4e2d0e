package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vcscsvcscs/stride/apps/backend/pkg/model"
	"go.uber.org/zap"
)

// StepRepository manages raw fitness data and the per-day step aggregates derived from it
type StepRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewStepRepository creates a new StepRepository
func NewStepRepository(db *pgxpool.Pool, logger *zap.Logger) *StepRepository {
	return &StepRepository{
		db:     db,
		logger: logger,
	}
}

// GetDailyGoal returns the user's daily step goal, or 0 when none has been set
func (r *StepRepository) GetDailyGoal(ctx context.Context, userID string) (int, error) {
	query := `SELECT daily_step_goal FROM user_goals WHERE user_id = $1`

	var goal int32
	err := r.db.QueryRow(ctx, query, userID).Scan(&goal)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		r.logger.Error("failed to get daily goal", zap.Error(err), zap.String("user_id", userID))
		return 0, fmt.Errorf("failed to get daily goal: %w", err)
	}

	return int(goal), nil
}

// SetDailyGoal creates or replaces the user's daily step goal
func (r *StepRepository) SetDailyGoal(ctx context.Context, userID string, goal int) error {
	query := `
		INSERT INTO user_goals (user_id, daily_step_goal, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET daily_step_goal = EXCLUDED.daily_step_goal, updated_at = NOW()
	`

	if _, err := r.db.Exec(ctx, query, userID, goal); err != nil {
		r.logger.Error("failed to set daily goal",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.Int("goal", goal),
		)
		return fmt.Errorf("failed to set daily goal: %w", err)
	}

	return nil
}

// GetAllDailySummaries aggregates the user's full step and distance history per calendar day, oldest first
func (r *StepRepository) GetAllDailySummaries(ctx context.Context, userID string) ([]model.DailyStepSummary, error) {
	query := `
		SELECT
			date,
			COALESCE(SUM(value) FILTER (WHERE data_type = 'steps'), 0)::BIGINT,
			COALESCE(SUM(value) FILTER (WHERE data_type = 'distance'), 0)::DOUBLE PRECISION
		FROM fitness_data
		WHERE user_id = $1 AND data_type IN ('steps', 'distance')
		GROUP BY date
		ORDER BY date ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("failed to get daily summaries", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to get daily summaries: %w", err)
	}
	defer rows.Close()

	var summaries []model.DailyStepSummary
	for rows.Next() {
		var (
			s     model.DailyStepSummary
			steps int64
		)
		if err := rows.Scan(&s.Date, &steps, &s.TotalDistanceMeters); err != nil {
			r.logger.Error("failed to scan daily summary", zap.Error(err))
			return nil, fmt.Errorf("failed to scan daily summary: %w", err)
		}
		s.TotalSteps = int(steps)
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating daily summaries", zap.Error(err))
		return nil, fmt.Errorf("error iterating daily summaries: %w", err)
	}

	return summaries, nil
}

// SaveFitnessData saves a fitness data point
func (r *StepRepository) SaveFitnessData(ctx context.Context, data *model.FitnessDataPoint) error {
	query := `
		INSERT INTO fitness_data (
			id, user_id, date, data_type, value,
			unit, source, source_data_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NOW())
	`

	_, err := r.db.Exec(ctx, query,
		data.ID,
		data.UserID,
		data.Date,
		data.DataType,
		data.Value,
		data.Unit,
		data.Source,
		data.SourceDataID,
	)

	if err != nil {
		r.logger.Error("failed to save fitness data",
			zap.Error(err),
			zap.String("user_id", data.UserID),
			zap.String("data_type", data.DataType),
		)
		return fmt.Errorf("failed to save fitness data: %w", err)
	}

	return nil
}

// FitnessDataExists checks if a fitness data point already exists by source_data_id
func (r *StepRepository) FitnessDataExists(ctx context.Context, sourceDataID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM fitness_data WHERE source_data_id = $1)`

	var exists bool
	err := r.db.QueryRow(ctx, query, sourceDataID).Scan(&exists)
	if err != nil {
		r.logger.Error("failed to check fitness data existence",
			zap.Error(err),
			zap.String("source_data_id", sourceDataID),
		)
		return false, fmt.Errorf("failed to check fitness data existence: %w", err)
	}

	return exists, nil
}
