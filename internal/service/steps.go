package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vcscsvcscs/stride/apps/backend/internal/analytics"
	"github.com/vcscsvcscs/stride/apps/backend/internal/apperror"
	"github.com/vcscsvcscs/stride/apps/backend/internal/milestone"
	"github.com/vcscsvcscs/stride/apps/backend/pkg/model"
	"go.uber.org/zap"
)

// MaxDailyGoal is the largest daily step goal a user may set
const MaxDailyGoal = 100000

var validDataTypes = map[string]bool{
	"steps":          true,
	"distance":       true,
	"calories":       true,
	"active_minutes": true,
	"heart_rate":     true,
	"sleep":          true,
}

// SyncResult summarises one step sync
type SyncResult struct {
	Synced     int                           `json:"synced"`
	Duplicates int                           `json:"duplicates"`
	Rejected   int                           `json:"rejected"`
	Stats      model.StepStats               `json:"stats"`
	Milestones []milestone.AchievedMilestone `json:"milestones"`
}

// GoalResult is returned after the daily goal changes
type GoalResult struct {
	Stats      model.StepStats               `json:"stats"`
	Milestones []milestone.AchievedMilestone `json:"milestones"`
}

// StepService handles step sync, step stats and daily goals
type StepService struct {
	repo    StepRepositoryInterface
	metrics *MetricSource
	engine  MilestoneEvaluator
	tracker EventTracker
	now     func() time.Time
	logger  *zap.Logger
}

// NewStepService creates a new StepService
func NewStepService(repo StepRepositoryInterface, metrics *MetricSource, engine MilestoneEvaluator, tracker EventTracker, logger *zap.Logger) *StepService {
	return &StepService{
		repo:    repo,
		metrics: metrics,
		engine:  engine,
		tracker: tracker,
		now:     time.Now,
		logger:  logger,
	}
}

// SyncSteps stores new fitness data points, skipping duplicates by source_data_id,
// and evaluates milestones against the metrics before and after the sync.
func (s *StepService) SyncSteps(ctx context.Context, userID string, points []model.FitnessDataPoint) (*SyncResult, error) {
	if userID == "" {
		return nil, apperror.InvalidArgument("user ID is required")
	}

	unlock := s.metrics.Lock(userID)
	defer unlock()

	today := s.now().UTC()

	prev, err := s.metrics.Snapshot(ctx, userID, today)
	if err != nil {
		return nil, apperror.Storage("failed to load metrics", err)
	}

	result := &SyncResult{Milestones: []milestone.AchievedMilestone{}}

	for _, point := range points {
		if !validDataTypes[point.DataType] || point.Value < 0 || point.Date.IsZero() {
			s.logger.Warn("rejecting fitness data point",
				zap.String("user_id", userID),
				zap.String("data_type", point.DataType),
				zap.Float64("value", point.Value),
			)
			result.Rejected++
			continue
		}

		if point.SourceDataID != "" {
			exists, err := s.repo.FitnessDataExists(ctx, point.SourceDataID)
			if err != nil {
				s.logger.Error("failed to check fitness data existence",
					zap.Error(err),
					zap.String("source_data_id", point.SourceDataID),
				)
				return nil, apperror.Storage("failed to check fitness data existence", err)
			}
			if exists {
				s.logger.Debug("fitness data already synced, skipping",
					zap.String("source_data_id", point.SourceDataID),
				)
				result.Duplicates++
				continue
			}
		}

		if point.ID == "" {
			point.ID = uuid.New().String()
		}
		point.UserID = userID
		point.Date = time.Date(point.Date.Year(), point.Date.Month(), point.Date.Day(), 0, 0, 0, 0, time.UTC)
		point.CreatedAt = s.now()

		if err := s.repo.SaveFitnessData(ctx, &point); err != nil {
			s.logger.Error("failed to save fitness data",
				zap.Error(err),
				zap.String("user_id", userID),
				zap.String("data_type", point.DataType),
				zap.Int("synced_before_failure", result.Synced),
			)
			if result.Synced > 0 {
				// points saved so far stay committed, so their crossings are recorded now
				if _, evalErr := s.evaluateSync(ctx, userID, today, prev, result); evalErr != nil {
					s.logger.Error("failed to evaluate partial sync", zap.Error(evalErr), zap.String("user_id", userID))
				}
			}
			return nil, apperror.Storage("failed to save fitness data", err)
		}
		result.Synced++
	}

	s.logger.Info("fitness data synced",
		zap.String("user_id", userID),
		zap.Int("synced_count", result.Synced),
		zap.Int("duplicate_count", result.Duplicates),
		zap.Int("rejected_count", result.Rejected),
	)

	if result.Synced == 0 {
		result.Stats = prev.Stats
		return result, nil
	}

	return s.evaluateSync(ctx, userID, today, prev, result)
}

// evaluateSync reloads step metrics after result.Synced points were stored and
// evaluates milestones against prev
func (s *StepService) evaluateSync(ctx context.Context, userID string, today time.Time, prev *Snapshot, result *SyncResult) (*SyncResult, error) {
	cur, err := s.metrics.WithSteps(ctx, prev, userID, today)
	if err != nil {
		return nil, apperror.Storage("failed to reload metrics", err)
	}
	result.Stats = cur.Stats
	result.Milestones = evaluate(ctx, s.engine, s.logger, userID, prev, cur)

	track(ctx, s.tracker, s.logger, userID, analytics.EventStepsSynced, map[string]any{
		"synced":      result.Synced,
		"today_steps": cur.Stats.TodaySteps,
	})

	return result, nil
}

// GetStats computes the user's step statistics as of today
func (s *StepService) GetStats(ctx context.Context, userID string) (*model.StepStats, error) {
	if userID == "" {
		return nil, apperror.InvalidArgument("user ID is required")
	}

	st, err := s.metrics.Stats(ctx, userID, s.now().UTC())
	if err != nil {
		return nil, apperror.Storage("failed to compute step stats", err)
	}

	s.logger.Debug("step stats computed",
		zap.String("user_id", userID),
		zap.Int("current_streak", st.CurrentStreak),
		zap.Int("longest_streak", st.LongestStreak),
	)

	return &st, nil
}

// SetDailyGoal changes the user's goal. Streaks are recomputed against the new goal
// and milestones are evaluated for the change.
func (s *StepService) SetDailyGoal(ctx context.Context, userID string, goal int) (*GoalResult, error) {
	if userID == "" {
		return nil, apperror.InvalidArgument("user ID is required")
	}
	if goal < 1 || goal > MaxDailyGoal {
		return nil, apperror.InvalidArgumentf("daily goal must be between 1 and %d", MaxDailyGoal)
	}

	unlock := s.metrics.Lock(userID)
	defer unlock()

	today := s.now().UTC()

	prev, err := s.metrics.Snapshot(ctx, userID, today)
	if err != nil {
		return nil, apperror.Storage("failed to load metrics", err)
	}

	if err := s.repo.SetDailyGoal(ctx, userID, goal); err != nil {
		return nil, apperror.Storage("failed to set daily goal", err)
	}

	cur, err := s.metrics.WithSteps(ctx, prev, userID, today)
	if err != nil {
		return nil, apperror.Storage("failed to reload metrics", err)
	}

	s.logger.Info("daily goal updated",
		zap.String("user_id", userID),
		zap.Int("previous_goal", prev.Stats.DailyGoal),
		zap.Int("goal", goal),
	)

	track(ctx, s.tracker, s.logger, userID, analytics.EventGoalUpdated, map[string]any{
		"previous_goal": prev.Stats.DailyGoal,
		"goal":          goal,
	})

	return &GoalResult{
		Stats:      cur.Stats,
		Milestones: evaluate(ctx, s.engine, s.logger, userID, prev, cur),
	}, nil
}
