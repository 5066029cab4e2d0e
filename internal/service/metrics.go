package service

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/vcscsvcscs/stride/apps/backend/internal/milestone"
	"github.com/vcscsvcscs/stride/apps/backend/internal/stats"
	"github.com/vcscsvcscs/stride/apps/backend/pkg/model"
	"go.uber.org/zap"
)

// StepRepositoryInterface defines the interface for step data access
type StepRepositoryInterface interface {
	GetDailyGoal(ctx context.Context, userID string) (int, error)
	SetDailyGoal(ctx context.Context, userID string, goal int) error
	GetAllDailySummaries(ctx context.Context, userID string) ([]model.DailyStepSummary, error)
	SaveFitnessData(ctx context.Context, data *model.FitnessDataPoint) error
	FitnessDataExists(ctx context.Context, sourceDataID string) (bool, error)
}

// SocialRepositoryInterface defines the interface for friendship and group data access
type SocialRepositoryInterface interface {
	AddFriendship(ctx context.Context, userID, friendID string) (bool, error)
	AddGroupMembership(ctx context.Context, userID, groupID string) (bool, error)
	GetFriendCount(ctx context.Context, userID string) (int, error)
	GetGroupCount(ctx context.Context, userID string) (int, error)
}

// MilestoneEvaluator is the part of the milestone engine that metric-changing operations call
type MilestoneEvaluator interface {
	Evaluate(ctx context.Context, mctx milestone.MetricContext) ([]milestone.AchievedMilestone, error)
}

// EventTracker receives product analytics events
type EventTracker interface {
	Track(ctx context.Context, userID, event string, properties map[string]any) error
}

// Snapshot is the full set of tracked metrics for one user at one moment
type Snapshot struct {
	Metrics map[string]float64
	Stats   model.StepStats
}

// MetricSource builds metric snapshots from the step and social repositories.
// Operations that change a metric hold Lock for the user from the first
// snapshot to the end of evaluation so concurrent writers see each other's commits.
type MetricSource struct {
	steps  StepRepositoryInterface
	social SocialRepositoryInterface
	calc   *stats.Calculator
	locks  *milestone.UserLocks
	logger *zap.Logger
}

// NewMetricSource creates a new MetricSource
func NewMetricSource(steps StepRepositoryInterface, social SocialRepositoryInterface, calc *stats.Calculator, logger *zap.Logger) *MetricSource {
	return &MetricSource{
		steps:  steps,
		social: social,
		calc:   calc,
		locks:  milestone.NewUserLocks(),
		logger: logger,
	}
}

// Lock serialises metric-changing operations for the given users within this process
func (m *MetricSource) Lock(userIDs ...string) func() {
	return m.locks.Lock(userIDs...)
}

// Snapshot loads the goal, the full daily history and the social counts for userID
func (m *MetricSource) Snapshot(ctx context.Context, userID string, today time.Time) (*Snapshot, error) {
	st, err := m.Stats(ctx, userID, today)
	if err != nil {
		return nil, err
	}

	metrics := stepMetrics(st)
	if err := m.addSocialMetrics(ctx, userID, metrics); err != nil {
		return nil, err
	}

	return &Snapshot{Metrics: metrics, Stats: st}, nil
}

// Stats computes StepStats for userID as of today
func (m *MetricSource) Stats(ctx context.Context, userID string, today time.Time) (model.StepStats, error) {
	goal, err := m.steps.GetDailyGoal(ctx, userID)
	if err != nil {
		m.logger.Error("failed to get daily goal", zap.Error(err), zap.String("user_id", userID))
		return model.StepStats{}, fmt.Errorf("failed to get daily goal: %w", err)
	}

	summaries, err := m.steps.GetAllDailySummaries(ctx, userID)
	if err != nil {
		m.logger.Error("failed to get daily summaries", zap.Error(err), zap.String("user_id", userID))
		return model.StepStats{}, fmt.Errorf("failed to get daily summaries: %w", err)
	}

	return m.calc.Compute(summaries, goal, today), nil
}

// WithSteps returns a copy of s whose step metrics are recomputed as of today. Social counts are kept.
func (m *MetricSource) WithSteps(ctx context.Context, s *Snapshot, userID string, today time.Time) (*Snapshot, error) {
	st, err := m.Stats(ctx, userID, today)
	if err != nil {
		return nil, err
	}

	metrics := maps.Clone(s.Metrics)
	maps.Copy(metrics, stepMetrics(st))
	return &Snapshot{Metrics: metrics, Stats: st}, nil
}

// WithSocial returns a copy of s whose social counts are reloaded. Step metrics are kept.
func (m *MetricSource) WithSocial(ctx context.Context, s *Snapshot, userID string) (*Snapshot, error) {
	metrics := maps.Clone(s.Metrics)
	if err := m.addSocialMetrics(ctx, userID, metrics); err != nil {
		return nil, err
	}
	return &Snapshot{Metrics: metrics, Stats: s.Stats}, nil
}

func (m *MetricSource) addSocialMetrics(ctx context.Context, userID string, metrics map[string]float64) error {
	friends, err := m.social.GetFriendCount(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get friend count: %w", err)
	}
	groups, err := m.social.GetGroupCount(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get group count: %w", err)
	}

	metrics[milestone.MetricFriendCount] = float64(friends)
	metrics[milestone.MetricGroupCount] = float64(groups)
	return nil
}

func stepMetrics(st model.StepStats) map[string]float64 {
	return map[string]float64{
		milestone.MetricTodaySteps:    float64(st.TodaySteps),
		milestone.MetricWeekSteps:     float64(st.WeekSteps),
		milestone.MetricMonthSteps:    float64(st.MonthSteps),
		milestone.MetricTotalSteps:    float64(st.LifetimeSteps),
		milestone.MetricCurrentStreak: float64(st.CurrentStreak),
		milestone.MetricLongestStreak: float64(st.LongestStreak),
		milestone.MetricDailyGoal:     float64(st.DailyGoal),
	}
}

// evaluate runs the engine and logs instead of failing; the metric change has already been committed
func evaluate(ctx context.Context, engine MilestoneEvaluator, logger *zap.Logger, userID string, prev, cur *Snapshot) []milestone.AchievedMilestone {
	achieved, err := engine.Evaluate(ctx, milestone.MetricContext{
		UserID:          userID,
		CurrentMetrics:  cur.Metrics,
		PreviousMetrics: prev.Metrics,
	})
	if err != nil {
		logger.Warn("milestone evaluation incomplete",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.Int("achieved", len(achieved)),
		)
	}
	if achieved == nil {
		achieved = []milestone.AchievedMilestone{}
	}
	return achieved
}

// track emits a product event; failures are logged and dropped
func track(ctx context.Context, tracker EventTracker, logger *zap.Logger, userID, event string, properties map[string]any) {
	if tracker == nil {
		return
	}
	if err := tracker.Track(ctx, userID, event, properties); err != nil {
		logger.Warn("failed to track event",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("event", event),
		)
	}
}
