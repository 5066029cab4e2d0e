package milestone

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/vcscsvcscs/stride/apps/backend/internal/apperror"
	"github.com/vcscsvcscs/stride/apps/backend/pkg/model"
	"go.uber.org/zap"
)

// AchievedMilestone describes a milestone newly crossed by one Evaluate call
type AchievedMilestone struct {
	MilestoneID      string        `json:"milestone_id"`
	Category         Category      `json:"category"`
	Event            string        `json:"event"`
	AchievedAt       time.Time     `json:"achieved_at"`
	AchievementCount int           `json:"achievement_count"`
	Context          MetricContext `json:"-"`
}

// EngineConfig bounds the engine's I/O
type EngineConfig struct {
	StoreTimeout     time.Duration
	AnalyticsTimeout time.Duration
}

// DefaultEngineConfig returns the timeouts used when none are configured
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		StoreTimeout:     2 * time.Second,
		AnalyticsTimeout: time.Second,
	}
}

// Engine orchestrates registry, evaluators, achievement store and event sink.
//
// Calls for the same user are serialised so the read-then-write on a stored
// count cannot lose an increment. Stores implementing AchievementRecorder are
// driven through that primitive, which keeps separate processes safe as well.
type Engine struct {
	registry *Registry
	store    AchievementStore
	recorder AchievementRecorder
	sink     EventSink
	cfg      EngineConfig
	locks    *UserLocks
	now      func() time.Time
	logger   *zap.Logger
}

// NewEngine creates an Engine. sink may be nil when analytics are disabled.
func NewEngine(registry *Registry, store AchievementStore, sink EventSink, cfg EngineConfig, logger *zap.Logger) *Engine {
	defaults := DefaultEngineConfig()
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaults.StoreTimeout
	}
	if cfg.AnalyticsTimeout <= 0 {
		cfg.AnalyticsTimeout = defaults.AnalyticsTimeout
	}

	e := &Engine{
		registry: registry,
		store:    store,
		sink:     sink,
		cfg:      cfg,
		locks:    NewUserLocks(),
		now:      time.Now,
		logger:   logger,
	}
	if r, ok := store.(AchievementRecorder); ok {
		e.recorder = r
	}
	return e
}

// Registry returns the registry the engine evaluates
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Evaluate runs every definition against mctx in registry order and returns the
// milestones newly crossed by this call.
//
// An empty user id makes the call a no-op. A storage failure aborts only the
// definition it occurred in; the returned error joins every such failure and
// the achieved list still holds whatever fired. Analytics failures are logged
// and never returned.
func (e *Engine) Evaluate(ctx context.Context, mctx MetricContext) ([]AchievedMilestone, error) {
	if mctx.UserID == "" {
		e.logger.Debug("skipping milestone evaluation without user id")
		return []AchievedMilestone{}, nil
	}

	unlock := e.locks.Lock(mctx.UserID)
	defer unlock()

	achieved := []AchievedMilestone{}
	var errs []error

	for _, def := range e.registry.definitions {
		if !Evaluate(def.Evaluator, mctx) {
			continue
		}

		stored, fired, err := e.record(ctx, mctx.UserID, def)
		if err != nil {
			e.logger.Error("failed to record milestone",
				zap.Error(err),
				zap.String("user_id", mctx.UserID),
				zap.String("milestone_id", def.ID),
			)
			errs = append(errs, apperror.Storage(fmt.Sprintf("failed to record milestone %s", def.ID), err))
			continue
		}
		if !fired {
			continue
		}

		achieved = append(achieved, AchievedMilestone{
			MilestoneID:      def.ID,
			Category:         def.Category,
			Event:            def.Event,
			AchievedAt:       stored.AchievedAt,
			AchievementCount: stored.AchievementCount,
			Context:          mctx,
		})

		e.logger.Info("milestone achieved",
			zap.String("user_id", mctx.UserID),
			zap.String("milestone_id", def.ID),
			zap.String("evaluator", describe(def.Evaluator)),
			zap.Int("achievement_count", stored.AchievementCount),
		)

		e.emit(ctx, mctx.UserID, def, stored)
	}

	return achieved, errors.Join(errs...)
}

// record performs steps 2-4 for one definition: load, skip if already
// achieved and not repeatable, otherwise increment and save.
func (e *Engine) record(ctx context.Context, userID string, def Definition) (*model.StoredAchievement, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()

	now := e.now().UTC()

	if e.recorder != nil {
		return e.recorder.RecordAchievement(ctx, userID, def.ID, def.Repeatable, now)
	}

	existing, err := e.store.Load(ctx, userID, def.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load achievement: %w", err)
	}
	if existing != nil && !def.Repeatable {
		return existing, false, nil
	}

	count := 1
	if existing != nil {
		count = existing.AchievementCount + 1
	}

	next := &model.StoredAchievement{
		UserID:           userID,
		MilestoneID:      def.ID,
		AchievedAt:       now,
		AchievementCount: count,
	}
	if err := e.store.Save(ctx, next); err != nil {
		return nil, false, fmt.Errorf("failed to save achievement: %w", err)
	}
	return next, true, nil
}

func (e *Engine) emit(ctx context.Context, userID string, def Definition, stored *model.StoredAchievement) {
	if e.sink == nil {
		return
	}

	props := maps.Clone(def.EventProperties)
	if props == nil {
		props = make(map[string]any, 3)
	}
	props["milestone_id"] = def.ID
	props["category"] = string(def.Category)
	props["achievement_count"] = stored.AchievementCount

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.AnalyticsTimeout)
	defer cancel()

	if err := e.sink.Track(ctx, userID, def.Event, props); err != nil {
		e.logger.Warn("failed to emit milestone event",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("event", def.Event),
		)
	}
}

// IsAchieved reports whether userID holds a record for milestoneID
func (e *Engine) IsAchieved(ctx context.Context, userID, milestoneID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()

	a, err := e.store.Load(ctx, userID, milestoneID)
	if err != nil {
		return false, apperror.Storage("failed to load achievement", err)
	}
	return a != nil, nil
}

// GetAchievedMilestones lists every stored achievement for userID
func (e *Engine) GetAchievedMilestones(ctx context.Context, userID string) ([]model.StoredAchievement, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()

	list, err := e.store.List(ctx, userID)
	if err != nil {
		return nil, apperror.Storage("failed to list achievements", err)
	}
	if list == nil {
		list = []model.StoredAchievement{}
	}
	return list, nil
}

// Reset deletes the stored record so the milestone can fire again. Debug and test use only.
func (e *Engine) Reset(ctx context.Context, userID, milestoneID string) error {
	unlock := e.locks.Lock(userID)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()

	if err := e.store.Delete(ctx, userID, milestoneID); err != nil {
		return apperror.Storage("failed to reset achievement", err)
	}

	e.logger.Info("milestone reset",
		zap.String("user_id", userID),
		zap.String("milestone_id", milestoneID),
	)
	return nil
}
