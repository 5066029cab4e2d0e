package service

import (
	"context"
	"time"

	"github.com/vcscsvcscs/stride/apps/backend/internal/analytics"
	"github.com/vcscsvcscs/stride/apps/backend/internal/apperror"
	"github.com/vcscsvcscs/stride/apps/backend/internal/milestone"
	"github.com/vcscsvcscs/stride/apps/backend/pkg/model"
	"go.uber.org/zap"
)

// AchievementEngine is the query side of the milestone engine
type AchievementEngine interface {
	Registry() *milestone.Registry
	IsAchieved(ctx context.Context, userID, milestoneID string) (bool, error)
	GetAchievedMilestones(ctx context.Context, userID string) ([]model.StoredAchievement, error)
	Reset(ctx context.Context, userID, milestoneID string) error
}

// Achievement is a stored achievement joined with its definition
type Achievement struct {
	MilestoneID      string             `json:"milestone_id"`
	Category         milestone.Category `json:"category,omitempty"`
	Event            string             `json:"event,omitempty"`
	Repeatable       bool               `json:"repeatable"`
	AchievedAt       time.Time          `json:"achieved_at"`
	AchievementCount int                `json:"achievement_count"`
}

// AchievementStatus answers whether one milestone has been reached
type AchievementStatus struct {
	MilestoneID string `json:"milestone_id"`
	Achieved    bool   `json:"achieved"`
}

// AchievementService exposes a user's achievements
type AchievementService struct {
	engine      AchievementEngine
	tracker     EventTracker
	enableReset bool
	logger      *zap.Logger
}

// NewAchievementService creates a new AchievementService. Reset is refused unless enableReset is set.
func NewAchievementService(engine AchievementEngine, tracker EventTracker, enableReset bool, logger *zap.Logger) *AchievementService {
	return &AchievementService{
		engine:      engine,
		tracker:     tracker,
		enableReset: enableReset,
		logger:      logger,
	}
}

// List returns the user's achievements, oldest first
func (s *AchievementService) List(ctx context.Context, userID string) ([]Achievement, error) {
	if userID == "" {
		return nil, apperror.InvalidArgument("user ID is required")
	}

	stored, err := s.engine.GetAchievedMilestones(ctx, userID)
	if err != nil {
		return nil, err
	}

	registry := s.engine.Registry()
	out := make([]Achievement, 0, len(stored))
	for _, a := range stored {
		item := Achievement{
			MilestoneID:      a.MilestoneID,
			AchievedAt:       a.AchievedAt,
			AchievementCount: a.AchievementCount,
		}
		if def, ok := registry.Lookup(a.MilestoneID); ok {
			item.Category = def.Category
			item.Event = def.Event
			item.Repeatable = def.Repeatable
		} else {
			s.logger.Debug("stored achievement has no definition",
				zap.String("user_id", userID),
				zap.String("milestone_id", a.MilestoneID),
			)
		}
		out = append(out, item)
	}

	return out, nil
}

// IsAchieved reports whether the user holds the milestone. Unknown milestone ids are NotFound.
func (s *AchievementService) IsAchieved(ctx context.Context, userID, milestoneID string) (*AchievementStatus, error) {
	if userID == "" {
		return nil, apperror.InvalidArgument("user ID is required")
	}
	if _, ok := s.engine.Registry().Lookup(milestoneID); !ok {
		return nil, apperror.NotFoundf("unknown milestone %q", milestoneID)
	}

	achieved, err := s.engine.IsAchieved(ctx, userID, milestoneID)
	if err != nil {
		return nil, err
	}

	return &AchievementStatus{MilestoneID: milestoneID, Achieved: achieved}, nil
}

// Reset deletes the stored achievement so it can fire again
func (s *AchievementService) Reset(ctx context.Context, userID, milestoneID string) error {
	if !s.enableReset {
		return apperror.Forbidden("milestone reset is disabled")
	}
	if userID == "" {
		return apperror.InvalidArgument("user ID is required")
	}
	if _, ok := s.engine.Registry().Lookup(milestoneID); !ok {
		return apperror.NotFoundf("unknown milestone %q", milestoneID)
	}

	if err := s.engine.Reset(ctx, userID, milestoneID); err != nil {
		return err
	}

	s.logger.Warn("milestone reset",
		zap.String("user_id", userID),
		zap.String("milestone_id", milestoneID),
	)
	track(ctx, s.tracker, s.logger, userID, analytics.EventMilestoneReset, map[string]any{
		"milestone_id": milestoneID,
	})

	return nil
}
