package service

import (
	"context"
	"time"

	"github.com/vcscsvcscs/stride/apps/backend/internal/analytics"
	"github.com/vcscsvcscs/stride/apps/backend/internal/apperror"
	"github.com/vcscsvcscs/stride/apps/backend/internal/milestone"
	"go.uber.org/zap"
)

// FriendResult carries the milestones each side of a new friendship reached
type FriendResult struct {
	Created          bool                          `json:"created"`
	Milestones       []milestone.AchievedMilestone `json:"milestones"`
	FriendMilestones []milestone.AchievedMilestone `json:"friend_milestones"`
}

// GroupResult is returned after joining a group
type GroupResult struct {
	Created    bool                          `json:"created"`
	Milestones []milestone.AchievedMilestone `json:"milestones"`
}

// SocialService handles friendships and group memberships
type SocialService struct {
	repo    SocialRepositoryInterface
	metrics *MetricSource
	engine  MilestoneEvaluator
	tracker EventTracker
	now     func() time.Time
	logger  *zap.Logger
}

// NewSocialService creates a new SocialService
func NewSocialService(repo SocialRepositoryInterface, metrics *MetricSource, engine MilestoneEvaluator, tracker EventTracker, logger *zap.Logger) *SocialService {
	return &SocialService{
		repo:    repo,
		metrics: metrics,
		engine:  engine,
		tracker: tracker,
		now:     time.Now,
		logger:  logger,
	}
}

// AcceptFriend records a friendship in both directions and evaluates milestones for both users
func (s *SocialService) AcceptFriend(ctx context.Context, userID, friendID string) (*FriendResult, error) {
	if userID == "" || friendID == "" {
		return nil, apperror.InvalidArgument("user ID and friend ID are required")
	}
	if userID == friendID {
		return nil, apperror.InvalidArgument("cannot befriend yourself")
	}

	unlock := s.metrics.Lock(userID, friendID)
	defer unlock()

	today := s.now().UTC()

	prevUser, err := s.metrics.Snapshot(ctx, userID, today)
	if err != nil {
		return nil, apperror.Storage("failed to load metrics", err)
	}
	prevFriend, err := s.metrics.Snapshot(ctx, friendID, today)
	if err != nil {
		return nil, apperror.Storage("failed to load metrics", err)
	}

	created, err := s.repo.AddFriendship(ctx, userID, friendID)
	if err != nil {
		return nil, apperror.Storage("failed to add friendship", err)
	}

	result := &FriendResult{
		Created:          created,
		Milestones:       []milestone.AchievedMilestone{},
		FriendMilestones: []milestone.AchievedMilestone{},
	}
	if !created {
		s.logger.Debug("friendship already exists",
			zap.String("user_id", userID),
			zap.String("friend_id", friendID),
		)
		return result, nil
	}

	s.logger.Info("friendship created",
		zap.String("user_id", userID),
		zap.String("friend_id", friendID),
	)

	curUser, err := s.metrics.WithSocial(ctx, prevUser, userID)
	if err != nil {
		return nil, apperror.Storage("failed to reload metrics", err)
	}
	result.Milestones = evaluate(ctx, s.engine, s.logger, userID, prevUser, curUser)

	curFriend, err := s.metrics.WithSocial(ctx, prevFriend, friendID)
	if err != nil {
		return nil, apperror.Storage("failed to reload metrics", err)
	}
	result.FriendMilestones = evaluate(ctx, s.engine, s.logger, friendID, prevFriend, curFriend)

	track(ctx, s.tracker, s.logger, userID, analytics.EventFriendAdded, map[string]any{
		"friend_id":    friendID,
		"friend_count": curUser.Metrics[milestone.MetricFriendCount],
	})

	return result, nil
}

// JoinGroup records a group membership and evaluates milestones for the user
func (s *SocialService) JoinGroup(ctx context.Context, userID, groupID string) (*GroupResult, error) {
	if userID == "" || groupID == "" {
		return nil, apperror.InvalidArgument("user ID and group ID are required")
	}

	unlock := s.metrics.Lock(userID)
	defer unlock()

	prev, err := s.metrics.Snapshot(ctx, userID, s.now().UTC())
	if err != nil {
		return nil, apperror.Storage("failed to load metrics", err)
	}

	created, err := s.repo.AddGroupMembership(ctx, userID, groupID)
	if err != nil {
		return nil, apperror.Storage("failed to join group", err)
	}

	result := &GroupResult{Created: created, Milestones: []milestone.AchievedMilestone{}}
	if !created {
		return result, nil
	}

	s.logger.Info("group joined",
		zap.String("user_id", userID),
		zap.String("group_id", groupID),
	)

	cur, err := s.metrics.WithSocial(ctx, prev, userID)
	if err != nil {
		return nil, apperror.Storage("failed to reload metrics", err)
	}
	result.Milestones = evaluate(ctx, s.engine, s.logger, userID, prev, cur)

	track(ctx, s.tracker, s.logger, userID, analytics.EventGroupJoined, map[string]any{
		"group_id":    groupID,
		"group_count": cur.Metrics[milestone.MetricGroupCount],
	})

	return result, nil
}
