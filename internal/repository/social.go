package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// SocialRepository manages friendships and group memberships
type SocialRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewSocialRepository creates a new SocialRepository
func NewSocialRepository(db *pgxpool.Pool, logger *zap.Logger) *SocialRepository {
	return &SocialRepository{
		db:     db,
		logger: logger,
	}
}

// AddFriendship stores the friendship in both directions. created is false when it already existed.
func (r *SocialRepository) AddFriendship(ctx context.Context, userID, friendID string) (created bool, err error) {
	query := `
		INSERT INTO friendships (user_id, friend_id, created_at)
		VALUES ($1, $2, NOW()), ($2, $1, NOW())
		ON CONFLICT (user_id, friend_id) DO NOTHING
	`

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, userID, friendID)
		if err != nil {
			return err
		}
		created = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		r.logger.Error("failed to add friendship",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("friend_id", friendID),
		)
		return false, fmt.Errorf("failed to add friendship: %w", err)
	}

	return created, nil
}

// AddGroupMembership stores the membership. created is false when the user was already a member.
func (r *SocialRepository) AddGroupMembership(ctx context.Context, userID, groupID string) (bool, error) {
	query := `
		INSERT INTO group_memberships (user_id, group_id, joined_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, group_id) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query, userID, groupID)
	if err != nil {
		r.logger.Error("failed to add group membership",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("group_id", groupID),
		)
		return false, fmt.Errorf("failed to add group membership: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// GetFriendCount returns how many friends the user has
func (r *SocialRepository) GetFriendCount(ctx context.Context, userID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM friendships WHERE user_id = $1`, userID, "friends")
}

// GetGroupCount returns how many groups the user belongs to
func (r *SocialRepository) GetGroupCount(ctx context.Context, userID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM group_memberships WHERE user_id = $1`, userID, "groups")
}

func (r *SocialRepository) count(ctx context.Context, query, userID, what string) (int, error) {
	var n int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&n); err != nil {
		r.logger.Error("failed to count "+what, zap.Error(err), zap.String("user_id", userID))
		return 0, fmt.Errorf("failed to count %s: %w", what, err)
	}
	return int(n), nil
}
