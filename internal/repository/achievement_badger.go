package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/vcscsvcscs/stride/apps/backend/internal/milestone"
	"github.com/vcscsvcscs/stride/apps/backend/pkg/model"
	"go.uber.org/zap"
)

const (
	achievementPrefix = "achievement:"

	// maxConflictRetries bounds how often RecordAchievement retries a transaction
	// that lost an optimistic conflict to a concurrent writer.
	maxConflictRetries = 100
)

// BadgerAchievementStore stores milestone achievements in an embedded Badger database.
// Values are JSON encoded StoredAchievement records under "achievement:{userID}:{milestoneID}".
type BadgerAchievementStore struct {
	db     *badger.DB
	logger *zap.Logger
}

// OpenBadger opens (or creates) a Badger database at path. An empty path opens an in-memory database.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	if path == "" {
		opts = opts.WithInMemory(true)
	} else {
		opts.SyncWrites = true
		opts.CompactL0OnClose = true
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return db, nil
}

// NewBadgerAchievementStore creates a new BadgerAchievementStore
func NewBadgerAchievementStore(db *badger.DB, logger *zap.Logger) *BadgerAchievementStore {
	return &BadgerAchievementStore{
		db:     db,
		logger: logger,
	}
}

func achievementKey(userID, milestoneID string) []byte {
	return []byte(achievementPrefix + milestone.Key(userID, milestoneID))
}

func getAchievement(txn *badger.Txn, key []byte) (*model.StoredAchievement, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var a model.StoredAchievement
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &a)
	}); err != nil {
		return nil, err
	}
	return &a, nil
}

func setAchievement(txn *badger.Txn, a *model.StoredAchievement) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal achievement: %w", err)
	}
	return txn.Set(achievementKey(a.UserID, a.MilestoneID), data)
}

// Load returns the stored achievement, or nil when the milestone was never reached
func (s *BadgerAchievementStore) Load(ctx context.Context, userID, milestoneID string) (*model.StoredAchievement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var a *model.StoredAchievement
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		a, err = getAchievement(txn, achievementKey(userID, milestoneID))
		return err
	})
	if err != nil {
		s.logger.Error("failed to load achievement",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("milestone_id", milestoneID),
		)
		return nil, fmt.Errorf("failed to load achievement: %w", err)
	}
	return a, nil
}

// Save writes or overwrites the achievement record
func (s *BadgerAchievementStore) Save(ctx context.Context, a *model.StoredAchievement) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return setAchievement(txn, a)
	}); err != nil {
		s.logger.Error("failed to save achievement",
			zap.Error(err),
			zap.String("user_id", a.UserID),
			zap.String("milestone_id", a.MilestoneID),
		)
		return fmt.Errorf("failed to save achievement: %w", err)
	}
	return nil
}

// RecordAchievement performs the read-decide-write step in one Badger transaction,
// retrying when a concurrent writer commits the same key first.
func (s *BadgerAchievementStore) RecordAchievement(ctx context.Context, userID, milestoneID string, repeatable bool, at time.Time) (*model.StoredAchievement, bool, error) {
	key := achievementKey(userID, milestoneID)

	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		var (
			result *model.StoredAchievement
			fired  bool
		)
		err := s.db.Update(func(txn *badger.Txn) error {
			existing, err := getAchievement(txn, key)
			if err != nil {
				return err
			}
			if existing != nil && !repeatable {
				result = existing
				return nil
			}

			next := &model.StoredAchievement{
				UserID:           userID,
				MilestoneID:      milestoneID,
				AchievedAt:       at.UTC(),
				AchievementCount: 1,
			}
			if existing != nil {
				next.AchievementCount = existing.AchievementCount + 1
			}
			if err := setAchievement(txn, next); err != nil {
				return err
			}
			result, fired = next, true
			return nil
		})
		if errors.Is(err, badger.ErrConflict) {
			s.logger.Debug("achievement write conflict, retrying",
				zap.String("user_id", userID),
				zap.String("milestone_id", milestoneID),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		if err != nil {
			s.logger.Error("failed to record achievement",
				zap.Error(err),
				zap.String("user_id", userID),
				zap.String("milestone_id", milestoneID),
			)
			return nil, false, fmt.Errorf("failed to record achievement: %w", err)
		}
		return result, fired, nil
	}

	s.logger.Error("achievement write kept conflicting",
		zap.String("user_id", userID),
		zap.String("milestone_id", milestoneID),
	)
	return nil, false, fmt.Errorf("failed to record achievement after %d attempts: %w", maxConflictRetries, badger.ErrConflict)
}

// List returns the user's achievements, oldest first
func (s *BadgerAchievementStore) List(ctx context.Context, userID string) ([]model.StoredAchievement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var list []model.StoredAchievement
	prefix := achievementKey(userID, "")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var a model.StoredAchievement
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &a)
			}); err != nil {
				return err
			}
			// "alice:" also prefixes keys of a user named "alice:bob"
			if a.UserID != userID {
				continue
			}
			list = append(list, a)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to list achievements", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}

	sort.Slice(list, func(i, j int) bool {
		if !list[i].AchievedAt.Equal(list[j].AchievedAt) {
			return list[i].AchievedAt.Before(list[j].AchievedAt)
		}
		return list[i].MilestoneID < list[j].MilestoneID
	})
	return list, nil
}

// Delete removes the achievement record
func (s *BadgerAchievementStore) Delete(ctx context.Context, userID, milestoneID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(achievementKey(userID, milestoneID))
	}); err != nil {
		s.logger.Error("failed to delete achievement",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("milestone_id", milestoneID),
		)
		return fmt.Errorf("failed to delete achievement: %w", err)
	}
	return nil
}
