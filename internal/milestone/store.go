package milestone

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vcscsvcscs/stride/apps/backend/pkg/model"
)

// AchievementStore persists which milestones a user has reached, keyed by
// "{userID}:{milestoneID}". Load returns nil, nil when nothing is stored.
type AchievementStore interface {
	Load(ctx context.Context, userID, milestoneID string) (*model.StoredAchievement, error)
	Save(ctx context.Context, achievement *model.StoredAchievement) error
	List(ctx context.Context, userID string) ([]model.StoredAchievement, error)
	Delete(ctx context.Context, userID, milestoneID string) error
}

// AchievementRecorder is implemented by stores that can perform the whole
// read-decide-write step atomically. When repeatable is false and a record
// exists, nothing is written and fired is false. Otherwise the count is
// incremented (or created at 1), achievedAt is refreshed and fired is true.
type AchievementRecorder interface {
	RecordAchievement(ctx context.Context, userID, milestoneID string, repeatable bool, at time.Time) (achievement *model.StoredAchievement, fired bool, err error)
}

// EventSink receives analytics events for fired milestones.
type EventSink interface {
	Track(ctx context.Context, userID, event string, properties map[string]any) error
}

// Key is the composite storage key for one user/milestone pair
func Key(userID, milestoneID string) string {
	return userID + ":" + milestoneID
}

// MemoryStore is an in-process AchievementStore. It deliberately does not
// implement AchievementRecorder; the engine's per-user lock serialises it.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]model.StoredAchievement
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]model.StoredAchievement)}
}

func (s *MemoryStore) Load(ctx context.Context, userID, milestoneID string) (*model.StoredAchievement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.records[Key(userID, milestoneID)]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *MemoryStore) Save(ctx context.Context, achievement *model.StoredAchievement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[Key(achievement.UserID, achievement.MilestoneID)] = *achievement
	return nil
}

func (s *MemoryStore) List(ctx context.Context, userID string) ([]model.StoredAchievement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.StoredAchievement
	for _, a := range s.records {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AchievedAt.Equal(out[j].AchievedAt) {
			return out[i].MilestoneID < out[j].MilestoneID
		}
		return out[i].AchievedAt.Before(out[j].AchievedAt)
	})
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID, milestoneID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, Key(userID, milestoneID))
	return nil
}
