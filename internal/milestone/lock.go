package milestone

import (
	"slices"
	"sync"
)

// UserLocks hands out one mutex per user id and forgets it once no caller holds it.
type UserLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

// NewUserLocks creates an empty lock table
func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[string]*userLock)}
}

// Lock blocks until the caller holds every listed user id and returns the
// matching unlock function. Ids are taken in sorted order so two callers
// locking the same pair cannot deadlock.
func (l *UserLocks) Lock(userIDs ...string) func() {
	ids := slices.Clone(userIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	held := make([]*userLock, 0, len(ids))
	for _, id := range ids {
		held = append(held, l.acquire(id))
	}

	return func() {
		for i := len(ids) - 1; i >= 0; i-- {
			l.release(ids[i], held[i])
		}
	}
}

func (l *UserLocks) acquire(userID string) *userLock {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.Lock()
	return ul
}

func (l *UserLocks) release(userID string, ul *userLock) {
	ul.Unlock()

	l.mu.Lock()
	ul.refs--
	if ul.refs == 0 {
		delete(l.locks, userID)
	}
	l.mu.Unlock()
}

// held reports how many user ids currently have a live entry
func (l *UserLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
