package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vcscsvcscs/stride/apps/backend/internal/milestone"
	"github.com/vcscsvcscs/stride/apps/backend/internal/stats"
	"github.com/vcscsvcscs/stride/apps/backend/pkg/model"
	"go.uber.org/zap"
)

var testNow = time.Date(2025, 7, 16, 10, 30, 0, 0, time.UTC)

func day(offset int) time.Time {
	return time.Date(2025, 7, 16, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

// fakeStepRepository keeps fitness data in memory and aggregates it like the SQL query
type fakeStepRepository struct {
	mu     sync.Mutex
	goals  map[string]int
	points []model.FitnessDataPoint
}

func newFakeStepRepository() *fakeStepRepository {
	return &fakeStepRepository{goals: map[string]int{}}
}

func (r *fakeStepRepository) GetDailyGoal(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.goals[userID], nil
}

func (r *fakeStepRepository) SetDailyGoal(_ context.Context, userID string, goal int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.goals[userID] = goal
	return nil
}

func (r *fakeStepRepository) GetAllDailySummaries(_ context.Context, userID string) ([]model.DailyStepSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byDay := map[time.Time]*model.DailyStepSummary{}
	for _, p := range r.points {
		if p.UserID != userID {
			continue
		}
		s, ok := byDay[p.Date]
		if !ok {
			s = &model.DailyStepSummary{Date: p.Date}
			byDay[p.Date] = s
		}
		switch p.DataType {
		case "steps":
			s.TotalSteps += int(p.Value)
		case "distance":
			s.TotalDistanceMeters += p.Value
		}
	}

	out := make([]model.DailyStepSummary, 0, len(byDay))
	for _, s := range byDay {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakeStepRepository) SaveFitnessData(_ context.Context, data *model.FitnessDataPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points = append(r.points, *data)
	return nil
}

func (r *fakeStepRepository) FitnessDataExists(_ context.Context, sourceDataID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.points {
		if p.SourceDataID == sourceDataID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeStepRepository) addSteps(userID string, date time.Time, steps int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points = append(r.points, model.FitnessDataPoint{UserID: userID, Date: date, DataType: "steps", Value: float64(steps)})
}

// failingStepRepository fails the failOn-th SaveFitnessData call and passes everything else through
type failingStepRepository struct {
	*fakeStepRepository
	failOn int
	saves  int
}

func (r *failingStepRepository) SaveFitnessData(ctx context.Context, data *model.FitnessDataPoint) error {
	r.saves++
	if r.saves == r.failOn {
		return errors.New("connection reset")
	}
	return r.fakeStepRepository.SaveFitnessData(ctx, data)
}

// rendezvousStepRepository holds each SaveFitnessData until `parties` callers
// are waiting or wait elapses, so unserialised writers overlap
type rendezvousStepRepository struct {
	*fakeStepRepository
	parties int
	wait    time.Duration

	mu      sync.Mutex
	arrived int
	gate    chan struct{}
}

func newRendezvousStepRepository(inner *fakeStepRepository, parties int, wait time.Duration) *rendezvousStepRepository {
	return &rendezvousStepRepository{
		fakeStepRepository: inner,
		parties:            parties,
		wait:               wait,
		gate:               make(chan struct{}),
	}
}

func (r *rendezvousStepRepository) SaveFitnessData(ctx context.Context, data *model.FitnessDataPoint) error {
	r.mu.Lock()
	r.arrived++
	if r.arrived == r.parties {
		close(r.gate)
	}
	r.mu.Unlock()

	select {
	case <-r.gate:
	case <-time.After(r.wait):
	}
	return r.fakeStepRepository.SaveFitnessData(ctx, data)
}

// fakeSocialRepository keeps friendships and memberships in memory
type fakeSocialRepository struct {
	mu      sync.Mutex
	friends map[string]map[string]bool
	groups  map[string]map[string]bool
}

func newFakeSocialRepository() *fakeSocialRepository {
	return &fakeSocialRepository{
		friends: map[string]map[string]bool{},
		groups:  map[string]map[string]bool{},
	}
}

func addToSet(m map[string]map[string]bool, key, value string) bool {
	if m[key] == nil {
		m[key] = map[string]bool{}
	}
	if m[key][value] {
		return false
	}
	m[key][value] = true
	return true
}

func (r *fakeSocialRepository) AddFriendship(_ context.Context, userID, friendID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := addToSet(r.friends, userID, friendID)
	b := addToSet(r.friends, friendID, userID)
	return a || b, nil
}

func (r *fakeSocialRepository) AddGroupMembership(_ context.Context, userID, groupID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return addToSet(r.groups, userID, groupID), nil
}

func (r *fakeSocialRepository) GetFriendCount(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.friends[userID]), nil
}

func (r *fakeSocialRepository) GetGroupCount(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.groups[userID]), nil
}

// MockStepRepository is a mock implementation of StepRepositoryInterface
type MockStepRepository struct {
	mock.Mock
}

func (m *MockStepRepository) GetDailyGoal(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockStepRepository) SetDailyGoal(ctx context.Context, userID string, goal int) error {
	args := m.Called(ctx, userID, goal)
	return args.Error(0)
}

func (m *MockStepRepository) GetAllDailySummaries(ctx context.Context, userID string) ([]model.DailyStepSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DailyStepSummary), args.Error(1)
}

func (m *MockStepRepository) SaveFitnessData(ctx context.Context, data *model.FitnessDataPoint) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *MockStepRepository) FitnessDataExists(ctx context.Context, sourceDataID string) (bool, error) {
	args := m.Called(ctx, sourceDataID)
	return args.Bool(0), args.Error(1)
}

// MockMilestoneEvaluator is a mock implementation of MilestoneEvaluator
type MockMilestoneEvaluator struct {
	mock.Mock
}

func (m *MockMilestoneEvaluator) Evaluate(ctx context.Context, mctx milestone.MetricContext) ([]milestone.AchievedMilestone, error) {
	args := m.Called(ctx, mctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]milestone.AchievedMilestone), args.Error(1)
}

// MockEventTracker is a mock implementation of EventTracker
type MockEventTracker struct {
	mock.Mock
}

func (m *MockEventTracker) Track(ctx context.Context, userID, event string, properties map[string]any) error {
	args := m.Called(ctx, userID, event, properties)
	return args.Error(0)
}

type testEnv struct {
	steps   *fakeStepRepository
	social  *fakeSocialRepository
	store   *milestone.MemoryStore
	engine  *milestone.Engine
	metrics *MetricSource
}

func newTestEnv() *testEnv {
	logger := zap.NewNop()
	env := &testEnv{
		steps:  newFakeStepRepository(),
		social: newFakeSocialRepository(),
		store:  milestone.NewMemoryStore(),
	}
	env.engine = milestone.NewEngine(
		milestone.MustRegistry(milestone.DefaultDefinitions()),
		env.store,
		nil,
		milestone.DefaultEngineConfig(),
		logger,
	)
	env.metrics = NewMetricSource(env.steps, env.social, stats.NewCalculator(stats.DefaultDailyGoal), logger)
	return env
}

func (e *testEnv) stepService(tracker EventTracker) *StepService {
	s := NewStepService(e.steps, e.metrics, e.engine, tracker, zap.NewNop())
	s.now = func() time.Time { return testNow }
	return s
}

func (e *testEnv) socialService(tracker EventTracker) *SocialService {
	s := NewSocialService(e.social, e.metrics, e.engine, tracker, zap.NewNop())
	s.now = func() time.Time { return testNow }
	return s
}

func milestoneIDs(list []milestone.AchievedMilestone) []string {
	ids := make([]string, 0, len(list))
	for _, m := range list {
		ids = append(ids, m.MilestoneID)
	}
	return ids
}
