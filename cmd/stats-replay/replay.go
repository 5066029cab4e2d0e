package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/vcscsvcscs/stride/apps/backend/internal/milestone"
	"github.com/vcscsvcscs/stride/apps/backend/internal/service"
	"github.com/vcscsvcscs/stride/apps/backend/internal/stats"
	"github.com/vcscsvcscs/stride/apps/backend/pkg/model"
	"go.uber.org/zap"
)

const replayUser = "replay"

type dayInput struct {
	Date                string  `json:"date"`
	TotalSteps          int     `json:"total_steps"`
	TotalDistanceMeters float64 `json:"total_distance_meters"`
}

type dayReport struct {
	Date       string   `json:"date"`
	Steps      int      `json:"steps"`
	Streak     int      `json:"current_streak"`
	Milestones []string `json:"milestones,omitempty"`
}

type replayReport struct {
	Days     []dayReport               `json:"days"`
	Final    model.StepStats           `json:"final"`
	Achieved []model.StoredAchievement `json:"achieved"`
}

// readHistory parses the history file, merging repeated dates, in date order
func readHistory(r io.Reader) ([]model.DailyStepSummary, error) {
	var in []dayInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}

	byDate := make(map[time.Time]*model.DailyStepSummary, len(in))
	for i, d := range in {
		date, err := time.ParseInLocation("2006-01-02", d.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("entry %d: invalid date %q: %w", i, d.Date, err)
		}
		if d.TotalSteps < 0 || d.TotalDistanceMeters < 0 {
			return nil, fmt.Errorf("entry %d: negative totals", i)
		}
		s, ok := byDate[date]
		if !ok {
			s = &model.DailyStepSummary{Date: date}
			byDate[date] = s
		}
		s.TotalSteps += d.TotalSteps
		s.TotalDistanceMeters += d.TotalDistanceMeters
	}

	days := make([]model.DailyStepSummary, 0, len(byDate))
	for _, s := range byDate {
		days = append(days, *s)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days, nil
}

// historyCursor serves the history up to the replayed day
type historyCursor struct {
	goal  int
	days  []model.DailyStepSummary
	until int
}

func (h *historyCursor) GetDailyGoal(context.Context, string) (int, error) { return h.goal, nil }

func (h *historyCursor) SetDailyGoal(_ context.Context, _ string, goal int) error {
	h.goal = goal
	return nil
}

func (h *historyCursor) GetAllDailySummaries(context.Context, string) ([]model.DailyStepSummary, error) {
	return h.days[:h.until], nil
}

func (h *historyCursor) SaveFitnessData(context.Context, *model.FitnessDataPoint) error {
	return fmt.Errorf("history is read-only")
}

func (h *historyCursor) FitnessDataExists(context.Context, string) (bool, error) { return false, nil }

// noSocial reports zero friends and groups
type noSocial struct{}

func (noSocial) AddFriendship(context.Context, string, string) (bool, error)      { return false, nil }
func (noSocial) AddGroupMembership(context.Context, string, string) (bool, error) { return false, nil }
func (noSocial) GetFriendCount(context.Context, string) (int, error)              { return 0, nil }
func (noSocial) GetGroupCount(context.Context, string) (int, error)               { return 0, nil }

// replay feeds the history day by day through the calculator and a fresh in-memory engine
func replay(ctx context.Context, days []model.DailyStepSummary, goal int, logger *zap.Logger) (*replayReport, error) {
	cursor := &historyCursor{goal: goal, days: days}
	metrics := service.NewMetricSource(cursor, noSocial{}, stats.NewCalculator(stats.DefaultDailyGoal), logger)

	store := milestone.NewMemoryStore()
	engine := milestone.NewEngine(
		milestone.MustRegistry(milestone.DefaultDefinitions()),
		store,
		nil,
		milestone.DefaultEngineConfig(),
		logger,
	)

	report := &replayReport{Days: make([]dayReport, 0, len(days))}

	for i, d := range days {
		// previous snapshot is yesterday's history seen from today
		cursor.until = i
		prev, err := metrics.Snapshot(ctx, replayUser, d.Date)
		if err != nil {
			return nil, err
		}

		cursor.until = i + 1
		cur, err := metrics.Snapshot(ctx, replayUser, d.Date)
		if err != nil {
			return nil, err
		}

		achieved, err := engine.Evaluate(ctx, milestone.MetricContext{
			UserID:          replayUser,
			CurrentMetrics:  cur.Metrics,
			PreviousMetrics: prev.Metrics,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate %s: %w", d.Date.Format("2006-01-02"), err)
		}

		day := dayReport{
			Date:   d.Date.Format("2006-01-02"),
			Steps:  cur.Stats.TodaySteps,
			Streak: cur.Stats.CurrentStreak,
		}
		for _, a := range achieved {
			day.Milestones = append(day.Milestones, a.MilestoneID)
		}
		report.Days = append(report.Days, day)
		report.Final = cur.Stats
	}

	list, err := store.List(ctx, replayUser)
	if err != nil {
		return nil, err
	}
	report.Achieved = list

	return report, nil
}
