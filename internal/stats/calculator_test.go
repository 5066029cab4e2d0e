package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vcscsvcscs/stride/apps/backend/pkg/model"
)

// Wednesday; its week runs Mon 14 July to Sun 20 July.
var wednesday = time.Date(2025, 7, 16, 15, 30, 0, 0, time.UTC)

func day(base time.Time, offset int) time.Time {
	return base.AddDate(0, 0, offset)
}

func summary(date time.Time, steps int) model.DailyStepSummary {
	return model.DailyStepSummary{
		Date:                date,
		TotalSteps:          steps,
		TotalDistanceMeters: float64(steps) * 0.75,
	}
}

func TestCompute_EmptyHistory(t *testing.T) {
	calc := NewCalculator(0)

	stats := calc.Compute(nil, 8000, wednesday)

	assert.Equal(t, model.StepStats{DailyGoal: 8000}, stats)
}

func TestCompute_NonPositiveGoalUsesDefault(t *testing.T) {
	calc := NewCalculator(7500)

	stats := calc.Compute(nil, 0, wednesday)
	assert.Equal(t, 7500, stats.DailyGoal)

	stats = NewCalculator(-1).Compute(nil, -20, wednesday)
	assert.Equal(t, DefaultDailyGoal, stats.DailyGoal)
}

func TestCompute_TodayTotals(t *testing.T) {
	calc := NewCalculator(0)

	t.Run("present", func(t *testing.T) {
		stats := calc.Compute([]model.DailyStepSummary{
			summary(day(wednesday, -1), 4000),
			summary(wednesday, 1234),
		}, 10000, wednesday)

		assert.Equal(t, 1234, stats.TodaySteps)
		assert.InDelta(t, 925.5, stats.TodayDistance, 0.001)
	})

	t.Run("absent is zero", func(t *testing.T) {
		stats := calc.Compute([]model.DailyStepSummary{summary(day(wednesday, -1), 4000)}, 10000, wednesday)

		assert.Zero(t, stats.TodaySteps)
		assert.Zero(t, stats.TodayDistance)
	})

	t.Run("time of day is ignored", func(t *testing.T) {
		early := time.Date(2025, 7, 16, 0, 5, 0, 0, time.UTC)
		stats := calc.Compute([]model.DailyStepSummary{summary(early, 300)}, 10000, wednesday)

		assert.Equal(t, 300, stats.TodaySteps)
	})
}

func TestCompute_WeekWindow(t *testing.T) {
	calc := NewCalculator(0)
	summaries := []model.DailyStepSummary{
		summary(day(wednesday, -3), 100), // Sunday of the previous week
		summary(day(wednesday, -2), 200), // Monday
		summary(day(wednesday, -1), 300),
		summary(wednesday, 400),
		summary(day(wednesday, 4), 500), // Sunday, last day of the week
		summary(day(wednesday, 5), 600), // next Monday
	}

	stats := calc.Compute(summaries, 10000, wednesday)

	assert.Equal(t, 1400, stats.WeekSteps)
	assert.InDelta(t, 1050.0, stats.WeekDistance, 0.001)
}

func TestCompute_SundayBelongsToWeekStartingSixDaysEarlier(t *testing.T) {
	calc := NewCalculator(0)
	sunday := time.Date(2025, 7, 20, 9, 0, 0, 0, time.UTC)
	summaries := []model.DailyStepSummary{
		summary(day(sunday, -7), 50), // previous Sunday
		summary(day(sunday, -6), 10), // Monday
		summary(sunday, 20),
	}

	stats := calc.Compute(summaries, 10000, sunday)

	assert.Equal(t, 30, stats.WeekSteps)
}

func TestCompute_MonthIsCalendarMonth(t *testing.T) {
	calc := NewCalculator(0)
	firstOfJuly := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC) // Tuesday
	summaries := []model.DailyStepSummary{
		summary(day(firstOfJuly, -1), 700), // 30 June, same week
		summary(firstOfJuly, 300),
		summary(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), 900), // July of the previous year
	}

	stats := calc.Compute(summaries, 10000, firstOfJuly)

	assert.Equal(t, 300, stats.MonthSteps)
	assert.Equal(t, 1000, stats.WeekSteps)
	assert.Equal(t, 1900, stats.LifetimeSteps)
}

func TestCompute_CurrentStreak(t *testing.T) {
	calc := NewCalculator(0)
	goal := 10000

	tests := []struct {
		name      string
		summaries []model.DailyStepSummary
		current   int
		longest   int
	}{
		{
			name: "three consecutive days ending today",
			summaries: []model.DailyStepSummary{
				summary(wednesday, 10000),
				summary(day(wednesday, -1), 10500),
				summary(day(wednesday, -2), 11000),
			},
			current: 3,
			longest: 3,
		},
		{
			name: "below goal on both days",
			summaries: []model.DailyStepSummary{
				summary(wednesday, 5000),
				summary(day(wednesday, -1), 6000),
			},
			current: 0,
			longest: 0,
		},
		{
			name: "no entry for today or yesterday",
			summaries: []model.DailyStepSummary{
				summary(day(wednesday, -2), 20000),
				summary(day(wednesday, -3), 20000),
			},
			current: 0,
			longest: 2,
		},
		{
			name: "gap at yesterday truncates the streak",
			summaries: []model.DailyStepSummary{
				summary(wednesday, 12000),
				summary(day(wednesday, -2), 12000),
			},
			current: 1,
			longest: 1,
		},
		{
			name: "today not yet met keeps yesterday's streak",
			summaries: []model.DailyStepSummary{
				summary(wednesday, 200),
				summary(day(wednesday, -1), 10000),
				summary(day(wednesday, -2), 10000),
			},
			current: 2,
			longest: 2,
		},
		{
			name: "today absent keeps yesterday's streak",
			summaries: []model.DailyStepSummary{
				summary(day(wednesday, -1), 10000),
			},
			current: 1,
			longest: 1,
		},
		{
			name: "short day in the middle ends the walk",
			summaries: []model.DailyStepSummary{
				summary(wednesday, 10000),
				summary(day(wednesday, -1), 9999),
				summary(day(wednesday, -2), 10000),
				summary(day(wednesday, -3), 10000),
			},
			current: 1,
			longest: 2,
		},
		{
			name: "older run is longer than current",
			summaries: []model.DailyStepSummary{
				summary(wednesday, 15000),
				summary(day(wednesday, -10), 15000),
				summary(day(wednesday, -11), 15000),
				summary(day(wednesday, -12), 15000),
				summary(day(wednesday, -13), 15000),
			},
			current: 1,
			longest: 4,
		},
		{
			name: "unsorted input",
			summaries: []model.DailyStepSummary{
				summary(day(wednesday, -2), 10000),
				summary(wednesday, 10000),
				summary(day(wednesday, -1), 10000),
			},
			current: 3,
			longest: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := calc.Compute(tt.summaries, goal, wednesday)

			assert.Equal(t, tt.current, stats.CurrentStreak, "current streak")
			assert.Equal(t, tt.longest, stats.LongestStreak, "longest streak")
			assert.GreaterOrEqual(t, stats.LongestStreak, stats.CurrentStreak)
		})
	}
}

func TestCompute_StreakAcrossMonthBoundary(t *testing.T) {
	calc := NewCalculator(0)
	secondOfMarch := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC) // leap year

	stats := calc.Compute([]model.DailyStepSummary{
		summary(secondOfMarch, 10000),
		summary(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 10000),
		summary(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), 10000),
		summary(time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), 10000),
	}, 10000, secondOfMarch)

	assert.Equal(t, 4, stats.CurrentStreak)
	assert.Equal(t, 20000, stats.MonthSteps)
}

func TestCompute_LocalDatesAreCompared(t *testing.T) {
	calc := NewCalculator(0)
	berlin := time.FixedZone("CEST", 2*60*60)
	todayLocal := time.Date(2025, 7, 16, 0, 30, 0, 0, berlin)

	stats := calc.Compute([]model.DailyStepSummary{
		summary(time.Date(2025, 7, 16, 0, 0, 0, 0, time.UTC), 10000),
		summary(time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), 10000),
	}, 10000, todayLocal)

	assert.Equal(t, 10000, stats.TodaySteps)
	assert.Equal(t, 2, stats.CurrentStreak)
}
