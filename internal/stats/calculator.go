// Package stats turns a user's daily step history into rolling totals and goal streaks.
package stats

import (
	"sort"
	"time"

	"github.com/vcscsvcscs/stride/apps/backend/pkg/model"
)

// DefaultDailyGoal is used when a user has never set a goal.
const DefaultDailyGoal = 10000

// Calculator computes StepStats. It holds no state besides the fallback goal
// and is safe for concurrent use.
type Calculator struct {
	defaultGoal int
}

// NewCalculator creates a Calculator. A non-positive defaultGoal falls back to DefaultDailyGoal.
func NewCalculator(defaultGoal int) *Calculator {
	if defaultGoal <= 0 {
		defaultGoal = DefaultDailyGoal
	}
	return &Calculator{defaultGoal: defaultGoal}
}

// Compute derives StepStats from summaries as of today.
//
// Summaries may arrive in any order but must hold at most one entry per calendar day.
// A day counts toward a streak when its total meets or exceeds goal. An empty history
// yields all-zero stats.
func (c *Calculator) Compute(summaries []model.DailyStepSummary, goal int, today time.Time) model.StepStats {
	if goal <= 0 {
		goal = c.defaultGoal
	}

	today = dateOf(today)
	weekStart := today.AddDate(0, 0, -daysSinceMonday(today))
	weekEnd := weekStart.AddDate(0, 0, 7)

	result := model.StepStats{DailyGoal: goal}
	byDay := make(map[time.Time]model.DailyStepSummary, len(summaries))

	for _, s := range summaries {
		day := dateOf(s.Date)
		byDay[day] = s

		result.LifetimeSteps += s.TotalSteps
		result.LifetimeDistance += s.TotalDistanceMeters

		if day.Equal(today) {
			result.TodaySteps = s.TotalSteps
			result.TodayDistance = s.TotalDistanceMeters
		}
		if !day.Before(weekStart) && day.Before(weekEnd) {
			result.WeekSteps += s.TotalSteps
			result.WeekDistance += s.TotalDistanceMeters
		}
		if day.Year() == today.Year() && day.Month() == today.Month() {
			result.MonthSteps += s.TotalSteps
			result.MonthDistance += s.TotalDistanceMeters
		}
	}

	result.CurrentStreak = currentStreak(byDay, goal, today)
	result.LongestStreak = max(longestStreak(byDay, goal), result.CurrentStreak)

	return result
}

// currentStreak walks backward from today, or from yesterday when today has not
// met the goal yet. The first missing or short day ends the walk.
func currentStreak(byDay map[time.Time]model.DailyStepSummary, goal int, today time.Time) int {
	start := today
	if !qualifies(byDay, goal, start) {
		start = today.AddDate(0, 0, -1)
		if !qualifies(byDay, goal, start) {
			return 0
		}
	}

	streak := 0
	for day := start; qualifies(byDay, goal, day); day = day.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

// longestStreak scans every maximal run of consecutive qualifying days.
func longestStreak(byDay map[time.Time]model.DailyStepSummary, goal int) int {
	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		if qualifies(byDay, goal, day) {
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		return 0
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}
	return longest
}

func qualifies(byDay map[time.Time]model.DailyStepSummary, goal int, day time.Time) bool {
	s, ok := byDay[day]
	return ok && s.TotalSteps >= goal
}

// dateOf truncates t to midnight UTC of its calendar day in its own location,
// so map lookups and AddDate arithmetic are free of DST and zone offsets.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysSinceMonday maps Monday to 0 and Sunday to 6.
func daysSinceMonday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
