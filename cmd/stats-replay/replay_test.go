package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReadHistory(t *testing.T) {
	days, err := readHistory(strings.NewReader(`[
		{"date":"2025-07-03","total_steps":500},
		{"date":"2025-07-01","total_steps":1000,"total_distance_meters":800},
		{"date":"2025-07-03","total_steps":250}
	]`))
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.Equal(t, "2025-07-01", days[0].Date.Format("2006-01-02"))
	assert.Equal(t, 1000, days[0].TotalSteps)
	assert.Equal(t, 750, days[1].TotalSteps)
}

func TestReadHistory_Invalid(t *testing.T) {
	_, err := readHistory(strings.NewReader(`[{"date":"07/01/2025","total_steps":1}]`))
	assert.Error(t, err)

	_, err = readHistory(strings.NewReader(`[{"date":"2025-07-01","total_steps":-1}]`))
	assert.Error(t, err)

	_, err = readHistory(strings.NewReader(`{`))
	assert.Error(t, err)
}

func TestReplay(t *testing.T) {
	days, err := readHistory(strings.NewReader(`[
		{"date":"2025-07-01","total_steps":9000},
		{"date":"2025-07-02","total_steps":10000},
		{"date":"2025-07-03","total_steps":12000},
		{"date":"2025-07-04","total_steps":11000},
		{"date":"2025-07-05","total_steps":2000}
	]`))
	require.NoError(t, err)

	report, err := replay(context.Background(), days, 10000, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, report.Days, 5)

	assert.Contains(t, report.Days[0].Milestones, "first_steps")
	assert.NotContains(t, report.Days[0].Milestones, "daily_goal_met")
	assert.Contains(t, report.Days[1].Milestones, "daily_goal_met")
	assert.Contains(t, report.Days[3].Milestones, "streak_3")
	assert.Equal(t, 3, report.Days[3].Streak)
	assert.Empty(t, report.Days[4].Milestones)

	assert.Equal(t, 44000, report.Final.LifetimeSteps)
	assert.Equal(t, 3, report.Final.LongestStreak)

	ids := make([]string, 0, len(report.Achieved))
	for _, a := range report.Achieved {
		ids = append(ids, a.MilestoneID)
	}
	assert.Contains(t, ids, "first_steps")
	assert.Contains(t, ids, "streak_3")
}

func TestReplay_EmptyHistory(t *testing.T) {
	report, err := replay(context.Background(), nil, 0, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, report.Days)
	assert.Empty(t, report.Achieved)
}
