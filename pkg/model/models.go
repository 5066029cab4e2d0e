package model

import "time"

// FitnessDataPoint represents a raw fitness data point synced from the device
type FitnessDataPoint struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Date         time.Time `json:"date"`
	DataType     string    `json:"data_type"` // steps, distance, calories, active_minutes
	Value        float64   `json:"value"`
	Unit         string    `json:"unit"`           // count, meters, kcal, minutes
	Source       string    `json:"source"`         // health_connect, healthkit, google_fit
	SourceDataID string    `json:"source_data_id"` // Original ID from the device platform
	CreatedAt    time.Time `json:"created_at"`
}

// DailyStepSummary is the per-day aggregate of a user's raw step entries
type DailyStepSummary struct {
	Date                time.Time `json:"date"`
	TotalSteps          int       `json:"total_steps"`
	TotalDistanceMeters float64   `json:"total_distance_meters"`
}

// StepStats is derived from a user's daily summaries on every request and never persisted
type StepStats struct {
	TodaySteps       int     `json:"today_steps"`
	TodayDistance    float64 `json:"today_distance"`
	WeekSteps        int     `json:"week_steps"`
	WeekDistance     float64 `json:"week_distance"`
	MonthSteps       int     `json:"month_steps"`
	MonthDistance    float64 `json:"month_distance"`
	LifetimeSteps    int     `json:"lifetime_steps"`
	LifetimeDistance float64 `json:"lifetime_distance"`
	CurrentStreak    int     `json:"current_streak"`
	LongestStreak    int     `json:"longest_streak"`
	DailyGoal        int     `json:"daily_goal"`
}

// StoredAchievement is the persisted record of a milestone a user has reached
type StoredAchievement struct {
	UserID           string    `json:"user_id"`
	MilestoneID      string    `json:"milestone_id"`
	AchievedAt       time.Time `json:"achieved_at"`
	AchievementCount int       `json:"achievement_count"`
}

// AnalyticsEvent is a tracked product event
type AnalyticsEvent struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id,omitempty"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
