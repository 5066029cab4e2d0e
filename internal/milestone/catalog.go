package milestone

// DefaultDefinitions returns the milestone catalog shipped with the app.
func DefaultDefinitions() []Definition {
	return []Definition{
		// Social
		{
			ID: "first_friend", Category: CategorySocial,
			Evaluator: FirstTime{Metric: MetricFriendCount},
			Event:     "milestone_first_friend",
		},
		{
			ID: "friends_5", Category: CategorySocial,
			Evaluator:       Threshold{Metric: MetricFriendCount, Value: 5},
			Event:           "milestone_friends_reached",
			EventProperties: map[string]any{"friend_count": 5},
		},
		{
			ID: "friends_25", Category: CategorySocial,
			Evaluator:       Threshold{Metric: MetricFriendCount, Value: 25},
			Event:           "milestone_friends_reached",
			EventProperties: map[string]any{"friend_count": 25},
		},
		{
			ID: "first_group", Category: CategorySocial,
			Evaluator: FirstTime{Metric: MetricGroupCount},
			Event:     "milestone_first_group",
		},
		{
			ID: "groups_3", Category: CategorySocial,
			Evaluator:       Threshold{Metric: MetricGroupCount, Value: 3},
			Event:           "milestone_groups_reached",
			EventProperties: map[string]any{"group_count": 3},
		},

		// Streaks
		{
			ID: "streak_3", Category: CategoryStreak,
			Evaluator:       Crossed(MetricCurrentStreak, 3),
			Event:           "milestone_streak_reached",
			EventProperties: map[string]any{"streak_days": 3},
			Repeatable:      true,
		},
		{
			ID: "streak_7", Category: CategoryStreak,
			Evaluator:       Crossed(MetricCurrentStreak, 7),
			Event:           "milestone_streak_reached",
			EventProperties: map[string]any{"streak_days": 7},
			Repeatable:      true,
		},
		{
			ID: "streak_30", Category: CategoryStreak,
			Evaluator:       Crossed(MetricCurrentStreak, 30),
			Event:           "milestone_streak_reached",
			EventProperties: map[string]any{"streak_days": 30},
			Repeatable:      true,
		},
		{
			ID: "new_longest_streak", Category: CategoryStreak,
			Evaluator:  Comparison{Metric: MetricLongestStreak},
			Event:      "milestone_personal_best_streak",
			Repeatable: true,
		},

		// Fitness
		{
			ID: "first_steps", Category: CategoryFitness,
			Evaluator: FirstTime{Metric: MetricTotalSteps},
			Event:     "milestone_first_steps",
		},
		{
			ID: "steps_100k", Category: CategoryFitness,
			Evaluator:       Threshold{Metric: MetricTotalSteps, Value: 100_000},
			Event:           "milestone_total_steps",
			EventProperties: map[string]any{"total_steps": 100_000},
		},
		{
			ID: "steps_1m", Category: CategoryFitness,
			Evaluator:       Threshold{Metric: MetricTotalSteps, Value: 1_000_000},
			Event:           "milestone_total_steps",
			EventProperties: map[string]any{"total_steps": 1_000_000},
		},
		{
			ID: "daily_goal_met", Category: CategoryFitness,
			Evaluator:  CrossedMetric(MetricTodaySteps, MetricDailyGoal),
			Event:      "milestone_daily_goal_met",
			Repeatable: true,
		},

		// Achievement
		{
			ID: "marathon_day", Category: CategoryAchievement,
			Evaluator:       Threshold{Metric: MetricTodaySteps, Value: 42_000},
			Event:           "milestone_marathon_day",
			EventProperties: map[string]any{"steps": 42_000},
		},

		// Competition
		{
			ID: "week_70k", Category: CategoryCompetition,
			Evaluator:       Crossed(MetricWeekSteps, 70_000),
			Event:           "milestone_weekly_target",
			EventProperties: map[string]any{"week_steps": 70_000},
			Repeatable:      true,
		},
	}
}
