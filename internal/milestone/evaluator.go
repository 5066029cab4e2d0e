package milestone

import "fmt"

// Metric names shared by the registry and the snapshot builders.
const (
	MetricTodaySteps    = "today_steps"
	MetricWeekSteps     = "week_steps"
	MetricMonthSteps    = "month_steps"
	MetricTotalSteps    = "total_steps"
	MetricCurrentStreak = "current_streak"
	MetricLongestStreak = "longest_streak"
	MetricDailyGoal     = "daily_goal"
	MetricFriendCount   = "friend_count"
	MetricGroupCount    = "group_count"
)

// MetricContext is the current-vs-previous metric snapshot for one evaluation call.
// A metric missing from either map reads as 0.
type MetricContext struct {
	UserID          string             `json:"user_id"`
	CurrentMetrics  map[string]float64 `json:"current_metrics"`
	PreviousMetrics map[string]float64 `json:"previous_metrics"`
}

// Current returns the current value of metric, or 0 when it was not supplied.
func (c MetricContext) Current(metric string) float64 {
	return c.CurrentMetrics[metric]
}

// Previous returns the previous value of metric, or 0 when it was not supplied.
func (c MetricContext) Previous(metric string) float64 {
	return c.PreviousMetrics[metric]
}

// EvaluatorSpec is the closed set of milestone conditions. The unexported method
// keeps the set closed to this package: adding a kind means adding a case to Evaluate.
type EvaluatorSpec interface {
	kind() string
}

// Threshold is achieved when the current value reaches Value.
type Threshold struct {
	Metric string
	Value  float64
}

// FirstTime is achieved when a metric moves off zero.
type FirstTime struct {
	Metric string
}

// Comparison is achieved when a metric strictly increases.
type Comparison struct {
	Metric string
}

// Custom delegates to a caller-supplied predicate. Fn must be pure.
type Custom struct {
	Name string
	Fn   func(MetricContext) bool
}

func (Threshold) kind() string  { return "threshold" }
func (FirstTime) kind() string  { return "first_time" }
func (Comparison) kind() string { return "comparison" }
func (Custom) kind() string     { return "custom" }

// Evaluate decides whether spec holds for ctx. It never touches storage.
func Evaluate(spec EvaluatorSpec, ctx MetricContext) bool {
	switch s := spec.(type) {
	case Threshold:
		return ctx.Current(s.Metric) >= s.Value
	case FirstTime:
		return ctx.Previous(s.Metric) == 0 && ctx.Current(s.Metric) > 0
	case Comparison:
		return ctx.Current(s.Metric) > ctx.Previous(s.Metric)
	case Custom:
		return s.Fn != nil && s.Fn(ctx)
	default:
		return false
	}
}

// Crossed builds a Custom spec that holds only on the call where metric moves
// from below value to at-or-above it. Used for repeatable tiers such as streak lengths.
func Crossed(metric string, value float64) Custom {
	return Custom{
		Name: fmt.Sprintf("crossed(%s,%g)", metric, value),
		Fn: func(ctx MetricContext) bool {
			return ctx.Previous(metric) < value && ctx.Current(metric) >= value
		},
	}
}

// CrossedMetric is like Crossed but the bar is another metric of the same context,
// e.g. today's steps reaching today's goal.
func CrossedMetric(metric, bar string) Custom {
	return Custom{
		Name: fmt.Sprintf("crossed(%s,%s)", metric, bar),
		Fn: func(ctx MetricContext) bool {
			goal := ctx.Current(bar)
			if goal <= 0 {
				return false
			}
			return ctx.Previous(metric) < goal && ctx.Current(metric) >= goal
		},
	}
}

func describe(spec EvaluatorSpec) string {
	switch s := spec.(type) {
	case Threshold:
		return fmt.Sprintf("threshold(%s>=%g)", s.Metric, s.Value)
	case FirstTime:
		return fmt.Sprintf("first_time(%s)", s.Metric)
	case Comparison:
		return fmt.Sprintf("comparison(%s)", s.Metric)
	case Custom:
		return s.Name
	default:
		return "unknown"
	}
}
