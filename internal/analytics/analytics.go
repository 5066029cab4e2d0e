package analytics

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vcscsvcscs/stride/apps/backend/pkg/model"
	"go.uber.org/zap"
)

// Event names emitted outside the milestone catalog
const (
	EventStepsSynced    = "steps_synced"
	EventGoalUpdated    = "daily_goal_updated"
	EventFriendAdded    = "friend_added"
	EventGroupJoined    = "group_joined"
	EventMilestoneReset = "milestone_reset"
)

// DatabaseSink persists analytics events to the analytics_events table
type DatabaseSink struct {
	db     *pgxpool.Pool
	logger *zap.Logger
	now    func() time.Time
}

// NewDatabaseSink creates a new database-backed analytics sink
func NewDatabaseSink(db *pgxpool.Pool, logger *zap.Logger) *DatabaseSink {
	return &DatabaseSink{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Track stores one analytics event
func (s *DatabaseSink) Track(ctx context.Context, userID, event string, properties map[string]any) error {
	entry := model.AnalyticsEvent{
		ID:         uuid.New().String(),
		UserID:     userID,
		Name:       event,
		Properties: maps.Clone(properties),
		CreatedAt:  s.now().UTC(),
	}

	s.logger.Debug("Analytics event",
		zap.String("user_id", entry.UserID),
		zap.String("event", entry.Name),
		zap.String("event_id", entry.ID),
	)

	query := `
		INSERT INTO analytics_events (id, user_id, event_name, properties, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5)
	`

	_, err := s.db.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Name,
		entry.Properties,
		entry.CreatedAt,
	)
	if err != nil {
		s.logger.Error("Failed to write analytics event to database",
			zap.Error(err),
			zap.String("user_id", entry.UserID),
			zap.String("event", entry.Name),
		)
		return fmt.Errorf("failed to write analytics event: %w", err)
	}

	return nil
}

// Recent retrieves the newest analytics events for a user
func (s *DatabaseSink) Recent(ctx context.Context, userID string, limit int) ([]model.AnalyticsEvent, error) {
	query := `
		SELECT id, COALESCE(user_id, ''), event_name, properties, created_at
		FROM analytics_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		s.logger.Error("Failed to query analytics events", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to query analytics events: %w", err)
	}
	defer rows.Close()

	var events []model.AnalyticsEvent
	for rows.Next() {
		var ev model.AnalyticsEvent
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.Name, &ev.Properties, &ev.CreatedAt); err != nil {
			s.logger.Error("Failed to scan analytics event", zap.Error(err), zap.String("user_id", userID))
			return nil, fmt.Errorf("failed to scan analytics event: %w", err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analytics events: %w", err)
	}

	return events, nil
}

// LogSink writes analytics events to the structured log only
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new log-only analytics sink
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Track logs the event
func (s *LogSink) Track(_ context.Context, userID, event string, properties map[string]any) error {
	s.logger.Info("Analytics event",
		zap.String("user_id", userID),
		zap.String("event", event),
		zap.Any("properties", properties),
	)
	return nil
}

// NopSink discards every event
type NopSink struct{}

// Track is a no-op
func (NopSink) Track(context.Context, string, string, map[string]any) error { return nil }
