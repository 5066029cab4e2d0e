package analytics

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrSinkClosed is returned by Track after Close
var ErrSinkClosed = errors.New("analytics sink closed")

// Sink is anything that can receive an analytics event
type Sink interface {
	Track(ctx context.Context, userID, event string, properties map[string]any) error
}

type queuedEvent struct {
	userID     string
	event      string
	properties map[string]any
}

// AsyncSink forwards events to another Sink from a single background worker.
// Track never blocks: when the buffer is full the event is dropped and logged.
type AsyncSink struct {
	next    Sink
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan queuedEvent
	done   chan struct{}
}

// NewAsyncSink starts the worker. bufferSize below 1 is treated as 1.
func NewAsyncSink(next Sink, bufferSize int, timeout time.Duration, logger *zap.Logger) *AsyncSink {
	if bufferSize < 1 {
		bufferSize = 1
	}
	s := &AsyncSink{
		next:    next,
		timeout: timeout,
		logger:  logger,
		queue:   make(chan queuedEvent, bufferSize),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Track enqueues the event
func (s *AsyncSink) Track(_ context.Context, userID, event string, properties map[string]any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrSinkClosed
	}

	select {
	case s.queue <- queuedEvent{userID: userID, event: event, properties: maps.Clone(properties)}:
		return nil
	default:
		s.logger.Warn("Analytics buffer full, dropping event",
			zap.String("user_id", userID),
			zap.String("event", event),
		)
		return nil
	}
}

func (s *AsyncSink) run() {
	defer close(s.done)

	for ev := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		if err := s.next.Track(ctx, ev.userID, ev.event, ev.properties); err != nil {
			s.logger.Warn("Failed to deliver analytics event",
				zap.Error(err),
				zap.String("user_id", ev.userID),
				zap.String("event", ev.event),
			)
		}
		cancel()
	}
}

// Close stops accepting events and waits until the buffer is drained or ctx ends
func (s *AsyncSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
