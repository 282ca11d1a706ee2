package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	id "taxdesk/pkg/domain"
	"taxdesk/pkg/requestcontext"
)

// Recorder stamps and appends entries synchronously. A failed append is
// returned to the caller so the surrounding operation fails with it.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	entries *prometheus.CounterVec
	now     func(context.Context) time.Time

	mu   sync.Mutex
	last time.Time
}

type RecorderOption func(*Recorder)

func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithEntryCounter counts appended entries by category.
func WithEntryCounter(c *prometheus.CounterVec) RecorderOption {
	return func(r *Recorder) {
		r.entries = c
	}
}

// WithClock overrides the time source. Defaults to requestcontext.Now.
func WithClock(now func(context.Context) time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store: store,
		now:   requestcontext.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends one entry for a completed mutation and returns it.
func (r *Recorder) Record(ctx context.Context, actor Actor, action Action, entityType EntityType, entityID string, oldValue, newValue *string) (*Entry, error) {
	entry := &Entry{
		ID:         id.NewAuditEntryID(),
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		OldValue:   oldValue,
		NewValue:   newValue,
		RequestID:  requestcontext.RequestID(ctx),
	}

	// Stamping and appending share the lock so that timestamp order and
	// append order cannot diverge.
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.Timestamp = r.nextTimestamp(ctx)
	if err := r.store.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("append audit entry: %w", err)
	}
	r.last = entry.Timestamp

	if r.entries != nil {
		r.entries.WithLabelValues(string(action.Category())).Inc()
	}
	if r.logger != nil {
		r.logger.InfoContext(ctx, string(action),
			"log_type", "audit",
			"category", action.Category(),
			"actor_id", actor.ID.String(),
			"entity_type", entityType,
			"entity_id", entityID,
			"request_id", entry.RequestID,
		)
	}
	return entry, nil
}

// nextTimestamp never returns a time at or before the previous entry.
// Request-pinned clocks hand out the same instant for every entry written
// during one request.
func (r *Recorder) nextTimestamp(ctx context.Context) time.Time {
	ts := r.now(ctx).UTC()
	if !r.last.IsZero() && !ts.After(r.last) {
		ts = r.last.Add(time.Nanosecond)
	}
	return ts
}
