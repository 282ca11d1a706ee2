// Package outbox relays audit entries committed to the outbox table onto the
// audit topic. Delivery is at-least-once: rows are marked published only after
// the broker acknowledged them.
package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

//go:generate mockgen -source=relay.go -destination=mocks/mocks.go -package=mocks Source,Publisher

// Record is one committed, possibly unpublished, outbox row.
type Record struct {
	ID        int64
	EntryID   string
	Category  string
	Payload   []byte
	CreatedAt time.Time
}

// Source reads and acknowledges outbox rows.
type Source interface {
	Pending(ctx context.Context, limit int) ([]Record, error)
	MarkPublished(ctx context.Context, ids []int64, at time.Time) error
}

// Publisher delivers records to the broker. Publish returns only after all
// records were acknowledged or one failed.
type Publisher interface {
	Publish(ctx context.Context, records []Record) error
}

type Relay struct {
	source    Source
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	now       func() time.Time

	published prometheus.Counter
	lag       prometheus.Gauge
}

type Option func(*Relay)

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithMetrics wires the published counter and the lag gauge (seconds between
// commit and publication of the newest record in a batch).
func WithMetrics(published prometheus.Counter, lag prometheus.Gauge) Option {
	return func(r *Relay) {
		r.published = published
		r.lag = lag
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Relay) {
		r.now = now
	}
}

func NewRelay(source Source, publisher Publisher, logger *slog.Logger, opts ...Option) *Relay {
	r := &Relay{
		source:    source,
		publisher: publisher,
		logger:    logger,
		interval:  time.Second,
		batchSize: 100,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until ctx is cancelled. Publish failures are logged and retried
// on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for {
				n, err := r.Drain(ctx)
				if err != nil {
					r.logger.WarnContext(ctx, "audit outbox relay failed", "error", err)
					break
				}
				if n < r.batchSize {
					break
				}
			}
		}
	}
}

// Drain publishes one batch and returns how many records it relayed.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	records, err := r.source.Pending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	if err := r.publisher.Publish(ctx, records); err != nil {
		return 0, err
	}

	ids := make([]int64, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	now := r.now()
	if err := r.source.MarkPublished(ctx, ids, now); err != nil {
		return 0, err
	}

	if r.published != nil {
		r.published.Add(float64(len(records)))
	}
	if r.lag != nil {
		r.lag.Set(now.Sub(records[len(records)-1].CreatedAt).Seconds())
	}
	return len(records), nil
}
