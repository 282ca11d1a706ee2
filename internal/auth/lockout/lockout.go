// Package lockout throttles sign-in. Repeated failures for the same email
// from the same client IP lock that pair out for a while; a successful
// sign-in clears the count.
package lockout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	dErrors "taxdesk/pkg/domain-errors"
	"taxdesk/pkg/requestcontext"
)

const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 15 * time.Minute
	DefaultLockout     = 15 * time.Minute
)

// Store counts failures per key. Counts expire window after the first
// failure; locks expire on their own.
type Store interface {
	RecordFailure(ctx context.Context, key string, window time.Duration) (int, error)
	Lock(ctx context.Context, key string, until time.Time) error
	LockedUntil(ctx context.Context, key string) (time.Time, bool, error)
	Clear(ctx context.Context, key string) error
}

type Guard struct {
	store       Store
	maxAttempts int
	window      time.Duration
	lockout     time.Duration
	logger      *slog.Logger
}

type Option func(*Guard)

// WithLimits overrides the defaults. Non-positive values keep the default.
func WithLimits(maxAttempts int, window, lockout time.Duration) Option {
	return func(g *Guard) {
		if maxAttempts > 0 {
			g.maxAttempts = maxAttempts
		}
		if window > 0 {
			g.window = window
		}
		if lockout > 0 {
			g.lockout = lockout
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

func New(store Store, opts ...Option) (*Guard, error) {
	if store == nil {
		return nil, errors.New("lockout store is required")
	}
	g := &Guard{
		store:       store,
		maxAttempts: DefaultMaxAttempts,
		window:      DefaultWindow,
		lockout:     DefaultLockout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func key(email, ip string) string {
	return strings.ToLower(strings.TrimSpace(email)) + "|" + ip
}

// Check rejects a locked pair with TooManyRequests.
func (g *Guard) Check(ctx context.Context, email, ip string) error {
	until, locked, err := g.store.LockedUntil(ctx, key(email, ip))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read sign-in lockout")
	}
	now := requestcontext.Now(ctx)
	if !locked || !until.After(now) {
		return nil
	}
	minutes := int(math.Ceil(until.Sub(now).Minutes()))
	return dErrors.New(dErrors.CodeTooManyRequests,
		fmt.Sprintf("Too many failed sign-in attempts. Try again in %d minute(s).", minutes))
}

// RecordFailure counts a failed attempt and locks the pair once the limit is
// reached.
func (g *Guard) RecordFailure(ctx context.Context, email, ip string) error {
	k := key(email, ip)
	n, err := g.store.RecordFailure(ctx, k, g.window)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record sign-in failure")
	}
	if n < g.maxAttempts {
		return nil
	}
	until := requestcontext.Now(ctx).Add(g.lockout)
	if err := g.store.Lock(ctx, k, until); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock sign-in")
	}
	g.logger.WarnContext(ctx, "sign-in locked", "ip", ip, "failures", n, "locked_until", until)
	return nil
}

func (g *Guard) Clear(ctx context.Context, email, ip string) error {
	if err := g.store.Clear(ctx, key(email, ip)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear sign-in failures")
	}
	return nil
}
