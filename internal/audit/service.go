// Package audit serves the audit log page: filtered entry listings and the
// summary counters above them. Writing entries is pkg/platform/audit's job.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	actormodels "taxdesk/internal/actors/models"
	"taxdesk/internal/permission"
	id "taxdesk/pkg/domain"
	dErrors "taxdesk/pkg/domain-errors"
	platformaudit "taxdesk/pkg/platform/audit"
	"taxdesk/pkg/requestcontext"
)

// DefaultLimit caps listings when the caller does not ask for a limit.
const DefaultLimit = 200

type Store interface {
	List(ctx context.Context, filter platformaudit.Filter) ([]platformaudit.Entry, error)
	Count(ctx context.Context) (int, error)
}

type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("audit store is required")
	}
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List returns matching entries, newest first.
func (s *Service) List(ctx context.Context, actor *actormodels.Actor, filter platformaudit.Filter) ([]platformaudit.Entry, error) {
	if err := permission.RequireSuperAdmin(actor); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultLimit
	}
	entries, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit entries")
	}
	return entries, nil
}

// Summary is the three counters on the audit log page.
type Summary struct {
	Total        int `json:"total"`
	Today        int `json:"today"`
	UniqueActors int `json:"uniqueActors"`
}

// Summary counts every entry. Today is the UTC calendar day of the request.
func (s *Service) Summary(ctx context.Context, actor *actormodels.Actor) (*Summary, error) {
	if err := permission.RequireSuperAdmin(actor); err != nil {
		return nil, err
	}
	entries, err := s.store.List(ctx, platformaudit.Filter{})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit entries")
	}
	today := startOfDay(requestcontext.Now(ctx))
	actors := make(map[id.ActorID]struct{})
	sum := &Summary{Total: len(entries)}
	for _, e := range entries {
		actors[e.ActorID] = struct{}{}
		if !e.Timestamp.Before(today) && e.Timestamp.Before(today.AddDate(0, 0, 1)) {
			sum.Today++
		}
	}
	sum.UniqueActors = len(actors)
	return sum, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
