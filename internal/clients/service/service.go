// Package service owns the client aggregate. Every mutation runs the same
// sequence inside one unit of work keyed by client: authorize, validate,
// load, mutate, save, audit. A rejected operation leaves nothing behind.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	actormodels "taxdesk/internal/actors/models"
	"taxdesk/internal/clients/metrics"
	"taxdesk/internal/clients/models"
	"taxdesk/internal/workflow"
	id "taxdesk/pkg/domain"
	dErrors "taxdesk/pkg/domain-errors"
	"taxdesk/pkg/platform/audit"
	"taxdesk/pkg/platform/sentinel"
	"taxdesk/pkg/platform/tracing"
	"taxdesk/pkg/platform/tx"
)

type ClientStore interface {
	FindByID(ctx context.Context, clientID id.ClientID) (*models.Client, error)
	Save(ctx context.Context, c *models.Client) error
	List(ctx context.Context, filter models.ListFilter) ([]*models.Client, error)
	Delete(ctx context.Context, clientID id.ClientID) error
}

type DocumentStore interface {
	FindByID(ctx context.Context, documentID id.DocumentID) (*models.Document, error)
	Save(ctx context.Context, d *models.Document) error
	ListByClient(ctx context.Context, clientID id.ClientID) ([]*models.Document, error)
	List(ctx context.Context, status models.DocumentStatus) ([]*models.Document, error)
	CountByStatus(ctx context.Context) (map[models.DocumentStatus]int, error)
	Delete(ctx context.Context, documentID id.DocumentID) error
	DeleteByClient(ctx context.Context, clientID id.ClientID) error
}

type PaymentStore interface {
	Append(ctx context.Context, p *models.Payment) error
	ListByClient(ctx context.Context, clientID id.ClientID) ([]*models.Payment, error)
	SumByClient(ctx context.Context, clientID id.ClientID) (models.Money, error)
	DeleteByClient(ctx context.Context, clientID id.ClientID) error
}

type NoteStore interface {
	Append(ctx context.Context, n *models.Note) error
	ListByClient(ctx context.Context, clientID id.ClientID) ([]*models.Note, error)
	DeleteByClient(ctx context.Context, clientID id.ClientID) error
}

// AdminDirectory resolves assignees.
type AdminDirectory interface {
	FindActive(ctx context.Context, adminID id.ActorID) (*actormodels.Actor, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, actor audit.Actor, action audit.Action, entityType audit.EntityType, entityID string, oldValue, newValue *string) (*audit.Entry, error)
}

type Service struct {
	clients           ClientStore
	documents         DocumentStore
	payments          PaymentStore
	notes             NoteStore
	tx                tx.Runner
	auditor           AuditRecorder
	admins            AdminDirectory
	policy            workflow.Policy
	rejectOverpayment bool
	logger            *slog.Logger
	tracer            trace.Tracer
	metrics           *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPolicy replaces the default unrestricted transition policy.
func WithPolicy(p workflow.Policy) Option {
	return func(s *Service) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithOverpaymentRejected makes AddPayment refuse payments that would take
// the paid amount past the total.
func WithOverpaymentRejected(reject bool) Option {
	return func(s *Service) {
		s.rejectOverpayment = reject
	}
}

func WithAdminDirectory(d AdminDirectory) Option {
	return func(s *Service) {
		s.admins = d
	}
}

func New(
	clients ClientStore,
	documents DocumentStore,
	payments PaymentStore,
	notes NoteStore,
	runner tx.Runner,
	auditor AuditRecorder,
	opts ...Option,
) (*Service, error) {
	switch {
	case clients == nil:
		return nil, errors.New("client store is required")
	case documents == nil:
		return nil, errors.New("document store is required")
	case payments == nil:
		return nil, errors.New("payment store is required")
	case notes == nil:
		return nil, errors.New("note store is required")
	case runner == nil:
		return nil, errors.New("tx runner is required")
	case auditor == nil:
		return nil, errors.New("audit recorder is required")
	}
	s := &Service{
		clients:   clients,
		documents: documents,
		payments:  payments,
		notes:     notes,
		tx:        runner,
		auditor:   auditor,
		policy:    workflow.Unrestricted{},
		logger:    slog.Default(),
		tracer:    tracing.Tracer("taxdesk/clients"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Policy is the active transition policy.
func (s *Service) Policy() workflow.Policy {
	return s.policy
}

// begin opens a span and returns the func that closes it, counts rejections
// and observes the duration.
func (s *Service) begin(ctx context.Context, op string, kv ...string) (context.Context, func(*error)) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, s.tracer, "clients."+op, kv...)
	return ctx, func(errp *error) {
		err := *errp
		tracing.Finish(span, err)
		if s.metrics == nil {
			return
		}
		s.metrics.ObserveOperation(op, start)
		if err != nil {
			s.metrics.IncrementRejection(op, string(dErrors.CodeOf(err)))
		}
	}
}

func requireActor(actor *actormodels.Actor) error {
	if actor == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "Session expired. Please log in again.")
	}
	return nil
}

func (s *Service) loadClient(ctx context.Context, clientID id.ClientID) (*models.Client, error) {
	c, err := s.clients.FindByID(ctx, clientID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "Client not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client")
	}
	return c, nil
}

func (s *Service) loadDocument(ctx context.Context, documentID id.DocumentID) (*models.Document, error) {
	d, err := s.documents.FindByID(ctx, documentID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "Document not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
	}
	return d, nil
}

func (s *Service) saveClient(ctx context.Context, c *models.Client) error {
	if err := s.clients.Save(ctx, c); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save client")
	}
	return nil
}

func (s *Service) record(ctx context.Context, actor *actormodels.Actor, action audit.Action, entityType audit.EntityType, entityID string, oldValue, newValue *string) error {
	if _, err := s.auditor.Record(ctx, actor.AuditActor(), action, entityType, entityID, oldValue, newValue); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit entry")
	}
	return nil
}

// invariantToValidation surfaces model invariant failures as input errors.
func invariantToValidation(err error) error {
	if de, ok := dErrors.As(err); ok && de.Code == dErrors.CodeInvariantViolation {
		return dErrors.New(dErrors.CodeValidation, de.Message)
	}
	return err
}
