// Package service resolves who is acting on each request: it signs staff in,
// turns access tokens back into actors, and signs them out.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	actormodels "taxdesk/internal/actors/models"
	"taxdesk/internal/actors/secrets"
	"taxdesk/internal/auth/device"
	"taxdesk/internal/auth/models"
	id "taxdesk/pkg/domain"
	dErrors "taxdesk/pkg/domain-errors"
	"taxdesk/pkg/platform/audit"
	"taxdesk/pkg/platform/sentinel"
	"taxdesk/pkg/platform/tracing"
	"taxdesk/pkg/requestcontext"
)

const (
	DefaultSessionTTL = 8 * time.Hour

	msgInvalidCredentials = "invalid email or password"
	msgSessionExpired     = "Session expired. Please log in again."
)

type ActorStore interface {
	FindByID(ctx context.Context, actorID id.ActorID) (*actormodels.Actor, error)
	FindByEmail(ctx context.Context, email string) (*actormodels.Actor, error)
}

type SessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Delete(ctx context.Context, sessionID id.SessionID) error
	DeleteByActor(ctx context.Context, actorID id.ActorID) (int, error)
}

type TokenService interface {
	Issue(actorID id.ActorID, sessionID id.SessionID, expiresAt time.Time) (string, error)
	Validate(raw string) (id.SessionID, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, actor audit.Actor, action audit.Action, entityType audit.EntityType, entityID string, oldValue, newValue *string) (*audit.Entry, error)
}

// SignInLimiter throttles repeated failed sign-ins.
type SignInLimiter interface {
	Check(ctx context.Context, email, ip string) error
	RecordFailure(ctx context.Context, email, ip string) error
	Clear(ctx context.Context, email, ip string) error
}

type Service struct {
	actors   ActorStore
	sessions SessionStore
	tokens   TokenService
	auditor  AuditRecorder
	ttl      time.Duration
	logger   *slog.Logger
	tracer   trace.Tracer
	logins   *prometheus.CounterVec
	limiter  SignInLimiter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLoginCounter counts sign-in attempts by outcome (success, failure).
func WithLoginCounter(c *prometheus.CounterVec) Option {
	return func(s *Service) {
		s.logins = c
	}
}

func WithSignInLimiter(l SignInLimiter) Option {
	return func(s *Service) {
		s.limiter = l
	}
}

func New(actors ActorStore, sessions SessionStore, tokens TokenService, auditor AuditRecorder, opts ...Option) (*Service, error) {
	if actors == nil {
		return nil, errors.New("actor store is required")
	}
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if tokens == nil {
		return nil, errors.New("token service is required")
	}
	if auditor == nil {
		return nil, errors.New("audit recorder is required")
	}
	s := &Service{
		actors:   actors,
		sessions: sessions,
		tokens:   tokens,
		auditor:  auditor,
		ttl:      DefaultSessionTTL,
		logger:   slog.Default(),
		tracer:   tracing.Tracer("taxdesk/auth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// LoginResult is returned on successful sign-in.
type LoginResult struct {
	AccessToken string             `json:"accessToken"`
	ExpiresAt   time.Time          `json:"expiresAt"`
	Session     *models.Session    `json:"session"`
	Actor       *actormodels.Actor `json:"admin"`
}

// Authenticate signs a staff member in. Unknown email, wrong password and
// inactive account are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (result *LoginResult, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "auth.Authenticate")
	defer func() {
		tracing.Finish(span, err)
		s.countLogin(err)
	}()

	email = strings.ToLower(strings.TrimSpace(email))
	ip := requestcontext.ClientIP(ctx)
	if s.limiter != nil {
		if err := s.limiter.Check(ctx, email, ip); err != nil {
			s.logger.InfoContext(ctx, "sign-in rejected", "reason", "locked_out")
			return nil, err
		}
	}

	actor, reason, err := s.verify(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		s.logger.InfoContext(ctx, "sign-in rejected", "reason", reason)
		if s.limiter != nil {
			if lerr := s.limiter.RecordFailure(ctx, email, ip); lerr != nil {
				s.logger.WarnContext(ctx, "could not record sign-in failure", "error", lerr)
			}
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, msgInvalidCredentials)
	}
	if s.limiter != nil {
		if lerr := s.limiter.Clear(ctx, email, ip); lerr != nil {
			s.logger.WarnContext(ctx, "could not clear sign-in failures", "error", lerr)
		}
	}

	now := requestcontext.Now(ctx)
	session := &models.Session{
		ID:        id.NewSessionID(),
		ActorID:   actor.ID,
		Device:    device.ParseUserAgent(requestcontext.UserAgent(ctx)),
		ClientIP:  ip,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	accessToken, err := s.tokens.Issue(actor.ID, session.ID, session.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save session")
	}
	if _, err := s.auditor.Record(ctx, actor.AuditActor(), audit.ActionSignedIn, audit.EntitySession, session.ID.String(),
		nil, audit.Value(session.Device)); err != nil {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit entry")
	}

	s.logger.InfoContext(ctx, "signed in", "actor_id", actor.ID.String(), "session_id", session.ID.String())
	return &LoginResult{
		AccessToken: accessToken,
		ExpiresAt:   session.ExpiresAt,
		Session:     session,
		Actor:       actor.Clone(),
	}, nil
}

// verify returns the account when the credentials are good, or a rejection
// reason. Unknown emails still pay for a bcrypt comparison.
func (s *Service) verify(ctx context.Context, email, password string) (*actormodels.Actor, string, error) {
	actor, err := s.actors.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		secrets.Burn(password)
		return nil, "unknown_email", nil
	case err != nil:
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if !secrets.Verify(password, actor.PasswordHash) {
		return nil, "bad_password", nil
	}
	if !actor.IsActive {
		return nil, "inactive", nil
	}
	return actor, "", nil
}

// CurrentActor resolves a bearer token to the acting account. Every failure
// is an AuthFailure so callers can prompt for a new sign-in.
func (s *Service) CurrentActor(ctx context.Context, accessToken string) (*actormodels.Actor, *models.Session, error) {
	sessionID, err := s.tokens.Validate(accessToken)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, msgSessionExpired)
	}
	session, err := s.sessions.FindByID(ctx, sessionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil, dErrors.New(dErrors.CodeUnauthorized, msgSessionExpired)
	}
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if session.IsExpired(requestcontext.Now(ctx)) {
		return nil, nil, dErrors.New(dErrors.CodeUnauthorized, msgSessionExpired)
	}
	actor, err := s.actors.FindByID(ctx, session.ActorID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil, dErrors.New(dErrors.CodeUnauthorized, msgSessionExpired)
	}
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if !actor.IsActive {
		return nil, nil, dErrors.New(dErrors.CodeUnauthorized, msgSessionExpired)
	}
	return actor.Clone(), session, nil
}

// Logout ends the session. Ending an already-ended session is not an error.
func (s *Service) Logout(ctx context.Context, actor *actormodels.Actor, sessionID id.SessionID) (err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "auth.Logout")
	defer func() { tracing.Finish(span, err) }()

	if actor == nil {
		return dErrors.New(dErrors.CodeUnauthorized, msgSessionExpired)
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete session")
	}
	if _, err := s.auditor.Record(ctx, actor.AuditActor(), audit.ActionSignedOut, audit.EntitySession, sessionID.String(), nil, nil); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit entry")
	}
	s.logger.InfoContext(ctx, "signed out", "actor_id", actor.ID.String(), "session_id", sessionID.String())
	return nil
}

// RevokeActor ends every session of an account that was deactivated or
// deleted.
func (s *Service) RevokeActor(ctx context.Context, actorID id.ActorID) error {
	n, err := s.sessions.DeleteByActor(ctx, actorID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke sessions")
	}
	s.logger.InfoContext(ctx, "sessions revoked", "actor_id", actorID.String(), "count", n)
	return nil
}

func (s *Service) countLogin(err error) {
	if s.logins == nil {
		return
	}
	outcome := "success"
	switch {
	case dErrors.HasCode(err, dErrors.CodeTooManyRequests):
		outcome = "locked_out"
	case err != nil:
		outcome = "failure"
	}
	s.logins.WithLabelValues(outcome).Inc()
}
