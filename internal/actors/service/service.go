// Package service implements staff account management. Every operation here
// is limited to superadmins, except listing staff for assignment pickers.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"taxdesk/internal/actors/models"
	"taxdesk/internal/actors/secrets"
	"taxdesk/internal/permission"
	id "taxdesk/pkg/domain"
	dErrors "taxdesk/pkg/domain-errors"
	"taxdesk/pkg/platform/audit"
	"taxdesk/pkg/platform/sentinel"
	"taxdesk/pkg/platform/tracing"
	"taxdesk/pkg/platform/tx"
	"taxdesk/pkg/requestcontext"
)

type Store interface {
	FindByID(ctx context.Context, actorID id.ActorID) (*models.Actor, error)
	FindByEmail(ctx context.Context, email string) (*models.Actor, error)
	Save(ctx context.Context, a *models.Actor) error
	List(ctx context.Context) ([]*models.Actor, error)
	Delete(ctx context.Context, actorID id.ActorID) error
}

// WorkloadCounter reports how many clients are assigned to each actor.
type WorkloadCounter interface {
	CountAssigned(ctx context.Context) (map[id.ActorID]int, error)
}

// SessionRevoker ends the sessions of accounts that lose access.
type SessionRevoker interface {
	RevokeActor(ctx context.Context, actorID id.ActorID) error
}

type AuditRecorder interface {
	Record(ctx context.Context, actor audit.Actor, action audit.Action, entityType audit.EntityType, entityID string, oldValue, newValue *string) (*audit.Entry, error)
}

type Service struct {
	actors   Store
	tx       tx.Runner
	auditor  AuditRecorder
	workload WorkloadCounter
	sessions SessionRevoker
	logger   *slog.Logger
	tracer   trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithWorkloadCounter(c WorkloadCounter) Option {
	return func(s *Service) {
		s.workload = c
	}
}

func WithSessionRevoker(r SessionRevoker) Option {
	return func(s *Service) {
		s.sessions = r
	}
}

func New(actors Store, runner tx.Runner, auditor AuditRecorder, opts ...Option) (*Service, error) {
	if actors == nil {
		return nil, errors.New("actor store is required")
	}
	if runner == nil {
		return nil, errors.New("tx runner is required")
	}
	if auditor == nil {
		return nil, errors.New("audit recorder is required")
	}
	s := &Service{
		actors:  actors,
		tx:      runner,
		auditor: auditor,
		logger:  slog.Default(),
		tracer:  tracing.Tracer("taxdesk/actors"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type CreateAdminRequest struct {
	Name        string
	Email       string
	Password    string
	Role        permission.Role
	Permissions []permission.Permission
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return "", dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	return email, nil
}

func permissionSummary(a *models.Actor) string {
	if a.IsSuperAdmin() {
		return "All permissions"
	}
	if len(a.Permissions) == 0 {
		return "No permissions"
	}
	labels := make([]string, 0, len(a.Permissions))
	for _, p := range permission.Effective(a) {
		labels = append(labels, p.Label())
	}
	return strings.Join(labels, ", ")
}

func activeLabel(active bool) string {
	if active {
		return "Active"
	}
	return "Inactive"
}

// CreateAdmin adds a staff account. New accounts are active.
func (s *Service) CreateAdmin(ctx context.Context, actor *models.Actor, req CreateAdminRequest) (created *models.Actor, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "actors.CreateAdmin")
	defer func() { tracing.Finish(span, err) }()

	if err := permission.RequireSuperAdmin(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = permission.RoleAdmin
	}
	if _, err := permission.ParseRole(string(role)); err != nil {
		return nil, err
	}
	hash, err := secrets.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	a := &models.Actor{
		ID:           id.NewActorID(),
		Email:        email,
		Name:         name,
		Role:         role,
		Permissions:  dedupe(req.Permissions),
		IsActive:     true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.tx.RunInTx(ctx, a.ID.String(), func(ctx context.Context) error {
		if err := s.actors.Save(ctx, a); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "an account with this email already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save admin")
		}
		_, err := s.auditor.Record(ctx, actor.AuditActor(), audit.ActionAdminCreated, audit.EntityAdmin, a.ID.String(),
			nil, audit.Value(fmt.Sprintf("%s <%s> (%s)", a.Name, a.Email, a.Role)))
		return wrapAudit(err)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "admin created", "actor_id", actor.ID.String(), "admin_id", a.ID.String())
	return a, nil
}

type UpdateAdminRequest struct {
	Name        *string
	Permissions []permission.Permission
}

// UpdateAdmin changes an account's name and replaces its permission set.
// A nil Permissions slice leaves the set unchanged.
func (s *Service) UpdateAdmin(ctx context.Context, actor *models.Actor, adminID id.ActorID, req UpdateAdminRequest) (updated *models.Actor, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "actors.UpdateAdmin", "admin.id", adminID.String())
	defer func() { tracing.Finish(span, err) }()

	if err := permission.RequireSuperAdmin(actor); err != nil {
		return nil, err
	}
	var name string
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "name is required")
		}
	}

	err = s.tx.RunInTx(ctx, adminID.String(), func(ctx context.Context) error {
		a, err := s.load(ctx, adminID)
		if err != nil {
			return err
		}
		before := permissionSummary(a)
		if req.Name != nil {
			a.Name = name
		}
		if req.Permissions != nil {
			a.Permissions = dedupe(req.Permissions)
		}
		a.UpdatedAt = requestcontext.Now(ctx)
		if err := s.actors.Save(ctx, a); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save admin")
		}
		_, err = s.auditor.Record(ctx, actor.AuditActor(), audit.ActionAdminUpdated, audit.EntityAdmin, a.ID.String(),
			audit.Value(before), audit.Value(permissionSummary(a)))
		if err != nil {
			return wrapAudit(err)
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetActive enables or disables sign-in for an account. Superadmins cannot
// deactivate themselves.
func (s *Service) SetActive(ctx context.Context, actor *models.Actor, adminID id.ActorID, active bool) (updated *models.Actor, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "actors.SetActive", "admin.id", adminID.String())
	defer func() { tracing.Finish(span, err) }()

	if err := permission.RequireSuperAdmin(actor); err != nil {
		return nil, err
	}
	if adminID == actor.ID && !active {
		return nil, dErrors.New(dErrors.CodeValidation, "you cannot deactivate your own account")
	}

	err = s.tx.RunInTx(ctx, adminID.String(), func(ctx context.Context) error {
		a, err := s.load(ctx, adminID)
		if err != nil {
			return err
		}
		before := a.IsActive
		a.IsActive = active
		a.UpdatedAt = requestcontext.Now(ctx)
		if err := s.actors.Save(ctx, a); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save admin")
		}
		_, err = s.auditor.Record(ctx, actor.AuditActor(), audit.ActionAdminStatus, audit.EntityAdmin, a.ID.String(),
			audit.Value(activeLabel(before)), audit.Value(activeLabel(active)))
		if err != nil {
			return wrapAudit(err)
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !active {
		s.revokeSessions(ctx, adminID)
	}
	return updated, nil
}

// DeleteAdmin removes an account. Clients assigned to it keep the dangling
// reference; assignment is a weak lookup.
func (s *Service) DeleteAdmin(ctx context.Context, actor *models.Actor, adminID id.ActorID) (err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "actors.DeleteAdmin", "admin.id", adminID.String())
	defer func() { tracing.Finish(span, err) }()

	if err := permission.RequireSuperAdmin(actor); err != nil {
		return err
	}
	if adminID == actor.ID {
		return dErrors.New(dErrors.CodeValidation, "you cannot delete your own account")
	}
	err = s.tx.RunInTx(ctx, adminID.String(), func(ctx context.Context) error {
		a, err := s.load(ctx, adminID)
		if err != nil {
			return err
		}
		if err := s.actors.Delete(ctx, adminID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete admin")
		}
		_, err = s.auditor.Record(ctx, actor.AuditActor(), audit.ActionAdminDeleted, audit.EntityAdmin, a.ID.String(),
			audit.Value(fmt.Sprintf("%s <%s>", a.Name, a.Email)), nil)
		return wrapAudit(err)
	})
	if err != nil {
		return err
	}
	s.revokeSessions(ctx, adminID)
	return nil
}

// revokeSessions is best effort; sign-in also re-checks the account on
// every request.
func (s *Service) revokeSessions(ctx context.Context, adminID id.ActorID) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.RevokeActor(ctx, adminID); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke sessions", "admin_id", adminID.String(), "error", err)
	}
}

// Get returns one account. Any signed-in actor may look staff up.
func (s *Service) Get(ctx context.Context, actor *models.Actor, adminID id.ActorID) (*models.Actor, error) {
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Session expired. Please log in again.")
	}
	return s.load(ctx, adminID)
}

// ListAdmins returns every account with its assigned-client count.
func (s *Service) ListAdmins(ctx context.Context, actor *models.Actor) ([]models.Workload, error) {
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Session expired. Please log in again.")
	}
	all, err := s.actors.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list admins")
	}
	counts := map[id.ActorID]int{}
	if s.workload != nil {
		if counts, err = s.workload.CountAssigned(ctx); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count assigned clients")
		}
	}
	out := make([]models.Workload, 0, len(all))
	for _, a := range all {
		out = append(out, models.Workload{Actor: a, AssignedClients: counts[a.ID]})
	}
	return out, nil
}

// FindActive returns the account if it exists and may act. Used by client
// assignment.
func (s *Service) FindActive(ctx context.Context, adminID id.ActorID) (*models.Actor, error) {
	a, err := s.load(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if !a.IsActive {
		return nil, dErrors.New(dErrors.CodeValidation, "admin account is inactive")
	}
	return a, nil
}

func (s *Service) load(ctx context.Context, adminID id.ActorID) (*models.Actor, error) {
	a, err := s.actors.FindByID(ctx, adminID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "admin not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load admin")
	}
	return a, nil
}

func dedupe(perms []permission.Permission) []permission.Permission {
	out := make([]permission.Permission, 0, len(perms))
	for _, p := range perms {
		if p.IsValid() && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

func wrapAudit(err error) error {
	if err == nil {
		return nil
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit entry")
}
