package models

import (
	"context"
	"slices"
	"time"

	"taxdesk/internal/permission"
	id "taxdesk/pkg/domain"
	"taxdesk/pkg/platform/audit"
)

// Actor is a staff account: an admin with an explicit permission set, or a
// superadmin who implicitly holds every permission.
//
// Invariants:
//   - Email is lower-cased and unique.
//   - Permissions only contains registered permission names.
//   - An inactive actor cannot sign in or act.
type Actor struct {
	ID           id.ActorID              `json:"id"`
	Email        string                  `json:"email"`
	Name         string                  `json:"name"`
	Role         permission.Role         `json:"role"`
	Permissions  []permission.Permission `json:"permissions"`
	IsActive     bool                    `json:"isActive"`
	PasswordHash string                  `json:"-"`
	CreatedAt    time.Time               `json:"createdAt"`
	UpdatedAt    time.Time               `json:"updatedAt"`
}

func (a *Actor) ActorRole() permission.Role {
	if a == nil {
		return ""
	}
	return a.Role
}

func (a *Actor) GrantedPermissions() []permission.Permission {
	if a == nil {
		return nil
	}
	return a.Permissions
}

func (a *Actor) IsNil() bool {
	return a == nil
}

func (a *Actor) IsSuperAdmin() bool {
	return a != nil && a.Role == permission.RoleSuperAdmin
}

// AuditActor is the identity written on audit entries.
func (a *Actor) AuditActor() audit.Actor {
	return audit.Actor{ID: a.ID, Name: a.Name}
}

// Clone returns a deep copy so request-scoped snapshots cannot be mutated
// through shared slices.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}
	c := *a
	c.Permissions = slices.Clone(a.Permissions)
	return &c
}

type actorKey struct{}

// WithActor stores the resolved actor snapshot for the request.
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the request's actor, or nil when unauthenticated.
func ActorFrom(ctx context.Context) *Actor {
	a, _ := ctx.Value(actorKey{}).(*Actor)
	return a
}

// Workload pairs an admin with the number of clients assigned to them.
type Workload struct {
	Actor           *Actor `json:"admin"`
	AssignedClients int    `json:"assignedClients"`
}
