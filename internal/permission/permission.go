// Package permission is the closed registry of staff capabilities and the
// single authorization function every mutating operation consults.
//
// Superadmin is modelled as a capability-resolution rule: the role resolves to
// the whole set, whatever permissions are stored for the account.
package permission

import (
	"fmt"
	"slices"

	dErrors "taxdesk/pkg/domain-errors"
	pstrings "taxdesk/pkg/platform/strings"
)

// Permission names are persisted and sent by clients; their spelling is part
// of the external contract.
type Permission string

const (
	AddEditPayment      Permission = "add_edit_payment"
	AddEditClient       Permission = "add_edit_client"
	RequestDocuments    Permission = "request_documents"
	AssignClients       Permission = "assign_clients"
	ViewAnalytics       Permission = "view_analytics"
	ApproveCostEstimate Permission = "approve_cost_estimate"
	UpdateWorkflow      Permission = "update_workflow"
)

var ordered = []Permission{
	AddEditPayment,
	AddEditClient,
	RequestDocuments,
	AssignClients,
	ViewAnalytics,
	ApproveCostEstimate,
	UpdateWorkflow,
}

var labels = map[Permission]string{
	AddEditPayment:      "Add/Edit Payments",
	AddEditClient:       "Add/Edit Clients",
	RequestDocuments:    "Request Documents",
	AssignClients:       "Assign Clients",
	ViewAnalytics:       "View Analytics",
	ApproveCostEstimate: "Approve Cost Estimates",
	UpdateWorkflow:      "Update Workflow",
}

// All returns the closed set in display order.
func All() []Permission {
	return slices.Clone(ordered)
}

func (p Permission) IsValid() bool {
	_, ok := labels[p]
	return ok
}

func (p Permission) Label() string {
	if l, ok := labels[p]; ok {
		return l
	}
	return string(p)
}

func (p Permission) String() string {
	return string(p)
}

// Parse validates a permission name received from outside the process.
func Parse(s string) (Permission, error) {
	p := Permission(s)
	if !p.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown permission %q", s))
	}
	return p, nil
}

// ParseAll trims, de-duplicates and parses a list, keeping first-seen order.
func ParseAll(values []string) ([]Permission, error) {
	names := pstrings.Normalize(values, nil)
	out := make([]Permission, 0, len(names))
	for _, v := range names {
		p, err := Parse(v)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleSuperAdmin:
		return r, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown role %q", s))
	}
}

// Grants is what the registry needs to know about an actor.
type Grants interface {
	ActorRole() Role
	GrantedPermissions() []Permission
}

// HasPermission resolves the actor's capability set and tests membership.
// An unregistered permission is a programming error and panics.
func HasPermission(actor Grants, p Permission) bool {
	if !p.IsValid() {
		panic(fmt.Sprintf("permission: unregistered permission %q", string(p)))
	}
	if isNil(actor) {
		return false
	}
	if actor.ActorRole() == RoleSuperAdmin {
		return true
	}
	return slices.Contains(actor.GrantedPermissions(), p)
}

// Effective returns the resolved capability set.
func Effective(actor Grants) []Permission {
	if isNil(actor) {
		return nil
	}
	if actor.ActorRole() == RoleSuperAdmin {
		return All()
	}
	out := make([]Permission, 0, len(ordered))
	for _, p := range ordered {
		if slices.Contains(actor.GrantedPermissions(), p) {
			out = append(out, p)
		}
	}
	return out
}

// Authorize is the gate in front of every mutating operation.
func Authorize(actor Grants, p Permission) error {
	if isNil(actor) {
		return dErrors.New(dErrors.CodeUnauthorized, "Session expired. Please log in again.")
	}
	if !HasPermission(actor, p) {
		return dErrors.New(dErrors.CodePermissionDenied,
			fmt.Sprintf("You do not have permission to perform this action (requires %s).", p.Label()))
	}
	return nil
}

// RequireSuperAdmin gates staff management and the audit log.
func RequireSuperAdmin(actor Grants) error {
	if isNil(actor) {
		return dErrors.New(dErrors.CodeUnauthorized, "Session expired. Please log in again.")
	}
	if actor.ActorRole() != RoleSuperAdmin {
		return dErrors.New(dErrors.CodePermissionDenied, "This page is restricted to superadmins.")
	}
	return nil
}

// isNil also catches typed nil pointers stored in the interface.
func isNil(actor Grants) bool {
	if actor == nil {
		return true
	}
	type nilChecker interface{ IsNil() bool }
	if nc, ok := actor.(nilChecker); ok {
		return nc.IsNil()
	}
	return false
}
