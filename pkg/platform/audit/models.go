package audit

import (
	"context"
	"strings"
	"time"

	id "taxdesk/pkg/domain"
)

// Action is the display label of an audited operation. Labels are shown
// verbatim on the audit log page.
type Action string

const (
	ActionClientCreated      Action = "Client Created"
	ActionClientUpdated      Action = "Client Updated"
	ActionClientDeleted      Action = "Client Deleted"
	ActionStatusChanged      Action = "Status Changed"
	ActionClientAssigned     Action = "Client Assigned"
	ActionPaymentAdded       Action = "Payment Added"
	ActionCostEstimate       Action = "Cost Estimate Approved"
	ActionDocumentAdded      Action = "Document Added"
	ActionDocumentMissing    Action = "Document Marked Missing"
	ActionDocumentVerified   Action = "Document Verified"
	ActionDocumentDeleted    Action = "Document Deleted"
	ActionDocumentsRequested Action = "Documents Requested"
	ActionNoteAdded          Action = "Note Added"
	ActionAdminCreated       Action = "Admin Created"
	ActionAdminUpdated       Action = "Admin Updated"
	ActionAdminStatus        Action = "Admin Status Changed"
	ActionAdminDeleted       Action = "Admin Deleted"
	ActionSignedIn           Action = "Signed In"
	ActionSignedOut          Action = "Signed Out"
)

// EntityType names the kind of record an entry documents.
type EntityType string

const (
	EntityClient   EntityType = "client"
	EntityDocument EntityType = "document"
	EntityPayment  EntityType = "payment"
	EntityNote     EntityType = "note"
	EntityAdmin    EntityType = "admin"
	EntitySession  EntityType = "session"
)

// Category routes entries to downstream consumers.
type Category string

const (
	// CategoryFinancial covers money and filing progress: retained with the return.
	CategoryFinancial Category = "financial"
	// CategorySecurity covers sign-in and staff permission changes.
	CategorySecurity Category = "security"
	// CategoryOperations covers document handling and notes.
	CategoryOperations Category = "operations"
)

var actionCategories = map[Action]Category{
	ActionStatusChanged:      CategoryFinancial,
	ActionPaymentAdded:       CategoryFinancial,
	ActionCostEstimate:       CategoryFinancial,
	ActionClientCreated:      CategoryOperations,
	ActionClientUpdated:      CategoryOperations,
	ActionClientDeleted:      CategoryOperations,
	ActionClientAssigned:     CategoryOperations,
	ActionDocumentAdded:      CategoryOperations,
	ActionDocumentMissing:    CategoryOperations,
	ActionDocumentVerified:   CategoryOperations,
	ActionDocumentDeleted:    CategoryOperations,
	ActionDocumentsRequested: CategoryOperations,
	ActionNoteAdded:          CategoryOperations,
	ActionAdminCreated:       CategorySecurity,
	ActionAdminUpdated:       CategorySecurity,
	ActionAdminStatus:        CategorySecurity,
	ActionAdminDeleted:       CategorySecurity,
	ActionSignedIn:           CategorySecurity,
	ActionSignedOut:          CategorySecurity,
}

// Category returns the routing category; unknown actions are operational.
func (a Action) Category() Category {
	if c, ok := actionCategories[a]; ok {
		return c
	}
	return CategoryOperations
}

// Actor identifies who performed an audited operation.
type Actor struct {
	ID   id.ActorID
	Name string
}

// Entry is an immutable record of one mutating operation.
//
// Invariants:
//   - Sequence and Timestamp are strictly increasing in append order.
//   - Entries are never updated or deleted once appended.
type Entry struct {
	ID         id.AuditEntryID `json:"id"`
	Sequence   int64           `json:"sequence"`
	ActorID    id.ActorID      `json:"performedBy"`
	ActorName  string          `json:"performedByName"`
	Action     Action          `json:"action"`
	EntityType EntityType      `json:"entityType"`
	EntityID   string          `json:"entityId"`
	OldValue   *string         `json:"oldValue,omitempty"`
	NewValue   *string         `json:"newValue,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	RequestID  string          `json:"requestId,omitempty"`
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	// Action matches entries whose action label contains it (case-insensitive).
	Action string
	// Search matches in the action label or the actor name.
	Search     string
	EntityType EntityType
	EntityID   string
	Limit      int
}

// Matches applies the filter to a single entry.
func (f Filter) Matches(e Entry) bool {
	if f.Action != "" && !containsFold(string(e.Action), f.Action) {
		return false
	}
	if f.Search != "" && !containsFold(string(e.Action), f.Search) && !containsFold(e.ActorName, f.Search) {
		return false
	}
	if f.EntityType != "" && e.EntityType != f.EntityType {
		return false
	}
	if f.EntityID != "" && e.EntityID != f.EntityID {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Store persists entries. It is append-only.
type Store interface {
	// Append assigns entry.Sequence and persists it.
	Append(ctx context.Context, entry *Entry) error
	// List returns matching entries newest first.
	List(ctx context.Context, filter Filter) ([]Entry, error)
	Count(ctx context.Context) (int, error)
}

// Value wraps s for the optional old/new fields.
func Value(s string) *string {
	return &s
}
