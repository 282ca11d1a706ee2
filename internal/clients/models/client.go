package models

import (
	"strings"
	"time"

	"taxdesk/internal/workflow"
	id "taxdesk/pkg/domain"
	dErrors "taxdesk/pkg/domain-errors"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// DerivePaymentStatus applies the rule literally: paid once paid covers the
// total, partial while something but not everything is paid, else pending.
// A zero total therefore reads as paid.
func DerivePaymentStatus(total, paid Money) PaymentStatus {
	switch {
	case paid >= total:
		return PaymentPaid
	case paid > 0:
		return PaymentPartial
	default:
		return PaymentPending
	}
}

// Client is the aggregate root for a tax client.
//
// Invariants:
//   - Name and Email are non-empty
//   - Status is a registered workflow status
//   - TotalAmount and PaidAmount are non-negative
//   - PaymentStatus always equals DerivePaymentStatus(TotalAmount, PaidAmount)
//   - AssignedAdminID is a lookup key; the admin may no longer exist
type Client struct {
	ID                 id.ClientID           `json:"id"`
	Name               string                `json:"name"`
	Email              string                `json:"email"`
	Phone              string                `json:"phone,omitempty"`
	FilingYear         int                   `json:"filingYear"`
	Status             workflow.ClientStatus `json:"status"`
	TotalAmount        Money                 `json:"totalAmount"`
	PaidAmount         Money                 `json:"paidAmount"`
	PaymentStatus      PaymentStatus         `json:"paymentStatus"`
	AssignedAdminID    *id.ActorID           `json:"assignedAdminId,omitempty"`
	LastStatusChangeBy *id.ActorID           `json:"lastStatusChangeBy,omitempty"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
}

func NewClient(clientID id.ClientID, name, email, phone string, filingYear int, total Money, now time.Time) (*Client, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "client name cannot be empty")
	}
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "client email cannot be empty")
	}
	if total < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "total amount cannot be negative")
	}
	if total > MaxAmount {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "total amount cannot exceed "+MaxAmount.Dollars())
	}
	if filingYear == 0 {
		filingYear = now.Year()
	}
	c := &Client{
		ID:          clientID,
		Name:        name,
		Email:       email,
		Phone:       strings.TrimSpace(phone),
		FilingYear:  filingYear,
		Status:      workflow.DocumentsPending,
		TotalAmount: total,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.recompute()
	return c, nil
}

func (c *Client) recompute() {
	c.PaymentStatus = DerivePaymentStatus(c.TotalAmount, c.PaidAmount)
}

// Outstanding is what is still owed, never negative.
func (c *Client) Outstanding() Money {
	return max(c.TotalAmount-c.PaidAmount, 0)
}

// Credit is the overpaid amount, never negative.
func (c *Client) Credit() Money {
	return max(c.PaidAmount-c.TotalAmount, 0)
}

// ApplyPayment adds amount to the paid total. Callers keep the result within
// MaxAmount.
func (c *Client) ApplyPayment(amount Money, now time.Time) {
	c.PaidAmount += amount
	c.UpdatedAt = now
	c.recompute()
}

// SetTotal replaces the approved cost estimate.
func (c *Client) SetTotal(total Money, now time.Time) {
	c.TotalAmount = total
	c.UpdatedAt = now
	c.recompute()
}

// SetStatus records a workflow move by actor.
func (c *Client) SetStatus(to workflow.ClientStatus, actor id.ActorID, now time.Time) {
	c.Status = to
	c.LastStatusChangeBy = &actor
	c.UpdatedAt = now
}

func (c *Client) Assign(adminID id.ActorID, now time.Time) {
	c.AssignedAdminID = &adminID
	c.UpdatedAt = now
}

// Contact summarises the editable contact fields for audit values.
func (c *Client) Contact() string {
	parts := []string{c.Name, c.Email}
	if c.Phone != "" {
		parts = append(parts, c.Phone)
	}
	return strings.Join(parts, " | ")
}

// Clone returns a copy whose pointer fields are not shared.
func (c *Client) Clone() *Client {
	cp := *c
	if c.AssignedAdminID != nil {
		v := *c.AssignedAdminID
		cp.AssignedAdminID = &v
	}
	if c.LastStatusChangeBy != nil {
		v := *c.LastStatusChangeBy
		cp.LastStatusChangeBy = &v
	}
	return &cp
}

// ListFilter narrows ListClients. Zero values match everything.
type ListFilter struct {
	Status        workflow.ClientStatus
	FilingYear    int
	AssignedTo    *id.ActorID
	PaymentStatus PaymentStatus
	Search        string
	Page          int
	Limit         int
}

// Matches reports whether c passes every non-empty criterion. Search looks
// at name, email and phone, case-insensitively.
func (f ListFilter) Matches(c *Client) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.FilingYear != 0 && c.FilingYear != f.FilingYear {
		return false
	}
	if f.AssignedTo != nil && (c.AssignedAdminID == nil || *c.AssignedAdminID != *f.AssignedTo) {
		return false
	}
	if f.PaymentStatus != "" && c.PaymentStatus != f.PaymentStatus {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		hay := strings.ToLower(c.Name + " " + c.Email + " " + c.Phone)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

// Summary holds the counters shown above the client list.
type Summary struct {
	Total            int                           `json:"total"`
	ByStatus         map[workflow.ClientStatus]int `json:"byStatus"`
	DocumentsPending int                           `json:"documentsPending"`
	AwaitingPayment  int                           `json:"awaitingPayment"`
	Completed        int                           `json:"completed"`
	Outstanding      Money                         `json:"outstanding"`
}

// Summarize counts clients per status. Completed includes filed returns.
func Summarize(clients []*Client) Summary {
	sum := Summary{ByStatus: make(map[workflow.ClientStatus]int, len(workflow.Statuses()))}
	for _, st := range workflow.Statuses() {
		sum.ByStatus[st] = 0
	}
	for _, c := range clients {
		sum.Total++
		sum.ByStatus[c.Status]++
		sum.Outstanding += c.Outstanding()
		switch c.Status {
		case workflow.DocumentsPending:
			sum.DocumentsPending++
		case workflow.AwaitingPayment:
			sum.AwaitingPayment++
		case workflow.Completed, workflow.Filed:
			sum.Completed++
		}
	}
	return sum
}
