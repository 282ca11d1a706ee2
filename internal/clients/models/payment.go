package models

import (
	"strings"
	"time"

	"github.com/segmentio/ksuid"

	id "taxdesk/pkg/domain"
	dErrors "taxdesk/pkg/domain-errors"
)

const DefaultPaymentMethod = "Credit Card"

// Payment is an append-only ledger line. It is never edited.
type Payment struct {
	ID        id.PaymentID `json:"id"`
	ClientID  id.ClientID  `json:"clientId"`
	Amount    Money        `json:"amount"`
	Method    string       `json:"method"`
	Reference string       `json:"reference"`
	Note      string       `json:"note,omitempty"`
	CreatedBy id.ActorID   `json:"createdBy"`
	CreatedAt time.Time    `json:"createdAt"`
}

// NewPaymentReference returns a sortable, human-quotable reference.
func NewPaymentReference() string {
	return "PAY-" + ksuid.New().String()
}

func NewPayment(clientID id.ClientID, amount Money, method, note string, createdBy id.ActorID, now time.Time) (*Payment, error) {
	if amount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "Payment amount must be greater than zero")
	}
	method = strings.TrimSpace(method)
	if method == "" {
		method = DefaultPaymentMethod
	}
	return &Payment{
		ID:        id.NewPaymentID(),
		ClientID:  clientID,
		Amount:    amount,
		Method:    method,
		Reference: NewPaymentReference(),
		Note:      strings.TrimSpace(note),
		CreatedBy: createdBy,
		CreatedAt: now,
	}, nil
}
