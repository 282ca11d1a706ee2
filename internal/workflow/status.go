// Package workflow defines the eight filing statuses a client moves through
// and the policy deciding which moves are allowed.
package workflow

import (
	"fmt"

	dErrors "taxdesk/pkg/domain-errors"
)

// ClientStatus is a position in the filing pipeline.
// Invariant: a stored status is always one of the eight values below.
type ClientStatus string

const (
	DocumentsPending ClientStatus = "documents_pending"
	UnderReview      ClientStatus = "under_review"
	CostEstimateSent ClientStatus = "cost_estimate_sent"
	AwaitingPayment  ClientStatus = "awaiting_payment"
	InPreparation    ClientStatus = "in_preparation"
	AwaitingApproval ClientStatus = "awaiting_approval"
	Filed            ClientStatus = "filed"
	Completed        ClientStatus = "completed"
)

type statusInfo struct {
	ordinal int
	label   string
}

var statuses = map[ClientStatus]statusInfo{
	DocumentsPending: {0, "Documents Pending"},
	UnderReview:      {1, "Under Review"},
	CostEstimateSent: {2, "Estimate Sent"},
	AwaitingPayment:  {3, "Awaiting Payment"},
	InPreparation:    {4, "In Preparation"},
	AwaitingApproval: {5, "Awaiting Approval"},
	Filed:            {6, "Filed"},
	Completed:        {7, "Completed"},
}

// Statuses returns every status in pipeline order.
func Statuses() []ClientStatus {
	return []ClientStatus{
		DocumentsPending,
		UnderReview,
		CostEstimateSent,
		AwaitingPayment,
		InPreparation,
		AwaitingApproval,
		Filed,
		Completed,
	}
}

func ParseStatus(s string) (ClientStatus, error) {
	st := ClientStatus(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidStatus, fmt.Sprintf("unknown client status %q", s))
	}
	return st, nil
}

func (s ClientStatus) IsValid() bool {
	_, ok := statuses[s]
	return ok
}

// Label is the dashboard text for the status. Unknown values render raw.
func (s ClientStatus) Label() string {
	if info, ok := statuses[s]; ok {
		return info.label
	}
	return string(s)
}

// Ordinal is the zero-based pipeline position, or -1 for unknown values.
func (s ClientStatus) Ordinal() int {
	if info, ok := statuses[s]; ok {
		return info.ordinal
	}
	return -1
}

// IsTerminal reports whether the return has been filed.
func (s ClientStatus) IsTerminal() bool {
	return s == Filed || s == Completed
}

func (s ClientStatus) String() string {
	return string(s)
}
