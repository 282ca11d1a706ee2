package workflow

import (
	"fmt"

	dErrors "taxdesk/pkg/domain-errors"
)

// Policy decides whether a status change is allowed. Both arguments are
// expected to be valid statuses; invalid ones are always refused.
type Policy interface {
	CanTransition(from, to ClientStatus) bool
	Name() string
}

const (
	PolicyUnrestricted = "unrestricted"
	PolicyForwardOnly  = "forward_only"
)

// Unrestricted allows any valid status to move to any valid status, including
// backward moves and re-selecting the current status.
type Unrestricted struct{}

func (Unrestricted) CanTransition(from, to ClientStatus) bool {
	return from.IsValid() && to.IsValid()
}

func (Unrestricted) Name() string { return PolicyUnrestricted }

// ForwardOnly refuses moves back up the pipeline. Opt-in only.
type ForwardOnly struct{}

func (ForwardOnly) CanTransition(from, to ClientStatus) bool {
	return from.IsValid() && to.IsValid() && to.Ordinal() >= from.Ordinal()
}

func (ForwardOnly) Name() string { return PolicyForwardOnly }

// PolicyFromName resolves the configured policy. Empty selects Unrestricted.
func PolicyFromName(name string) (Policy, error) {
	switch name {
	case "", PolicyUnrestricted:
		return Unrestricted{}, nil
	case PolicyForwardOnly:
		return ForwardOnly{}, nil
	default:
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown workflow policy %q", name))
	}
}
