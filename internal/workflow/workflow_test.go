package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "taxdesk/pkg/domain-errors"
)

func TestEveryStatusHasExactlyOneLabel(t *testing.T) {
	seen := map[string]ClientStatus{}
	for _, s := range Statuses() {
		label := s.Label()
		require.NotEqual(t, string(s), label, "status %s has no label", s)
		if prev, dup := seen[label]; dup {
			t.Fatalf("label %q shared by %s and %s", label, prev, s)
		}
		seen[label] = s
	}
	assert.Len(t, seen, 8)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Documents Pending", DocumentsPending.Label())
	assert.Equal(t, "Estimate Sent", CostEstimateSent.Label())
	assert.Equal(t, "Awaiting Approval", AwaitingApproval.Label())
	assert.Equal(t, "bogus", ClientStatus("bogus").Label())
}

func TestStatusesAreInPipelineOrder(t *testing.T) {
	for i, s := range Statuses() {
		assert.Equal(t, i, s.Ordinal())
	}
	assert.Equal(t, -1, ClientStatus("archived").Ordinal())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("awaiting_payment")
	require.NoError(t, err)
	assert.Equal(t, AwaitingPayment, s)

	for _, bad := range []string{"", "Awaiting Payment", "archived"} {
		_, err := ParseStatus(bad)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidStatus), bad)
	}
}

func TestUnrestricted_AllowsEveryPairOfValidStatuses(t *testing.T) {
	p := Unrestricted{}
	for _, from := range Statuses() {
		for _, to := range Statuses() {
			assert.True(t, p.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, p.CanTransition(DocumentsPending, "archived"))
	assert.False(t, p.CanTransition("archived", Filed))
}

func TestForwardOnly(t *testing.T) {
	p := ForwardOnly{}
	assert.True(t, p.CanTransition(DocumentsPending, AwaitingPayment))
	assert.True(t, p.CanTransition(Filed, Filed))
	assert.False(t, p.CanTransition(AwaitingPayment, DocumentsPending))
	assert.False(t, p.CanTransition(Completed, Filed))
}

func TestPolicyFromName(t *testing.T) {
	p, err := PolicyFromName("")
	require.NoError(t, err)
	assert.Equal(t, PolicyUnrestricted, p.Name())

	p, err = PolicyFromName("forward_only")
	require.NoError(t, err)
	assert.Equal(t, PolicyForwardOnly, p.Name())

	_, err = PolicyFromName("strict")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
