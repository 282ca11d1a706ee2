package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "taxdesk/pkg/domain-errors"
)

// IDs arriving from requests must be valid, non-empty, non-nil UUIDs.
func TestParseClientID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseClientID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseClientID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseClientID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		raw := uuid.New()
		got, err := ParseClientID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, ClientID(raw), got)
	})
}

func TestParseID_RejectsInjectionShapedInput(t *testing.T) {
	inputs := []string{
		"'; DROP TABLE clients;--",
		"../../../etc/passwd",
		"550e8400-e29b-41d4-a716-446655440000\x00",
		"<script>alert(1)</script>",
	}
	for _, in := range inputs {
		_, err := ParseActorID(in)
		assert.Error(t, err, in)
	}
}

func TestTypedIDsMarshalAsUUIDStrings(t *testing.T) {
	id := NewDocumentID()

	body, err := json.Marshal(map[string]DocumentID{"id": id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+id.String()+`"}`, string(body))

	var decoded map[string]DocumentID
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, id, decoded["id"])
}
