package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "taxdesk/pkg/domain-errors"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("demo123")
	require.NoError(t, err)

	assert.True(t, Verify("demo123", hash))
	assert.False(t, Verify("demo124", hash))
	assert.False(t, Verify("demo123", "not-a-bcrypt-hash"))
}

func TestHash_RejectsShortPasswords(t *testing.T) {
	_, err := Hash("abc")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
