package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, CompareHashAndPassword(hash, "hunter22"))
	assert.False(t, CompareHashAndPassword(hash, "hunter23"))
}

func TestCompareHashAndPasswordEmptyHash(t *testing.T) {
	// A scrubbed account has no hash; nothing may authenticate against it.
	assert.False(t, CompareHashAndPassword("", ""))
	assert.False(t, CompareHashAndPassword("", "anything"))
}

func TestGenVerificationCode(t *testing.T) {
	a, err := GenVerificationCode()
	require.NoError(t, err)
	b, err := GenVerificationCode()
	require.NoError(t, err)

	assert.Len(t, a, 40)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
}
