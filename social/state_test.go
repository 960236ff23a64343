package social

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStateManager(ttl time.Duration) *EncryptedStateManager {
	return NewEncryptedStateManager(
		[]byte("0123456789abcdef0123456789abcdef"),
		[]byte("fedcba9876543210fedcba9876543210"),
		ttl,
	)
}

func TestStateManager_EncryptDecrypt(t *testing.T) {
	sm := newTestStateManager(10 * time.Minute)

	state := &OAuthState{
		Provider:     "sso",
		CodeVerifier: "test-verifier",
	}

	encoded, err := sm.Encode(state)
	require.NoError(t, err)
	assert.NotContains(t, encoded, "test-verifier")

	decoded, err := sm.Decode(encoded)
	require.NoError(t, err)

	assert.Equal(t, state.Provider, decoded.Provider)
	assert.Equal(t, state.CodeVerifier, decoded.CodeVerifier)
	assert.NotEmpty(t, decoded.Nonce)
	assert.Equal(t, decoded.IssuedAt+int64((10*time.Minute).Seconds()), decoded.ExpiresAt)
}

func TestStateManager_ExpiredState(t *testing.T) {
	issued := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	current := issued
	sm := newTestStateManager(0).WithClock(func() time.Time { return current })

	encoded, err := sm.Encode(&OAuthState{Provider: "sso"})
	require.NoError(t, err)

	current = issued.Add(DefaultStateTTL - time.Second)
	_, err = sm.Decode(encoded)
	require.NoError(t, err)

	current = issued.Add(DefaultStateTTL + time.Second)
	_, err = sm.Decode(encoded)
	assert.ErrorIs(t, err, ErrStateExpired)
}

func TestStateManager_TamperedState(t *testing.T) {
	sm := newTestStateManager(time.Minute)

	encoded, err := sm.Encode(&OAuthState{Provider: "sso"})
	require.NoError(t, err)

	tampered := []byte(encoded)
	mid := len(tampered) / 2
	if tampered[mid] == 'A' {
		tampered[mid] = 'B'
	} else {
		tampered[mid] = 'A'
	}

	_, err = sm.Decode(string(tampered))
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = sm.Decode("not base64 !!")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = sm.Decode(strings.Repeat("A", 10))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestStateManager_ForeignKey(t *testing.T) {
	encoded, err := newTestStateManager(time.Minute).Encode(&OAuthState{Provider: "sso"})
	require.NoError(t, err)

	other := NewEncryptedStateManager(
		[]byte("0123456789abcdef0123456789abcdef"),
		[]byte("another-hmac-key-another-hmac-key"),
		time.Minute,
	)

	_, err = other.Decode(encoded)
	assert.ErrorIs(t, err, ErrInvalidState)
}
