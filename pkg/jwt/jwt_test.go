package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m, err := NewManager("secret", time.Hour, "wes-auth")
	require.NoError(t, err)

	token, err := m.GenerateToken("u-1", "alice", []string{"admin"})
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.True(t, claims.HasRole("admin"))
	assert.False(t, claims.HasRole("editor"))
}

func TestManager_Expired(t *testing.T) {
	m, err := NewManager("secret", time.Minute, "")
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := m.GenerateToken("u-1", "alice", nil)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestManager_WrongSecret(t *testing.T) {
	signer, err := NewManager("one", time.Hour, "")
	require.NoError(t, err)
	verifier, err := NewManager("two", time.Hour, "")
	require.NoError(t, err)

	token, err := signer.GenerateToken("u-1", "alice", nil)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_MissingUsername(t *testing.T) {
	m, err := NewManager("secret", time.Hour, "")
	require.NoError(t, err)

	token, err := m.GenerateToken("u-1", "", nil)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewManager_EmptySecret(t *testing.T) {
	_, err := NewManager("", time.Hour, "")
	assert.ErrorIs(t, err, ErrEmptySecret)
}
