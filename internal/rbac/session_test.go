package rbac

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSessionToken(t *testing.T) {
	m := newTestManager(t)
	s, err := m.CreateSession("alice", false)
	require.NoError(t, err)

	assert.Len(t, s.Token, 64) // 32 random bytes, hex encoded
	assert.Equal(t, "alice", s.UserID)
	assert.WithinDuration(t, time.Now().Add(8*time.Hour), s.ExpiresAt, time.Minute)

	s2, err := m.CreateSession("alice", false)
	require.NoError(t, err)
	assert.NotEqual(t, s.Token, s2.Token)
}

func TestValidateSession(t *testing.T) {
	m := newTestManager(t)
	s, err := m.CreateSession("alice", false)
	require.NoError(t, err)

	assert.True(t, m.ValidateSession(s.Token))
	assert.False(t, m.ValidateSession("unknown-token"))
}

func TestValidateRefreshesLastActivity(t *testing.T) {
	m := newTestManager(t)
	s, _ := m.CreateSession("alice", false)

	before, _ := m.GetSession(s.Token)
	time.Sleep(5 * time.Millisecond)
	require.True(t, m.ValidateSession(s.Token))
	after, _ := m.GetSession(s.Token)

	assert.True(t, after.LastActivity.After(before.LastActivity))
}

func TestExpiredSessionEvicted(t *testing.T) {
	m := newTestManager(t)
	m.SetSessionTTL(time.Millisecond)
	s, _ := m.CreateSession("alice", false)

	time.Sleep(5 * time.Millisecond)
	assert.False(t, m.ValidateSession(s.Token))

	// Evicted: a second validation fails on the unknown-token path too.
	_, ok := m.GetSession(s.Token)
	assert.False(t, ok)
}

func TestMFAGatesValidation(t *testing.T) {
	m := newTestManager(t)
	s, _ := m.CreateSession("alice", true)

	// MFA required but not completed: invalid regardless of expiry.
	assert.False(t, m.ValidateSession(s.Token))

	require.NoError(t, m.CompleteMFA(s.Token))
	assert.True(t, m.ValidateSession(s.Token))
}

func TestCompleteMFAUnknownSession(t *testing.T) {
	m := newTestManager(t)
	assert.ErrorIs(t, m.CompleteMFA("nope"), ErrNotFound)
}

func TestRevokeSession(t *testing.T) {
	m := newTestManager(t)
	s, _ := m.CreateSession("alice", false)

	m.RevokeSession(s.Token)
	assert.False(t, m.ValidateSession(s.Token))

	// Revoking again is a no-op.
	m.RevokeSession(s.Token)
}
