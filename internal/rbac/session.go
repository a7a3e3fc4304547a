package rbac

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// defaultSessionTTL is the session lifetime from creation.
const defaultSessionTTL = 8 * time.Hour

// Session is one authenticated client session. A session is valid only
// while unexpired and, if MFA is required, after MFA completion.
type Session struct {
	Token        string    `json:"token"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastActivity time.Time `json:"last_activity"`
	RequiresMFA  bool      `json:"requires_mfa"`
	MFACompleted bool      `json:"mfa_completed"`
}

// SetSessionTTL overrides the session lifetime for subsequently created
// sessions.
func (m *Manager) SetSessionTTL(ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl > 0 {
		m.sessionTTL = ttl
	}
}

// CreateSession opens a session for the user with an unguessable token.
// If the user has MFA enabled the session requires MFA completion before
// it validates.
func (m *Manager) CreateSession(userID string, mfaEnabled bool) (*Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("rbac: generate session token: %w", err)
	}

	now := time.Now()
	m.mu.Lock()
	s := &Session{
		Token:        token,
		UserID:       userID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(m.sessionTTL),
		LastActivity: now,
		RequiresMFA:  mfaEnabled,
	}
	m.sessions[token] = s
	m.mu.Unlock()

	if m.auditor != nil {
		m.auditor.Log(auditSessionEntry(userID, "session_created", true))
	}
	copied := *s
	return &copied, nil
}

// ValidateSession reports whether the token identifies a live session.
// Expired sessions are evicted; a session gated on incomplete MFA fails
// validation regardless of expiry. Valid sessions get their last-activity
// timestamp refreshed.
func (m *Manager) ValidateSession(token string) bool {
	now := time.Now()

	m.mu.Lock()
	s, ok := m.sessions[token]
	if !ok {
		m.mu.Unlock()
		return false
	}
	if now.After(s.ExpiresAt) {
		delete(m.sessions, token)
		userID := s.UserID
		m.mu.Unlock()
		if m.auditor != nil {
			m.auditor.Log(auditSessionEntry(userID, "session_expired", false))
		}
		return false
	}
	if s.RequiresMFA && !s.MFACompleted {
		m.mu.Unlock()
		return false
	}
	s.LastActivity = now
	m.mu.Unlock()
	return true
}

// CompleteMFA marks the session's MFA challenge as passed.
func (m *Manager) CompleteMFA(token string) error {
	m.mu.Lock()
	s, ok := m.sessions[token]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: session", ErrNotFound)
	}
	s.MFACompleted = true
	userID := s.UserID
	m.mu.Unlock()

	if m.auditor != nil {
		m.auditor.Log(auditSessionEntry(userID, "mfa_completed", true))
	}
	return nil
}

// RevokeSession removes a session. Unknown tokens are a no-op.
func (m *Manager) RevokeSession(token string) {
	m.mu.Lock()
	s, ok := m.sessions[token]
	if ok {
		delete(m.sessions, token)
	}
	m.mu.Unlock()

	if ok && m.auditor != nil {
		m.auditor.Log(auditSessionEntry(s.UserID, "session_revoked", true))
	}
}

// GetSession returns a copy of the session for inspection.
func (m *Manager) GetSession(token string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[token]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// newToken returns 32 cryptographically random bytes, hex encoded.
func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
