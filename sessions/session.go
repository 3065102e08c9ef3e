// Package sessions holds the per-browser-session records of the
// authorization workflow: the in-flight PKCE parameters and the current
// token pair. Both records are owned by the session and mutated only
// through the workflow controller.
package sessions

import "time"

// PKCERecord is the ephemeral state of one authorization attempt.
// Created at login initiation, consumed and deleted at callback.
// At most one record exists per session; a new login overwrites it.
type PKCERecord struct {
	CodeVerifier string
	State        string
	CreatedAt    time.Time
}

// TokenRecord is the session-scoped token pair.
// Created at successful code exchange, replaced wholesale on refresh,
// destroyed on logout or session expiry.
type TokenRecord struct {
	AccessToken  string
	RefreshToken string // may be absent when the provider did not grant offline access
	ExpiresAt    time.Time
	Scope        string
}

// Session is one browser session, keyed by the session cookie.
// The session TTL is independent of the token TTL.
type Session struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time
	PKCE      *PKCERecord
	Token     *TokenRecord
}

// Expired reports whether the session itself has passed its TTL.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !s.ExpiresAt.After(now)
}

// Repo is the data contract the workflow controller operates through.
// No other component writes to it.
type Repo interface {
	Upsert(session *Session) error
	Get(sessionID string) (*Session, error)
	Delete(sessionID string) error

	SetPKCE(sessionID string, record *PKCERecord) error
	ClearPKCE(sessionID string) error
	SetToken(sessionID string, record *TokenRecord) error
	ClearToken(sessionID string) error
}
