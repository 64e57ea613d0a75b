package session

import "time"

// Store abstracts session CRUD so that sessions can be stored in-memory
// (default) or in persistent backing storage.
type Store interface {
	// Get retrieves a session by token. Returns false if the session does
	// not exist or has expired as of now.
	Get(token string, now time.Time) (Session, bool)
	// Put creates or replaces the session for the given token.
	Put(token string, session Session) error
	// Delete removes a session by token. Missing tokens are ignored.
	Delete(token string)
}

// Session holds the server-side state for an authenticated client.
type Session struct {
	Subject     string    `json:"subject"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its absolute expiry.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
