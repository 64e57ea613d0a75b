// Package session binds authenticated users to server-side sessions.
//
// A session is created at login under a fresh random token, replacing any
// session the client already held, and is tied to a coarse client
// fingerprint (the truncated User-Agent). A request presenting a different
// fingerprint destroys the session. Sessions expire a fixed lifetime after
// login; activity does not extend them.
//
// The fingerprint is a heuristic against casual cookie theft only. An
// attacker who replays the victim's User-Agent passes the check.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wayfarer/wayfarer/internal/uuid"
)

const (
	// FingerprintLen is the number of characters of the client string kept.
	FingerprintLen = 120
	// DefaultLifetime is the absolute session lifetime measured from login.
	DefaultLifetime = time.Hour
)

var (
	// ErrUnauthenticated is returned when no live session exists for a token.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrIntegrityViolation is returned when the presented fingerprint does
	// not match the one recorded at login. The session is destroyed.
	ErrIntegrityViolation = errors.New("session integrity check failed")
)

// Fingerprint derives the stored client fingerprint from a client-supplied
// identifying string by keeping its first FingerprintLen characters.
func Fingerprint(clientString string) string {
	if len(clientString) <= FingerprintLen {
		return clientString
	}
	r := []rune(clientString)
	if len(r) <= FingerprintLen {
		return clientString
	}
	return string(r[:FingerprintLen])
}

// Binder issues, checks and destroys sessions.
type Binder struct {
	store    Store
	lifetime time.Duration
	now      func() time.Time
}

// Option configures a Binder.
type Option func(*Binder)

// WithLifetime sets the absolute session lifetime.
func WithLifetime(d time.Duration) Option {
	return func(b *Binder) {
		if d > 0 {
			b.lifetime = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Binder) {
		b.now = now
	}
}

// NewBinder creates a Binder over store.
func NewBinder(store Store, opts ...Option) *Binder {
	b := &Binder{
		store:    store,
		lifetime: DefaultLifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Lifetime returns the configured absolute session lifetime.
func (b *Binder) Lifetime() time.Duration {
	return b.lifetime
}

// Login destroys previousToken (if any) and creates a new session for
// subject bound to the fingerprint of clientString. It returns the new
// token and session.
func (b *Binder) Login(ctx context.Context, previousToken, subject, clientString string) (string, Session, error) {
	if err := ctx.Err(); err != nil {
		return "", Session{}, err
	}
	if subject == "" {
		return "", Session{}, errors.New("session subject is required")
	}
	if previousToken != "" {
		b.store.Delete(previousToken)
	}

	now := b.now()
	token := uuid.New()
	s := Session{
		Subject:     subject,
		Fingerprint: Fingerprint(clientString),
		CreatedAt:   now,
		ExpiresAt:   now.Add(b.lifetime),
	}
	if err := b.store.Put(token, s); err != nil {
		return "", Session{}, fmt.Errorf("creating session: %w", err)
	}
	return token, s, nil
}

// Authenticate returns the subject bound to token, provided the session is
// live and clientString yields the fingerprint recorded at login.
func (b *Binder) Authenticate(ctx context.Context, token, clientString string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrUnauthenticated
	}
	s, ok := b.store.Get(token, b.now())
	if !ok {
		return "", ErrUnauthenticated
	}
	if s.Fingerprint != Fingerprint(clientString) {
		b.store.Delete(token)
		return "", ErrIntegrityViolation
	}
	return s.Subject, nil
}

// Logout destroys the session for token. It is idempotent.
func (b *Binder) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	b.store.Delete(token)
}
