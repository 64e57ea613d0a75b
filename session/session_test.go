package session_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer/wayfarer/session"
	"github.com/wayfarer/wayfarer/storage/memory"
)

const ua = "Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0"

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newBinder(t *testing.T) (*session.Binder, *session.MemoryStore, *clock) {
	t.Helper()
	store := session.NewMemoryStore()
	c := &clock{t: time.Now()}
	return session.NewBinder(store, session.WithClock(c.now)), store, c
}

func TestLoginAuthenticate(t *testing.T) {
	b, _, _ := newBinder(t)
	ctx := context.Background()

	token, s, err := b.Login(ctx, "", "alice", ua)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, ua, s.Fingerprint)
	assert.Equal(t, session.DefaultLifetime, s.ExpiresAt.Sub(s.CreatedAt))

	subject, err := b.Authenticate(ctx, token, ua)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestAuthenticateUnknownToken(t *testing.T) {
	b, _, _ := newBinder(t)
	_, err := b.Authenticate(context.Background(), "", ua)
	assert.ErrorIs(t, err, session.ErrUnauthenticated)
	_, err = b.Authenticate(context.Background(), "bogus", ua)
	assert.ErrorIs(t, err, session.ErrUnauthenticated)
}

func TestFingerprintMismatchDestroysSession(t *testing.T) {
	b, _, _ := newBinder(t)
	ctx := context.Background()

	token, _, err := b.Login(ctx, "", "alice", ua)
	require.NoError(t, err)

	_, err = b.Authenticate(ctx, token, "curl/8.0")
	assert.ErrorIs(t, err, session.ErrIntegrityViolation)

	// The original client is locked out too: the session is gone.
	_, err = b.Authenticate(ctx, token, ua)
	assert.ErrorIs(t, err, session.ErrUnauthenticated)
}

func TestLoginReplacesPreviousSession(t *testing.T) {
	b, store, _ := newBinder(t)
	ctx := context.Background()

	first, _, err := b.Login(ctx, "", "alice", ua)
	require.NoError(t, err)
	second, _, err := b.Login(ctx, first, "alice", ua)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	_, err = b.Authenticate(ctx, first, ua)
	assert.ErrorIs(t, err, session.ErrUnauthenticated)
	_, err = b.Authenticate(ctx, second, ua)
	assert.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestAbsoluteExpiry(t *testing.T) {
	store := session.NewMemoryStore()
	c := &clock{t: time.Now()}
	b := session.NewBinder(store, session.WithClock(c.now), session.WithLifetime(10*time.Minute))
	ctx := context.Background()

	token, _, err := b.Login(ctx, "", "alice", ua)
	require.NoError(t, err)

	// Activity does not extend the lifetime.
	c.t = c.t.Add(9 * time.Minute)
	_, err = b.Authenticate(ctx, token, ua)
	require.NoError(t, err)

	c.t = c.t.Add(time.Minute)
	_, err = b.Authenticate(ctx, token, ua)
	assert.ErrorIs(t, err, session.ErrUnauthenticated)
}

func TestExpiryFollowsBinderClock(t *testing.T) {
	stores := map[string]session.Store{
		"memory":     session.NewMemoryStore(),
		"persistent": session.NewPersistentStore(memory.NewRepository(), nil),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			if ps, ok := store.(*session.PersistentStore); ok {
				defer ps.Close()
			}
			c := &clock{t: time.Now().Add(-2 * time.Hour)}
			b := session.NewBinder(store, session.WithClock(c.now))
			ctx := context.Background()

			token, _, err := b.Login(ctx, "", "alice", ua)
			require.NoError(t, err)

			subject, err := b.Authenticate(ctx, token, ua)
			require.NoError(t, err)
			assert.Equal(t, "alice", subject)

			c.t = c.t.Add(time.Hour)
			_, err = b.Authenticate(ctx, token, ua)
			assert.ErrorIs(t, err, session.ErrUnauthenticated)
		})
	}
}

func TestLogoutIdempotent(t *testing.T) {
	b, _, _ := newBinder(t)
	ctx := context.Background()

	token, _, err := b.Login(ctx, "", "alice", ua)
	require.NoError(t, err)
	b.Logout(ctx, token)
	b.Logout(ctx, token)
	b.Logout(ctx, "")

	_, err = b.Authenticate(ctx, token, ua)
	assert.ErrorIs(t, err, session.ErrUnauthenticated)
}

func TestLoginRequiresSubject(t *testing.T) {
	b, _, _ := newBinder(t)
	_, _, err := b.Login(context.Background(), "", "", ua)
	assert.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "short", session.Fingerprint("short"))
	assert.Equal(t, "", session.Fingerprint(""))

	long := strings.Repeat("a", 200)
	assert.Equal(t, strings.Repeat("a", session.FingerprintLen), session.Fingerprint(long))

	// Truncation counts characters, not bytes.
	wide := strings.Repeat("é", 130)
	fp := session.Fingerprint(wide)
	assert.Equal(t, session.FingerprintLen, len([]rune(fp)))

	// Clients differing only beyond the cut share a fingerprint.
	assert.Equal(t, session.Fingerprint(long+"x"), session.Fingerprint(long+"y"))
}
