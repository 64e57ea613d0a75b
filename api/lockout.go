package api

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// loginLockout tracks consecutive failed logins per username and enforces
// exponential backoff. It complements the per-IP request limit, which cannot
// see a slow distributed guess against one account.
type loginLockout struct {
	mu       sync.Mutex
	now      func() time.Time
	attempts map[string]*attemptRecord
}

type attemptRecord struct {
	failures    int
	lastFailure time.Time
	lockedUntil time.Time
}

const (
	// maxFailures is the number of consecutive failures before lockout begins.
	maxFailures = 5
	// baseLockout is the initial lockout duration after maxFailures is reached.
	baseLockout = 1 * time.Minute
	// maxLockout caps the exponential backoff.
	maxLockout = 15 * time.Minute
	// attemptExpiry is how long after the last failure a record is forgotten.
	attemptExpiry = 1 * time.Hour
	// sweepThreshold triggers an inline sweep once the map grows this large.
	sweepThreshold = 10000
)

func newLoginLockout() *loginLockout {
	return &loginLockout{
		now:      time.Now,
		attempts: make(map[string]*attemptRecord),
	}
}

// lockoutKey matches account lookup: usernames are case-sensitive, so
// failures against "ALICE" must not lock out "alice".
func lockoutKey(username string) string {
	return strings.TrimSpace(username)
}

// check returns true if the username is currently locked out, along with how
// long the caller should wait.
func (l *loginLockout) check(username string) (blocked bool, retryAfter time.Duration) {
	key := lockoutKey(username)
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.attempts[key]
	if !ok {
		return false, 0
	}
	now := l.now()
	if now.Sub(rec.lastFailure) > attemptExpiry {
		delete(l.attempts, key)
		return false, 0
	}
	if now.Before(rec.lockedUntil) {
		return true, rec.lockedUntil.Sub(now)
	}
	return false, 0
}

// recordFailure increments the failure counter and applies exponential
// backoff once maxFailures is reached.
func (l *loginLockout) recordFailure(username string) {
	key := lockoutKey(username)
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.attempts) >= sweepThreshold {
		l.sweepLocked()
	}
	rec, ok := l.attempts[key]
	if !ok {
		rec = &attemptRecord{}
		l.attempts[key] = rec
	}
	now := l.now()
	rec.failures++
	rec.lastFailure = now

	if rec.failures >= maxFailures {
		lockout := baseLockout
		for i := 0; i < rec.failures-maxFailures; i++ {
			lockout *= 2
			if lockout >= maxLockout {
				lockout = maxLockout
				break
			}
		}
		rec.lockedUntil = now.Add(lockout)
	}
}

// recordSuccess resets the failure counter on a successful login.
func (l *loginLockout) recordSuccess(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, lockoutKey(username))
}

func (l *loginLockout) sweepLocked() {
	now := l.now()
	for key, rec := range l.attempts {
		if now.Sub(rec.lastFailure) > attemptExpiry {
			delete(l.attempts, key)
		}
	}
}

// writeRateLimited sends a 429 Too Many Requests response.
func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	w.Header().Set("Retry-After", retryAfterString(retryAfter))
	writeError(w, http.StatusTooManyRequests, "too many failed login attempts; try again later")
}

func retryAfterString(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
