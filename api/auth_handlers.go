package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/wayfarer/wayfarer/accounts"
	"github.com/wayfarer/wayfarer/session"
)

const maxAuthBodySize = 8 << 10

// Signup handles POST /auth/signup.
func (a *API) Signup(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[SignupRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}
	if err := a.accounts.Register(r.Context(), req); err != nil {
		if errors.Is(err, accounts.ErrInvalidInput) || errors.Is(err, accounts.ErrAlreadyExists) {
			a.audit.logFailure(AuditSignupFailure, r, err.Error(),
				slog.String("username", strings.TrimSpace(req.Username)))
		}
		a.mapError(w, r, err)
		return
	}
	a.audit.logEvent(AuditSignup, r, strings.TrimSpace(req.Username))
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// Login handles POST /auth/login. Any session the client already holds is
// destroyed and replaced, and the CSRF token is rotated with it.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[LoginRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password required")
		return
	}

	if blocked, retryAfter := a.lockout.check(username); blocked {
		a.audit.logFailure(AuditLoginLocked, r, "account locked", slog.String("username", username))
		writeRateLimited(w, retryAfter)
		return
	}

	profile, err := a.accounts.Verify(r.Context(), username, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			a.lockout.recordFailure(username)
			a.audit.logFailure(AuditLoginFailure, r, "invalid credentials", slog.String("username", username))
		}
		a.mapError(w, r, err)
		return
	}
	a.lockout.recordSuccess(username)

	token, sess, err := a.sessions.Login(r.Context(), sessionToken(r), profile.Username, r.UserAgent())
	if err != nil {
		a.writeInternalError(w, r, "failed to create session", err)
		return
	}
	writeSessionCookie(w, r, token, sess.ExpiresAt)
	writeCSRFCookie(w, r)

	a.audit.logEvent(AuditLoginSuccess, r, profile.Username)
	writeJSON(w, http.StatusOK, WhoAmIResponse{OK: true, Username: profile.Username})
}

// WhoAmI handles GET /auth/whoami. A missing or expired session is not an
// error; a fingerprint mismatch is.
func (a *API) WhoAmI(w http.ResponseWriter, r *http.Request) {
	subject, err := a.authenticate(w, r)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, WhoAmIResponse{OK: true, Username: subject})
	case errors.Is(err, session.ErrUnauthenticated):
		writeJSON(w, http.StatusOK, WhoAmIResponse{OK: false})
	default:
		a.mapError(w, r, err)
	}
}

// Logout handles POST /auth/logout. It always succeeds.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	subject, _ := a.sessions.Authenticate(r.Context(), token, r.UserAgent())
	a.sessions.Logout(r.Context(), token)
	clearSessionCookie(w, r)
	clearCSRFCookie(w, r)
	a.audit.logEvent(AuditLogout, r, subject)
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// Profile handles GET /auth/profile.
func (a *API) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := a.accounts.Profile(r.Context(), subjectFromContext(r.Context()))
	if err != nil {
		a.mapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
