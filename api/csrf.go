package api

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/wayfarer/wayfarer/internal/uuid"
)

const (
	csrfCookieName = "wayfarer_csrf"
	csrfHeaderName = "X-CSRF-Token"
)

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// CSRFMiddleware implements the double-submit cookie check. Safe requests
// are issued a token cookie when they lack one. Unsafe requests that carry a
// session cookie must echo the token in X-CSRF-Token; without a session there
// is nothing to forge, so signup and the first login pass.
func (a *API) CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case safeMethod(r.Method):
			if c, err := r.Cookie(csrfCookieName); err != nil || c.Value == "" {
				writeCSRFCookie(w, r)
			}
		case sessionToken(r) != "":
			if reason, msg := checkCSRF(r); reason != "" {
				a.audit.logFailure(AuditCSRFRejected, r, reason)
				writeError(w, http.StatusForbidden, msg)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// checkCSRF returns an audit reason and client message when r fails the
// double-submit comparison, or empty strings when it passes.
func checkCSRF(r *http.Request) (reason, msg string) {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil || cookie.Value == "" {
		return "missing CSRF cookie", "missing CSRF token"
	}
	header := r.Header.Get(csrfHeaderName)
	if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
		return "CSRF token mismatch", "invalid CSRF token"
	}
	return "", ""
}

// csrfCookie is readable by page scripts, which copy it into the header.
func csrfCookie(r *http.Request, value string) *http.Cookie {
	return &http.Cookie{
		Name:     csrfCookieName,
		Value:    value,
		Path:     "/",
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
	}
}

func writeCSRFCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, csrfCookie(r, uuid.New()))
}

func clearCSRFCookie(w http.ResponseWriter, r *http.Request) {
	c := csrfCookie(r, "")
	c.Expires = time.Unix(0, 0)
	c.MaxAge = -1
	http.SetCookie(w, c)
}
