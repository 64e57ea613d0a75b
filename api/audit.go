package api

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/wayfarer/wayfarer/internal/metrics"
)

// AuditEvent identifies the type of security-relevant action being logged.
type AuditEvent string

const (
	AuditSignup             AuditEvent = "signup"
	AuditSignupFailure      AuditEvent = "signup_failure"
	AuditLoginSuccess       AuditEvent = "login_success"
	AuditLoginFailure       AuditEvent = "login_failure"
	AuditLoginLocked        AuditEvent = "login_locked"
	AuditLogout             AuditEvent = "logout"
	AuditIntegrityViolation AuditEvent = "session_integrity_violation"
	AuditCSRFRejected       AuditEvent = "csrf_rejected"
	AuditRateLimited        AuditEvent = "rate_limited"
	AuditCommentPosted      AuditEvent = "comment_posted"
	AuditSecurityAlert      AuditEvent = "security_alert"
)

// auditLogger wraps slog.Logger for structured security audit logging.
type auditLogger struct {
	logger  *slog.Logger
	metrics *metricsCollector
}

func newAuditLogger(logger *slog.Logger, alertFn AlertFunc) *auditLogger {
	al := &auditLogger{
		logger: logger.With("component", "audit"),
	}
	al.metrics = newMetricsCollector(func(e AlertEvent) {
		metrics.RecordSecurityAlert(string(e.Type))
		al.logger.Warn("audit",
			slog.String("event", string(AuditSecurityAlert)),
			slog.String("alert", string(e.Type)),
			slog.String("message", e.Message),
			slog.Int("count", e.Count),
			slog.Int("threshold", e.Threshold),
		)
		if alertFn != nil {
			alertFn(e)
		}
	})
	return al
}

// log writes a structured audit log entry and feeds the anomaly collector.
func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("request_id", chimiddleware.GetReqID(r.Context())),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	baseAttrs = append(baseAttrs, attrs...)
	al.logger.LogAttrs(r.Context(), slog.LevelInfo, "audit", baseAttrs...)
	metrics.RecordAuthEvent(string(event))
	al.metrics.recordEvent(event)
}

// logEvent is a convenience for events attributed to a user.
func (al *auditLogger) logEvent(event AuditEvent, r *http.Request, username string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("username", username),
	}
	attrs = append(attrs, extra...)
	al.log(event, r, attrs...)
}

// logFailure logs a rejected request with its reason.
func (al *auditLogger) logFailure(event AuditEvent, r *http.Request, reason string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("reason", reason),
	}
	attrs = append(attrs, extra...)
	al.log(event, r, attrs...)
}
