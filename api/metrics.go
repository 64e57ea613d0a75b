package api

import (
	"sync"
	"time"
)

// AlertType identifies the kind of anomaly detected.
type AlertType string

const (
	AlertLoginFailureSpike AlertType = "login_failure_spike"
	AlertIntegritySpike    AlertType = "session_integrity_spike"
)

// AlertEvent describes an anomaly that triggered an alert.
type AlertEvent struct {
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Count     int       `json:"count"`
	Threshold int       `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertFunc is the callback invoked when an anomaly is detected.
type AlertFunc func(AlertEvent)

// metricsCollector tracks sliding window counters for anomaly detection.
type metricsCollector struct {
	mu  sync.Mutex
	now func() time.Time

	loginFailures  []time.Time
	loginWindow    time.Duration
	loginThreshold int

	// Fingerprint mismatches usually mean stolen cookies being replayed.
	violations         []time.Time
	violationWindow    time.Duration
	violationThreshold int

	alertFn AlertFunc
}

const (
	defaultLoginFailureWindow    = 1 * time.Minute
	defaultLoginFailureThreshold = 50
	defaultViolationWindow       = 5 * time.Minute
	defaultViolationThreshold    = 10
)

func newMetricsCollector(alertFn AlertFunc) *metricsCollector {
	return &metricsCollector{
		now:                time.Now,
		loginWindow:        defaultLoginFailureWindow,
		loginThreshold:     defaultLoginFailureThreshold,
		violationWindow:    defaultViolationWindow,
		violationThreshold: defaultViolationThreshold,
		alertFn:            alertFn,
	}
}

// recordEvent inspects an audit event and updates the relevant counters.
func (m *metricsCollector) recordEvent(event AuditEvent) {
	if m == nil || m.alertFn == nil {
		return
	}
	switch event {
	case AuditLoginFailure:
		m.record(&m.loginFailures, m.loginWindow, m.loginThreshold,
			AlertLoginFailureSpike, "login failure rate exceeds threshold")
	case AuditIntegrityViolation:
		m.record(&m.violations, m.violationWindow, m.violationThreshold,
			AlertIntegritySpike, "session integrity violations exceed threshold")
	}
}

func (m *metricsCollector) record(times *[]time.Time, window time.Duration, threshold int, typ AlertType, msg string) {
	m.mu.Lock()
	now := m.now()
	*times = trimWindow(append(*times, now), now, window)
	if len(*times) < threshold {
		m.mu.Unlock()
		return
	}
	event := AlertEvent{
		Type:      typ,
		Message:   msg,
		Count:     len(*times),
		Threshold: threshold,
		Timestamp: now,
	}
	// Reset to avoid repeated alerts within the same spike.
	*times = (*times)[:0]
	m.mu.Unlock()

	m.alertFn(event)
}

// trimWindow removes entries older than (now - window) from the sorted slice.
func trimWindow(times []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	start := 0
	for start < len(times) && times[start].Before(cutoff) {
		start++
	}
	return times[start:]
}
