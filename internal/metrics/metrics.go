// Package metrics holds wayfarer's Prometheus collectors. Collectors are
// registered with the default registry at init and exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wayfarer_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wayfarer_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	RecommendLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_recommend_lookups_total",
			Help: "Recommendation lookups by outcome",
		},
		[]string{"outcome"}, // "hit", "not_found", "unavailable", "bad_request"
	)

	RecommendIndexLabels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wayfarer_recommend_index_labels",
			Help: "Number of labels in the loaded similarity artifact (0 when unavailable)",
		},
	)

	ChatbotReplies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_chatbot_replies_total",
			Help: "Chatbot replies by matched rule",
		},
		[]string{"rule"},
	)

	AuthEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_auth_events_total",
			Help: "Authentication and session events",
		},
		[]string{"event"},
	)

	SecurityAlerts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_security_alerts_total",
			Help: "Security anomaly alerts raised",
		},
		[]string{"type"},
	)

	CommentsPosted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wayfarer_comments_posted_total",
			Help: "Total number of comments accepted",
		},
	)

	SessionsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wayfarer_sessions_swept_total",
			Help: "Expired or corrupt sessions removed by the background sweep",
		},
	)
)

// ChatbotFallback is the rule label recorded when no rule matched.
const ChatbotFallback = "fallback"

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func TrackInFlight(inc bool) {
	if inc {
		HTTPRequestsInFlight.Inc()
	} else {
		HTTPRequestsInFlight.Dec()
	}
}

func RecordRecommendLookup(outcome string) {
	RecommendLookups.WithLabelValues(outcome).Inc()
}

func SetIndexLabels(n int) {
	RecommendIndexLabels.Set(float64(n))
}

// RecordChatbotReply counts a reply. An empty rule name counts as the fallback.
func RecordChatbotReply(rule string) {
	if rule == "" {
		rule = ChatbotFallback
	}
	ChatbotReplies.WithLabelValues(rule).Inc()
}

func RecordAuthEvent(event string) {
	AuthEvents.WithLabelValues(event).Inc()
}

func RecordSecurityAlert(alertType string) {
	SecurityAlerts.WithLabelValues(alertType).Inc()
}

func RecordCommentPosted() {
	CommentsPosted.Inc()
}

func RecordSessionsSwept(n int) {
	if n > 0 {
		SessionsSwept.Add(float64(n))
	}
}
