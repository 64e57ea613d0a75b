package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

const alertQueueSize = 256

// alertPayload is the JSON body POSTed to the webhook endpoint.
type alertPayload struct {
	Service   string `json:"service"`
	Alert     string `json:"alert"`
	Message   string `json:"message"`
	Count     int    `json:"count"`
	Threshold int    `json:"threshold"`
	Timestamp string `json:"timestamp"`
}

// AlertWebhook forwards security alerts to an external HTTP endpoint.
// Notify never blocks; alerts are queued and delivered by a background
// goroutine, and dropped when the queue is full.
type AlertWebhook struct {
	url        string
	authHeader string // "Header: Value"
	client     *http.Client
	logger     *slog.Logger
	retryDelay time.Duration
	alerts     chan alertPayload
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// NewAlertWebhook starts a dispatcher posting to url. authHeader is optional
// and takes the form "Authorization: Bearer xxx".
func NewAlertWebhook(url, authHeader string, logger *slog.Logger) *AlertWebhook {
	if logger == nil {
		logger = slog.Default()
	}
	w := &AlertWebhook{
		url:        url,
		authHeader: authHeader,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger.With("component", "alert_webhook"),
		retryDelay: time.Second,
		alerts:     make(chan alertPayload, alertQueueSize),
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

// Notify queues an alert for delivery. It matches AlertFunc.
func (w *AlertWebhook) Notify(e AlertEvent) {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	p := alertPayload{
		Service:   "wayfarer",
		Alert:     string(e.Type),
		Message:   e.Message,
		Count:     e.Count,
		Threshold: e.Threshold,
		Timestamp: ts.UTC().Format(time.RFC3339),
	}
	select {
	case w.alerts <- p:
	default:
		w.logger.Warn("queue full, dropping alert", "alert", p.Alert)
	}
}

// Close stops accepting alerts and waits for queued ones to be sent.
func (w *AlertWebhook) Close() {
	w.closeOnce.Do(func() {
		close(w.alerts)
		w.wg.Wait()
	})
}

func (w *AlertWebhook) loop() {
	defer w.wg.Done()
	for p := range w.alerts {
		w.send(p)
	}
}

// send POSTs one alert, retrying once on a transport error or 5xx.
func (w *AlertWebhook) send(p alertPayload) {
	body, err := json.Marshal(p)
	if err != nil {
		w.logger.Warn("marshal failed", "error", err)
		return
	}

	for attempt := range 2 {
		if attempt > 0 {
			time.Sleep(w.retryDelay)
		}

		req, err := http.NewRequest(http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			w.logger.Warn("request creation failed", "error", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "Wayfarer-Alert-Webhook/1.0")
		if name, value, ok := strings.Cut(w.authHeader, ":"); ok {
			req.Header.Set(strings.TrimSpace(name), strings.TrimSpace(value))
		}

		resp, err := w.client.Do(req)
		if err != nil {
			w.logger.Warn("request failed", "error", err, "attempt", attempt+1)
			continue
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return
		case resp.StatusCode >= 500:
			w.logger.Warn("server error", "status", resp.StatusCode, "attempt", attempt+1)
			continue
		default:
			w.logger.Warn("alert rejected", "status", resp.StatusCode)
			return
		}
	}
}
