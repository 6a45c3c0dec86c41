// Package metrics exposes Prometheus collectors for tool calls, webhook
// round trips and transport sessions.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reservation_mcp"

// Outcome labels of a tool call.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// UnknownToolLabel replaces the tool label of calls naming an unregistered
// tool, so that clients cannot grow the label set.
const UnknownToolLabel = "unknown"

// Metrics owns a private registry so that tests and multiple servers in one
// process never collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	toolCalls       *prometheus.CounterVec
	webhookDuration *prometheus.HistogramVec
	webhookAttempts *prometheus.CounterVec
	activeSessions  *prometheus.GaugeVec
}

// New creates the collectors and registers them together with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool calls handled, by tool, outcome and error kind.",
		}, []string{"tool", "outcome", "kind"}),
		webhookDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_request_duration_seconds",
			Help:      "Duration of webhook round trips, by tool and HTTP status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool", "status"}),
		webhookAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_attempts_total",
			Help:      "Webhook attempts including retries, by tool.",
		}, []string{"tool"}),
		activeSessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Open sessions, by transport.",
		}, []string{"transport"}),
	}

	m.registry.MustRegister(
		m.toolCalls,
		m.webhookDuration,
		m.webhookAttempts,
		m.activeSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveToolCall records the outcome of a tool call. kind is empty on success.
func (m *Metrics) ObserveToolCall(tool string, isError bool, kind string) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if isError {
		outcome = OutcomeError
	}
	m.toolCalls.WithLabelValues(tool, outcome, kind).Inc()
}

// ObserveWebhook records one webhook attempt. status is 0 when no response
// was received.
func (m *Metrics) ObserveWebhook(tool string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "none"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.webhookAttempts.WithLabelValues(tool).Inc()
	m.webhookDuration.WithLabelValues(tool, label).Observe(elapsed.Seconds())
}

// SessionOpened increments the open session gauge of a transport.
func (m *Metrics) SessionOpened(transport string) {
	if m == nil {
		return
	}
	m.activeSessions.WithLabelValues(transport).Inc()
}

// SessionClosed decrements the open session gauge of a transport.
func (m *Metrics) SessionClosed(transport string) {
	if m == nil {
		return
	}
	m.activeSessions.WithLabelValues(transport).Dec()
}
