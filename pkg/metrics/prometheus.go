package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the relay service
type Metrics struct {
	registry *prometheus.Registry

	// HTTP Request Metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// WebSocket Metrics
	websocketConnections prometheus.Gauge
	websocketEventsTotal *prometheus.CounterVec
	websocketErrorsTotal *prometheus.CounterVec

	// Presence Metrics
	presenceIdentities prometheus.Gauge

	// Call Signaling Metrics
	callOffersTotal     *prometheus.CounterVec
	callOutcomesTotal   *prometheus.CounterVec
	signalsRelayedTotal *prometheus.CounterVec
	routingMissesTotal  *prometheus.CounterVec

	// Chat Metrics
	messagesTotal   *prometheus.CounterVec
	spamChecksTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics on a private registry
func NewMetrics(serviceName string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	labels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		registry: registry,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Total number of HTTP requests",
				ConstLabels: labels,
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "HTTP request latency in seconds",
				ConstLabels: labels,
				Buckets:     prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		httpRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name:        "http_requests_in_flight",
				Help:        "Number of HTTP requests currently being processed",
				ConstLabels: labels,
			},
		),

		websocketConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name:        "websocket_connections",
				Help:        "Number of open WebSocket sessions",
				ConstLabels: labels,
			},
		),
		websocketEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "websocket_events_total",
				Help:        "Total number of WebSocket events processed",
				ConstLabels: labels,
			},
			[]string{"event"},
		),
		websocketErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "websocket_errors_total",
				Help:        "Total number of malformed or undeliverable WebSocket events",
				ConstLabels: labels,
			},
			[]string{"reason"},
		),

		presenceIdentities: factory.NewGauge(
			prometheus.GaugeOpts{
				Name:        "presence_identities",
				Help:        "Number of identities with at least one open session",
				ConstLabels: labels,
			},
		),

		callOffersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "call_offers_total",
				Help:        "Total number of call offers relayed",
				ConstLabels: labels,
			},
			[]string{"media_type"},
		),
		callOutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "call_outcomes_total",
				Help:        "Terminal call transitions by outcome",
				ConstLabels: labels,
			},
			[]string{"outcome"},
		),
		signalsRelayedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "signals_relayed_total",
				Help:        "Total number of SDP/ICE envelopes relayed",
				ConstLabels: labels,
			},
			[]string{"type"},
		),
		routingMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "routing_misses_total",
				Help:        "Events addressed to identities with zero open sessions",
				ConstLabels: labels,
			},
			[]string{"event"},
		),

		messagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "chat_messages_total",
				Help:        "Chat messages processed by delivery status",
				ConstLabels: labels,
			},
			[]string{"status"},
		),
		spamChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "spam_checks_total",
				Help:        "Spam classifier calls by verdict",
				ConstLabels: labels,
			},
			[]string{"verdict"},
		),
	}

	return m
}

// GetRegistry returns the metrics registry for the /metrics endpoint
func (m *Metrics) GetRegistry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request with its outcome
func (m *Metrics) RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments the in-flight request gauge
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.httpRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements the in-flight request gauge
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.httpRequestsInFlight.Dec()
}

// WebSocketConnected records a new WebSocket session
func (m *Metrics) WebSocketConnected() {
	m.websocketConnections.Inc()
}

// WebSocketDisconnected records a closed WebSocket session
func (m *Metrics) WebSocketDisconnected() {
	m.websocketConnections.Dec()
}

// RecordEvent records a processed WebSocket event
func (m *Metrics) RecordEvent(event string) {
	m.websocketEventsTotal.WithLabelValues(event).Inc()
}

// RecordEventError records a malformed or undeliverable event
func (m *Metrics) RecordEventError(reason string) {
	m.websocketErrorsTotal.WithLabelValues(reason).Inc()
}

// SetPresenceIdentities updates the online identity gauge
func (m *Metrics) SetPresenceIdentities(n int) {
	m.presenceIdentities.Set(float64(n))
}

// RecordCallOffer records a relayed call offer
func (m *Metrics) RecordCallOffer(mediaType string) {
	m.callOffersTotal.WithLabelValues(mediaType).Inc()
}

// RecordCallOutcome records a terminal call transition (accepted, rejected, ended)
func (m *Metrics) RecordCallOutcome(outcome string) {
	m.callOutcomesTotal.WithLabelValues(outcome).Inc()
}

// RecordSignalRelayed records a forwarded SDP/ICE envelope
func (m *Metrics) RecordSignalRelayed(signalType string) {
	m.signalsRelayedTotal.WithLabelValues(signalType).Inc()
}

// RecordRoutingMiss records an event addressed to an identity with no sessions
func (m *Metrics) RecordRoutingMiss(event string) {
	m.routingMissesTotal.WithLabelValues(event).Inc()
}

// RecordMessage records a chat message by delivery status (delivered, blocked, miss)
func (m *Metrics) RecordMessage(status string) {
	m.messagesTotal.WithLabelValues(status).Inc()
}

// RecordSpamCheck records a spam classifier call by verdict (spam, ham, error)
func (m *Metrics) RecordSpamCheck(verdict string) {
	m.spamChecksTotal.WithLabelValues(verdict).Inc()
}
