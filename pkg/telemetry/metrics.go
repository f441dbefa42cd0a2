package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Edit outcomes recorded in tether_edits_total.
const (
	OutcomeApplied      = "applied"
	OutcomeUnchanged    = "unchanged"
	OutcomeUnknownField = "unknown_field"
	OutcomeRejected     = "rejected"
	OutcomeInvalid      = "invalid"
)

// Broadcast sources recorded in tether_broadcasts_total.
const (
	SourceHandler  = "handler"
	SourceListener = "listener"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "tether").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for edit duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "tether",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	edits           *prometheus.CounterVec
	editDuration    *prometheus.HistogramVec
	broadcasts      *prometheus.CounterVec
	coercionErrors  *prometheus.CounterVec
	transportErrors *prometheus.CounterVec
	clients         prometheus.Gauge
	droppedClients  *prometheus.CounterVec
	rateLimited     prometheus.Counter
	snapshotSaves   *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors. Registering twice on the
// same registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		edits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "edits_total",
			Help:        "Total number of inbound field edits by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"channel", "outcome"}),

		editDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "edit_duration_seconds",
			Help:        "Inbound edit handling duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"channel"}),

		broadcasts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "broadcasts_total",
			Help:        "Total number of field deltas broadcast by source",
			ConstLabels: config.ConstLabels,
		}, []string{"channel", "source"}),

		coercionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "coercion_errors_total",
			Help:        "Inbound values that could not be converted to the field type",
			ConstLabels: config.ConstLabels,
		}, []string{"channel", "field"}),

		transportErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transport_errors_total",
			Help:        "Broadcasts the transport failed to accept",
			ConstLabels: config.ConstLabels,
		}, []string{"channel"}),

		clients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "connected_clients",
			Help:        "Number of connected websocket clients",
			ConstLabels: config.ConstLabels,
		}),

		droppedClients: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dropped_clients_total",
			Help:        "Clients disconnected by the server by reason",
			ConstLabels: config.ConstLabels,
		}, []string{"reason"}),

		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "rate_limited_total",
			Help:        "Inbound messages dropped by the per-client rate limit",
			ConstLabels: config.ConstLabels,
		}),

		snapshotSaves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "snapshot_saves_total",
			Help:        "Model snapshot writes by status",
			ConstLabels: config.ConstLabels,
		}, []string{"channel", "status"}),
	}
}

// Edit records one handled edit.
func (m *Metrics) Edit(channel, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.edits.WithLabelValues(channel, outcome).Inc()
	m.editDuration.WithLabelValues(channel).Observe(d.Seconds())
}

// Broadcast records one delta handed to the transport.
func (m *Metrics) Broadcast(channel, source string) {
	if m == nil {
		return
	}
	m.broadcasts.WithLabelValues(channel, source).Inc()
}

// CoercionError records a value that kept its raw form.
func (m *Metrics) CoercionError(channel, field string) {
	if m == nil {
		return
	}
	m.coercionErrors.WithLabelValues(channel, field).Inc()
}

// TransportError records a failed broadcast.
func (m *Metrics) TransportError(channel string) {
	if m == nil {
		return
	}
	m.transportErrors.WithLabelValues(channel).Inc()
}

// ClientConnected increments the connected clients gauge.
func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.clients.Inc()
}

// ClientDisconnected decrements the connected clients gauge.
func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.clients.Dec()
}

// ClientDropped records a client removed by the server.
func (m *Metrics) ClientDropped(reason string) {
	if m == nil {
		return
	}
	m.droppedClients.WithLabelValues(reason).Inc()
}

// RateLimited records a dropped inbound message.
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// SnapshotSaved records a snapshot write. A nil err counts as "ok".
func (m *Metrics) SnapshotSaved(channel string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.snapshotSaves.WithLabelValues(channel, status).Inc()
}
