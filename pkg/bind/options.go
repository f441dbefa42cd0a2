package bind

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/tether/pkg/snapshot"
	"github.com/vango-dev/tether/pkg/telemetry"
	"github.com/vango-dev/tether/pkg/wirename"
)

type options struct {
	channel  string
	element  string
	names    *wirename.Table
	logger   *slog.Logger
	metrics  *telemetry.Metrics
	tracer   trace.Tracer
	store    snapshot.Store
	interval time.Duration
}

// Option configures a Binding.
type Option func(*options)

// WithChannel binds the model to channel instead of the transport's
// default channel.
func WithChannel(channel string) Option {
	return func(o *options) { o.channel = channel }
}

// WithElement sets the mount element selector used by Render.
func WithElement(selector string) Option {
	return func(o *options) { o.element = selector }
}

// WithNames sets the wire name table. Default: wirename.Default.
func WithNames(t *wirename.Table) Option {
	return func(o *options) {
		if t != nil {
			o.names = t
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records edits and broadcasts in m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracer traces edits with t. Default: the global provider's
// "tether" tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithSnapshots restores the model from store when binding and saves it
// after changes, at most once per interval. A zero interval uses
// snapshot.DefaultInterval.
func WithSnapshots(store snapshot.Store, interval time.Duration) Option {
	return func(o *options) {
		o.store = store
		o.interval = interval
	}
}

// ChannelOf returns the channel opts select, or "" when none of them sets
// one.
func ChannelOf(opts ...Option) string {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o.channel
}
