// Package telemetry collects Prometheus metrics and OpenTelemetry traces for
// the sync layer.
//
// Metrics are grouped in a *Metrics value created with NewMetrics. Every
// method is safe to call on a nil *Metrics, so components accept an optional
// metrics handle and record unconditionally:
//
//	m := telemetry.NewMetrics(telemetry.WithRegistry(reg))
//	b, _ := bind.New(model, t, bind.WithMetrics(m))
//
// Collected series (default namespace "tether"):
//   - tether_edits_total{channel,outcome}
//   - tether_edit_duration_seconds{channel}
//   - tether_broadcasts_total{channel,source}
//   - tether_coercion_errors_total{channel,field}
//   - tether_transport_errors_total{channel}
//   - tether_connected_clients
//   - tether_dropped_clients_total{reason}
//   - tether_rate_limited_total
//   - tether_snapshot_saves_total{channel,status}
//
// Tracing uses the global OpenTelemetry tracer provider. Configure it in
// main() before binding models; without one, spans are no-ops.
package telemetry
