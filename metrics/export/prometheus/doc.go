// Package prometheus renders sidegate engine metrics in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] accepts a [sidegate.Engine] and exposes an
// http.Handler that renders all counters and histograms. Counter names
// are prefixed sidegate_*_total; the single histogram is
// sidegate_login_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount
//     the Handler.
//   - Mutate engine state.
package prometheus
