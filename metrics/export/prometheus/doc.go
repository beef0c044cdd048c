// Package prometheus renders application metrics in Prometheus text exposition format.
//
// [NewPrometheusExporter] reads [cursos.App.MetricsSnapshot] on every scrape. Counter
// names are prefixed cursos_*_total; the single histogram is
// cursos_dispatch_latency_seconds. [WithSessionCounter] adds a stored-session gauge.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the Handler.
//   - Mutate application state.
package prometheus
