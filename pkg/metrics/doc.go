// Package metrics exposes Prometheus metrics for provisioning sessions.
//
// A Recorder registers its collectors on a caller-supplied registerer so a
// device binary can serve them from /metrics. A nil *Recorder is valid and
// records nothing.
package metrics
