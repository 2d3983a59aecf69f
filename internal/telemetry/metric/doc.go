// Package metric provides Prometheus metrics for memcell.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Prometheus registry and HTTP handler
//   - collector.go: Collector reading keyspace statistics on demand
//
// Metrics include:
//
//   - Request counters and latency histograms per opcode
//   - Connection gauges
//   - Expiry and dropped-frame counters
//   - Keyspace size
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
