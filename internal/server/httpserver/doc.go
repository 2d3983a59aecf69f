// Package httpserver serves memcell's side HTTP port.
//
// The port carries operational endpoints only: Prometheus metrics, liveness
// and readiness probes, build information and a keyspace summary. Cache
// traffic never goes through HTTP.
package httpserver
