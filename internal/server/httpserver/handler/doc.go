// Package handler implements the JSON endpoints of the HTTP port:
// /healthz, /readyz, /version and /stats.
//
// Every body is an Envelope. /metrics uses the Prometheus exposition
// format and is mounted by the router instead.
package handler
