// Package main provides the entry point for memcell-server.
//
// memcell-server runs the binary protocol cache listener and, when an
// address is configured, a side HTTP port serving /metrics, /healthz,
// /readyz, /version and /stats.
//
// Usage:
//
//	memcell-server [flags]
//	memcell-server --config /etc/memcell/server.yaml
//	memcell-server --addr 0.0.0.0:11211 --log-level debug
//
// Settings are read from defaults, then the config file, then MEMCELL_*
// environment variables, then flags. Changing log.level in the config file
// takes effect without a restart.
package main
