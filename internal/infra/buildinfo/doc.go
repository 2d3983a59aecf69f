// Package buildinfo exposes the version stamped into memcell binaries.
//
// Values are injected through ldflags:
//
//	go build -ldflags "-X github.com/yndnr/memcell/internal/infra/buildinfo.Version=v0.3.0 \
//	  -X github.com/yndnr/memcell/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// Fields left unset fall back to what the Go runtime recorded in the binary.
package buildinfo
