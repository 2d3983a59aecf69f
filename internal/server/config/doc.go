// Package config provides server configuration for memcell.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (address syntax, port conflicts, size limits)
//
// Configuration is loaded via internal/infra/confloader from a YAML file,
// MEMCELL_ environment variables and command-line flags.
package config
