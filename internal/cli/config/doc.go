// Package config holds memcell-cli's settings file (~/.memcell/cli.yaml).
//
// Precedence, lowest first: built-in defaults, the YAML file, MEMCELL_*
// environment variables, then command-line flags, which the command package
// applies itself.
package config
