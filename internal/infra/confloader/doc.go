// Package confloader loads memcell configuration.
//
// The loader layers configuration sources using koanf:
//
//   - Files: YAML
//   - Environment variables: MEMCELL_ prefixed, e.g.
//     MEMCELL_SERVER_MEMCACHE_READ_TIMEOUT=10s
//   - Maps: used for command-line flag overrides
//
// Priority (highest to lowest):
//
//  1. Command-line flags
//  2. Environment variables
//  3. Configuration files
//  4. Default values (the target struct's contents before Load)
//
// Watcher reports changes to configuration files so that settings which
// can change at runtime (the log level) are re-applied.
package confloader
