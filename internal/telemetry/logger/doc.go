// Package logger builds the process's *slog.Logger.
//
// Loggers built with New share one level, which SetLevel changes at
// runtime (the config watcher does this when log.level changes). Cached
// values are logged as their size and credential-like attributes are
// masked. Request and connection IDs placed in a context with
// WithRequestID and WithConnID are added to every record logged with
// that context.
package logger
