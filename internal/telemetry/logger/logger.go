package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string
	// Format is json (default) or text.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
	// AddSource adds the calling file and line to each record.
	AddSource bool
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: FormatJSON,
		Output: os.Stderr,
	}
}

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// current is shared by every logger built with New so that a config
// reload can change verbosity process-wide.
var current = new(slog.LevelVar)

// New builds a logger from cfg and sets the shared level.
//
// Records pass through redaction, and the request and connection IDs
// stored in a record's context are appended as attributes.
func New(cfg Config) (*slog.Logger, error) {
	lvl := slog.LevelInfo
	if cfg.Level != "" {
		var err error
		if lvl, err = ParseLevel(cfg.Level); err != nil {
			return nil, err
		}
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     current,
		AddSource: cfg.AddSource,
		ReplaceAttr: redact,
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", FormatJSON:
		h = slog.NewJSONHandler(out, opts)
	case FormatText, "console":
		h = slog.NewTextHandler(out, opts)
	default:
		return nil, fmt.Errorf("logger: unknown format %q", cfg.Format)
	}

	current.Set(lvl)
	return slog.New(WithContextIDs(h)), nil
}

// ParseLevel maps a level name to its slog level. Names are
// case-insensitive and "warning" is accepted for warn.
func ParseLevel(name string) (slog.Level, error) {
	if lvl, ok := levels[strings.ToLower(name)]; ok {
		return lvl, nil
	}
	return 0, fmt.Errorf("logger: unknown level %q", name)
}

// ValidLevel reports whether ParseLevel accepts name.
func ValidLevel(name string) bool {
	_, err := ParseLevel(name)
	return err == nil
}

// SetLevel changes the level of every logger built with New.
func SetLevel(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	current.Set(lvl)
	return nil
}

// Level returns the shared level's name in lower case.
func Level() string {
	return strings.ToLower(current.Level().String())
}
