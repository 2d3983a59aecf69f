package confloader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the prefix of environment variables read by the loader.
const DefaultEnvPrefix = "MEMCELL_"

// Source names reported by Origins.
const (
	SourceFile     = "file"
	SourceEnv      = "env"
	SourceOverride = "override"
)

// Loader merges configuration sources over a typed struct.
type Loader struct {
	envPrefix string
	filePath  string
	overrides map[string]any

	origins map[string]string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the YAML file to load.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithOverrides sets values applied after every other source, keyed by
// dotted config path. Command-line flags use this.
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) {
		l.overrides = values
	}
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load layers the file, the environment and the overrides, in that order,
// over target. Fields no source mentions keep their current values, so
// target should hold the defaults. Each call starts from scratch.
func (l *Loader) Load(target any) error {
	k := koanf.New(".")
	l.origins = make(map[string]string)

	if l.filePath != "" {
		if err := l.merge(k, SourceFile, file.Provider(l.filePath), yaml.Parser()); err != nil {
			return fmt.Errorf("load config file %s: %w", l.filePath, err)
		}
	}

	if err := l.merge(k, SourceEnv, l.envProvider(envKeys(target)), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	if len(l.overrides) > 0 {
		if err := l.merge(k, SourceOverride, mapProvider(l.overrides), nil); err != nil {
			return fmt.Errorf("load overrides: %w", err)
		}
	}

	if err := k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// merge loads one source into k and records which keys it set.
func (l *Loader) merge(k *koanf.Koanf, source string, p koanf.Provider, pa koanf.Parser) error {
	layer := koanf.New(".")
	if err := layer.Load(p, pa); err != nil {
		return err
	}
	for _, key := range layer.Keys() {
		l.origins[key] = source
	}
	return k.Merge(layer)
}

// envProvider reads prefixed variables. Names are matched against the
// target's fields, so MEMCELL_STORAGE_MAX_KEY_LENGTH sets
// storage.max_key_length. Names that match no field have every
// underscore turned into a path separator.
func (l *Loader) envProvider(keys map[string]string) *env.Env {
	return env.Provider(l.envPrefix, ".", func(name string) string {
		name = strings.ToLower(strings.TrimPrefix(name, l.envPrefix))
		if path, ok := keys[name]; ok {
			return path
		}
		return strings.ReplaceAll(name, "_", ".")
	})
}

// Origins maps each key set by the last Load to the source that set it
// last. Keys left at their defaults are absent.
func (l *Loader) Origins() map[string]string {
	out := make(map[string]string, len(l.origins))
	for k, v := range l.origins {
		out[k] = v
	}
	return out
}

// OriginKeys returns the keys of Origins, sorted.
func (l *Loader) OriginKeys() []string {
	keys := make([]string, 0, len(l.origins))
	for k := range l.origins {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
