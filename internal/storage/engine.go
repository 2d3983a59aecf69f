package storage

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/yndnr/memcell/internal/core/domain"
	"github.com/yndnr/memcell/internal/eventloop"
	"github.com/yndnr/memcell/internal/storage/memory"
)

// Engine names.
const (
	EngineMemory    = "memory"
	EngineMemcached = "memcached"
)

// Engine is a keyspace with per-key expiry.
//
// Engines are not goroutine-safe. All calls, and all expiry callbacks
// armed through the scheduler, happen on one goroutine.
type Engine interface {
	Get(key string) (domain.Entry, bool)
	Put(key string, flags, expiryMs uint32, value []byte)
	Delete(key string) bool
	Contains(key string) bool
	Len() int
	PendingCount() int
}

// Config configures an engine.
type Config struct {
	// Engine is the registered engine name.
	Engine string
	// Scheduler arms expiry callbacks.
	Scheduler eventloop.Scheduler
	// OnExpire is called with each key evicted by its TTL.
	OnExpire func(key string)
	// Logger is the structured logger.
	Logger *slog.Logger
}

// Factory builds an engine from its configuration.
type Factory func(cfg Config) Engine

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func init() {
	Register(EngineMemory, newMemory)
	Register(EngineMemcached, newMemory)
}

// Register makes an engine available under name. Names are case-insensitive.
// Registering a name twice replaces the earlier factory.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = f
}

// Engines returns the registered engine names, sorted.
func Engines() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open builds the engine named by cfg.Engine. An empty or unknown name
// yields the in-memory engine.
func Open(cfg Config) Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	registryMu.RLock()
	f, ok := registry[strings.ToLower(cfg.Engine)]
	registryMu.RUnlock()

	if !ok {
		if cfg.Engine != "" {
			cfg.Logger.Warn("unknown storage engine, using memory",
				"engine", cfg.Engine,
				"available", Engines(),
			)
		}
		f = newMemory
	}
	return f(cfg)
}

func newMemory(cfg Config) Engine {
	opts := []memory.Option{memory.WithLogger(cfg.Logger)}
	if cfg.OnExpire != nil {
		opts = append(opts, memory.WithExpireHook(cfg.OnExpire))
	}
	return memory.New(cfg.Scheduler, opts...)
}
