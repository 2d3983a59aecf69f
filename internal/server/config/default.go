package config

import (
	"time"

	"github.com/yndnr/memcell/internal/core/domain"
	"github.com/yndnr/memcell/internal/eventloop"
)

// Default configuration values.
const (
	DefaultMemcacheAddr = "127.0.0.1:11211"
	DefaultHTTPAddr     = "127.0.0.1:11280"

	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 5 * time.Minute
	DefaultMaxFrameSize = 2 * 1024 * 1024

	DefaultStorageEngine = "memory"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Memcache: MemcacheConfig{
				Addr:         DefaultMemcacheAddr,
				ReadTimeout:  DefaultReadTimeout,
				WriteTimeout: DefaultWriteTimeout,
				IdleTimeout:  DefaultIdleTimeout,
				MaxFrameSize: DefaultMaxFrameSize,
			},
			HTTP: HTTPConfig{
				Addr:  DefaultHTTPAddr,
				Audit: true,
			},
		},
		Storage: StorageSection{
			Engine:       DefaultStorageEngine,
			MaxKeyLength: domain.DefaultMaxKeyLength,
			MaxValueSize: domain.DefaultMaxValueSize,
		},
		EventLoop: EventLoopSection{
			QueueSize: eventloop.DefaultQueueSize,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Limits returns the key and value limits configured for storage.
func (s StorageSection) Limits() domain.Limits {
	return domain.Limits{
		MaxKeyLength: s.MaxKeyLength,
		MaxValueSize: s.MaxValueSize,
	}
}
