package config

import "time"

// ServerConfig is the root configuration for memcell-server.
type ServerConfig struct {
	Server    ServerSection    `koanf:"server"`
	Storage   StorageSection   `koanf:"storage"`
	EventLoop EventLoopSection `koanf:"eventloop"`
	Log       LogSection       `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Memcache MemcacheConfig `koanf:"memcache"`
	HTTP     HTTPConfig     `koanf:"http"`
}

// MemcacheConfig configures the binary protocol listener.
type MemcacheConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	// RateLimit is requests per second per connection; 0 disables.
	RateLimit int `koanf:"rate_limit"`
	RateBurst int `koanf:"rate_burst"`
	// MaxFrameSize is the largest accepted frame in bytes; 0 disables.
	MaxFrameSize int `koanf:"max_frame_size"`
}

// HTTPConfig configures the metrics and health endpoint.
type HTTPConfig struct {
	// Addr is the listen address. Empty disables the HTTP server.
	Addr string `koanf:"addr"`

	// Audit logs one line per HTTP request.
	Audit bool `koanf:"audit"`
}

// StorageSection configures the keyspace.
type StorageSection struct {
	// Engine names the storage backend. Unknown names fall back to memory.
	Engine       string `koanf:"engine"`
	MaxKeyLength int    `koanf:"max_key_length"`
	MaxValueSize int    `koanf:"max_value_size"`
}

// EventLoopSection configures the event loop.
type EventLoopSection struct {
	QueueSize int `koanf:"queue_size"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
