package binserver

import "time"

// Config tunes the binary protocol listener. Zero durations and limits
// disable the corresponding check.
type Config struct {
	// Address is the TCP listen address.
	Address string

	// ReadTimeout bounds reading the rest of a frame once its first byte
	// has arrived.
	ReadTimeout time.Duration

	// WriteTimeout bounds flushing one batch of responses.
	WriteTimeout time.Duration

	// IdleTimeout closes connections with nothing buffered for this long.
	IdleTimeout time.Duration

	// RateLimit caps requests per second on each connection. Requests
	// over the limit wait rather than fail.
	RateLimit int

	// RateBurst is the token bucket size. Zero means RateLimit.
	RateBurst int

	// MaxFrameSize closes connections that announce a larger frame.
	MaxFrameSize int
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() *Config {
	return &Config{
		Address:      "127.0.0.1:11211",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
		MaxFrameSize: 2 << 20,
	}
}

func (c *Config) burst() int {
	if c.RateBurst > 0 {
		return c.RateBurst
	}
	return c.RateLimit
}
