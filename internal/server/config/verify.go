package config

import (
	"errors"
	"fmt"
	"math"
	"net"
	"strings"

	"github.com/yndnr/memcell/internal/telemetry/logger"
)

// frameOverhead is the header plus store extras carried by every set frame.
const frameOverhead = 24 + 8

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifyFrameSize(cfg); err != nil {
		return err
	}
	if cfg.EventLoop.QueueSize < 1 {
		return errors.New("eventloop.queue_size must be at least 1")
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	mc := &cfg.Memcache
	if mc.Addr == "" {
		return errors.New("server.memcache.addr is required")
	}
	if err := verifyAddr("server.memcache.addr", mc.Addr); err != nil {
		return err
	}
	if mc.ReadTimeout < 0 || mc.WriteTimeout < 0 || mc.IdleTimeout < 0 {
		return errors.New("server.memcache timeouts must not be negative")
	}
	if mc.RateLimit < 0 {
		return errors.New("server.memcache.rate_limit must not be negative")
	}
	if mc.RateBurst < 0 {
		return errors.New("server.memcache.rate_burst must not be negative")
	}

	if cfg.HTTP.Addr != "" {
		if err := verifyAddr("server.http.addr", cfg.HTTP.Addr); err != nil {
			return err
		}
		if samePort(mc.Addr, cfg.HTTP.Addr) {
			return fmt.Errorf("server.http.addr %q conflicts with server.memcache.addr %q", cfg.HTTP.Addr, mc.Addr)
		}
	}
	return nil
}

func verifyAddr(name, addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%s: invalid address %q: %w", name, addr, err)
	}
	if _, err := net.LookupPort("tcp", port); err != nil {
		return fmt.Errorf("%s: invalid port %q: %w", name, port, err)
	}
	return nil
}

// samePort reports whether two listen addresses would collide. Port 0
// never collides; an empty or wildcard host collides with any host.
func samePort(a, b string) bool {
	ha, pa, errA := net.SplitHostPort(a)
	hb, pb, errB := net.SplitHostPort(b)
	if errA != nil || errB != nil || pa != pb || pa == "0" {
		return false
	}
	if isWildcard(ha) || isWildcard(hb) {
		return true
	}
	return ha == hb
}

func isWildcard(host string) bool {
	return host == "" || host == "0.0.0.0" || host == "::"
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.MaxKeyLength < 1 || cfg.MaxKeyLength > math.MaxUint16 {
		return fmt.Errorf("storage.max_key_length must be between 1 and %d", math.MaxUint16)
	}
	if cfg.MaxValueSize < 0 {
		return errors.New("storage.max_value_size must not be negative")
	}
	return nil
}

func verifyFrameSize(cfg *ServerConfig) error {
	limit := cfg.Server.Memcache.MaxFrameSize
	if limit < 0 {
		return errors.New("server.memcache.max_frame_size must not be negative")
	}
	if limit == 0 || cfg.Storage.MaxValueSize == 0 {
		return nil
	}
	need := frameOverhead + cfg.Storage.MaxKeyLength + cfg.Storage.MaxValueSize
	if limit < need {
		return fmt.Errorf("server.memcache.max_frame_size %d is smaller than the largest valid set frame (%d)", limit, need)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
		return nil
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
}
