package domain

import (
	"fmt"
	"time"
)

// Default size limits, matching the memcached defaults.
const (
	DefaultMaxKeyLength = 250
	DefaultMaxValueSize = 1024 * 1024
)

// Entry is a cached value together with its metadata.
//
// Entries are replaced wholesale on overwrite; nothing mutates an entry
// after it has been handed to the storage engine.
type Entry struct {
	// Flags is an opaque client value returned on every get.
	Flags uint32
	// ExpiryMs is the TTL in milliseconds the entry was stored with (0 = none).
	ExpiryMs uint32
	// Value is the stored payload.
	Value []byte
}

// NewEntry builds an entry, copying value so the caller's buffer can be reused.
func NewEntry(flags, expiryMs uint32, value []byte) Entry {
	v := make([]byte, len(value))
	copy(v, value)
	return Entry{Flags: flags, ExpiryMs: expiryMs, Value: v}
}

// TTL returns the entry's time-to-live. Zero means the entry never expires.
func (e Entry) TTL() time.Duration {
	return time.Duration(e.ExpiryMs) * time.Millisecond
}

// Limits bounds the size of keys and values accepted by the server.
type Limits struct {
	MaxKeyLength int
	MaxValueSize int
}

// DefaultLimits returns the memcached-compatible limits.
func DefaultLimits() Limits {
	return Limits{
		MaxKeyLength: DefaultMaxKeyLength,
		MaxValueSize: DefaultMaxValueSize,
	}
}

// ValidateKey checks that key is non-empty and within the length limit.
func (l Limits) ValidateKey(key []byte) error {
	if len(key) == 0 {
		return ErrKeyEmpty
	}
	if l.MaxKeyLength > 0 && len(key) > l.MaxKeyLength {
		return ErrKeyTooLong.With(fmt.Sprintf("%d bytes, limit %d", len(key), l.MaxKeyLength))
	}
	return nil
}

// ValidateValue checks that value fits the configured size limit.
func (l Limits) ValidateValue(value []byte) error {
	if l.MaxValueSize > 0 && len(value) > l.MaxValueSize {
		return ErrValueTooLarge.With(fmt.Sprintf("%d bytes, limit %d", len(value), l.MaxValueSize))
	}
	return nil
}
