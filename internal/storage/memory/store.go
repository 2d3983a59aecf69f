package memory

import (
	"log/slog"
	"time"

	"github.com/yndnr/memcell/internal/core/domain"
	"github.com/yndnr/memcell/internal/eventloop"
)

// Store is the authoritative keyspace plus its TTL scheduler.
type Store struct {
	entries map[string]domain.Entry
	pending map[string]*PendingExpiry

	sched    eventloop.Scheduler
	onExpire func(key string)
	logger   *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithExpireHook registers fn to be called after a key is evicted by its TTL.
func WithExpireHook(fn func(key string)) Option {
	return func(s *Store) {
		s.onExpire = fn
	}
}

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an empty store whose expiries are armed on sched.
func New(sched eventloop.Scheduler, opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]domain.Entry),
		pending: make(map[string]*PendingExpiry),
		sched:   sched,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Put stores value under key, replacing any existing entry.
//
// The key's previous expiry is cancelled before the new entry is stored; a
// non-zero expiryMs arms a new one that fires after that many milliseconds.
func (s *Store) Put(key string, flags, expiryMs uint32, value []byte) {
	s.cancel(key)
	e := domain.NewEntry(flags, expiryMs, value)
	s.entries[key] = e

	if ttl := e.TTL(); ttl > 0 {
		s.arm(key, ttl)
	}
}

// Get returns the entry stored under key.
func (s *Store) Get(key string) (domain.Entry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Contains reports whether key is present.
func (s *Store) Contains(key string) bool {
	_, ok := s.entries[key]
	return ok
}

// Delete removes key and cancels its expiry. It reports whether key existed.
func (s *Store) Delete(key string) bool {
	if _, ok := s.entries[key]; !ok {
		return false
	}
	s.cancel(key)
	delete(s.entries, key)
	return true
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	return len(s.entries)
}

// PendingCount returns the number of armed expiries.
func (s *Store) PendingCount() int {
	return len(s.pending)
}

// ExpiresIn returns the TTL the key's current expiry was armed with.
func (s *Store) ExpiresIn(key string) (time.Duration, bool) {
	p, ok := s.pending[key]
	if !ok {
		return 0, false
	}
	return p.TTL(), true
}
