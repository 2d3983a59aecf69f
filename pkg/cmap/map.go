package cmap

import (
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultShards is the shard count used by New.
const DefaultShards = 16

// Map is a string-keyed map split into independently locked shards.
type Map[K ~string, V any] struct {
	shards []shard[K, V]
	mask   uint32
}

type shard[K ~string, V any] struct {
	sync.RWMutex
	m map[K]V
}

// New creates a map with DefaultShards shards.
func New[K ~string, V any]() *Map[K, V] {
	return NewSharded[K, V](DefaultShards)
}

// NewSharded creates a map with n shards. n is rounded up to a power of
// two; values below one mean DefaultShards.
func NewSharded[K ~string, V any](n int) *Map[K, V] {
	if n < 1 {
		n = DefaultShards
	}
	size := 1
	for size < n {
		size <<= 1
	}

	m := &Map[K, V]{shards: make([]shard[K, V], size), mask: uint32(size - 1)}
	for i := range m.shards {
		m.shards[i].m = make(map[K]V)
	}
	return m
}

func (m *Map[K, V]) shard(key K) *shard[K, V] {
	return &m.shards[murmur3.Sum32([]byte(key))&m.mask]
}

// Get returns the value stored under key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	s := m.shard(key)
	s.RLock()
	v, ok := s.m[key]
	s.RUnlock()
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (m *Map[K, V]) Set(key K, value V) {
	s := m.shard(key)
	s.Lock()
	s.m[key] = value
	s.Unlock()
}

// Delete removes key and reports whether it was present.
func (m *Map[K, V]) Delete(key K) bool {
	s := m.shard(key)
	s.Lock()
	_, ok := s.m[key]
	delete(s.m, key)
	s.Unlock()
	return ok
}

// Count returns the number of entries. Concurrent writers may make the
// result stale by the time it returns.
func (m *Map[K, V]) Count() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.RLock()
		n += len(s.m)
		s.RUnlock()
	}
	return n
}

// Range calls fn for each entry until fn returns false. Shards are read
// one at a time under their read lock, so fn must not write to the map.
func (m *Map[K, V]) Range(fn func(K, V) bool) {
	for i := range m.shards {
		s := &m.shards[i]
		s.RLock()
		for k, v := range s.m {
			if !fn(k, v) {
				s.RUnlock()
				return
			}
		}
		s.RUnlock()
	}
}

// Values copies out every value. Use it instead of Range when the caller
// needs to modify the map while walking it.
func (m *Map[K, V]) Values() []V {
	out := make([]V, 0, m.Count())
	m.Range(func(_ K, v V) bool {
		out = append(out, v)
		return true
	})
	return out
}
