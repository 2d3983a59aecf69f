package memory

import (
	"time"

	"github.com/yndnr/memcell/internal/eventloop"
)

type expiryState uint8

const (
	expiryArmed expiryState = iota
	expiryCancelled
	expiryFired
)

// PendingExpiry is the scheduled removal of one key.
//
// It is created by arm, and ends either through cancel (overwrite or delete)
// or fire (TTL elapsed). A PendingExpiry that is no longer the key's current
// one never removes anything.
type PendingExpiry struct {
	key   string
	ttl   time.Duration
	timer eventloop.Timer
	state expiryState
}

// Key returns the key this expiry belongs to.
func (p *PendingExpiry) Key() string { return p.key }

// TTL returns the delay the expiry was armed with.
func (p *PendingExpiry) TTL() time.Duration { return p.ttl }

// arm schedules removal of key after ttl and records it as the key's
// current expiry. The caller must have cancelled any previous one.
func (s *Store) arm(key string, ttl time.Duration) *PendingExpiry {
	p := &PendingExpiry{key: key, ttl: ttl}
	p.timer = s.sched.AfterFunc(ttl, func() { s.fire(p) })
	s.pending[key] = p
	return p
}

// cancel stops the key's current expiry, if any.
func (s *Store) cancel(key string) {
	p, ok := s.pending[key]
	if !ok {
		return
	}
	delete(s.pending, key)
	if p.state != expiryArmed {
		return
	}
	p.state = expiryCancelled
	p.timer.Stop()
}

// fire removes the key if p is still its current expiry.
func (s *Store) fire(p *PendingExpiry) {
	if p.state != expiryArmed || s.pending[p.key] != p {
		return
	}
	p.state = expiryFired
	delete(s.pending, p.key)
	delete(s.entries, p.key)

	s.logger.Debug("key expired", "key", p.key, "ttl", p.ttl)
	if s.onExpire != nil {
		s.onExpire(p.key)
	}
}
