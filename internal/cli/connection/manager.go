package connection

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoServers is returned when the manager has nothing to route to.
var ErrNoServers = errors.New("connection: no servers configured")

// Manager routes keys to servers and keeps one Client per server.
type Manager struct {
	ring    *Ring
	timeout time.Duration

	mu      sync.Mutex
	clients map[string]*Client
}

// NewManager creates a manager over servers.
func NewManager(servers []string, timeout time.Duration) *Manager {
	return &Manager{
		ring:    NewRing(servers, 0),
		timeout: timeout,
		clients: make(map[string]*Client),
	}
}

// Servers returns the configured servers.
func (m *Manager) Servers() []string {
	return m.ring.Servers()
}

// ClientFor returns the client for the server owning key, dialing it on
// first use.
func (m *Manager) ClientFor(ctx context.Context, key string) (*Client, error) {
	addr := m.ring.Pick(key)
	if addr == "" {
		return nil, ErrNoServers
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.clients[addr]; ok {
		return c, nil
	}
	c, err := Dial(ctx, addr, m.timeout)
	if err != nil {
		return nil, err
	}
	m.clients[addr] = c
	return c, nil
}

// Forget drops a broken client so the next ClientFor redials.
func (m *Manager) Forget(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.clients[c.addr]; ok && cur == c {
		delete(m.clients, c.addr)
	}
	_ = c.Close()
}

// Close closes every client.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for addr, c := range m.clients {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(m.clients, addr)
	}
	return errors.Join(errs...)
}
