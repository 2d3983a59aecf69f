package binserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/memcell/internal/eventloop"
	"github.com/yndnr/memcell/internal/telemetry/logger"
	"github.com/yndnr/memcell/internal/telemetry/metric"
	"github.com/yndnr/memcell/pkg/cmap"
)

// ErrFrameTooLarge is returned when a frame exceeds Config.MaxFrameSize.
var ErrFrameTooLarge = errors.New("binserver: frame too large")

// ErrNoResponse is returned when a request ran on the loop but produced no
// response, which happens when the dispatcher panics.
var ErrNoResponse = errors.New("binserver: no response")

// maxAcceptDelay caps the backoff after temporary accept failures such as
// running out of file descriptors.
const maxAcceptDelay = time.Second

// Server accepts binary protocol connections. Each connection has its own
// reader goroutine; every request runs on the event loop.
type Server struct {
	cfg        *Config
	loop       *eventloop.Loop
	dispatcher *Dispatcher
	metrics    *metric.Registry
	logger     *slog.Logger

	mu      sync.Mutex
	ln      net.Listener
	closing bool

	conns *cmap.Map[string, *conn]
	wg    sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records connection and request metrics in m.
func WithMetrics(m *metric.Registry) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a server whose requests are executed by dispatcher on loop.
// A nil cfg means DefaultConfig.
func New(cfg *Config, loop *eventloop.Loop, dispatcher *Dispatcher, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		cfg:        cfg,
		loop:       loop,
		dispatcher: dispatcher,
		logger:     slog.Default(),
		conns:      cmap.New[string, *conn](),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = slog.New(logger.WithContextIDs(s.logger.Handler()))
	return s
}

// Start binds the listen address and accepts in the background. Addr is
// valid once Start returns.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Address, err)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.logger.Info("binary protocol server listening", "address", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.accept(ctx, ln)
	}()
	return nil
}

// Addr returns the listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ConnCount returns the number of open connections.
func (s *Server) ConnCount() int {
	return s.conns.Count()
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// Shutdown closes the listener and every open connection, then waits for
// their goroutines until ctx ends. Requests already handed to the loop
// still complete; their responses are dropped.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	ln := s.ln
	s.mu.Unlock()

	var err error
	if ln != nil {
		if cerr := ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	}
	for _, c := range s.conns.Values() {
		_ = c.Close()
	}

	drained := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) accept(ctx context.Context, ln net.Listener) {
	var delay time.Duration
	for {
		nc, err := ln.Accept()
		if err != nil {
			if s.isClosing() || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			if te, ok := err.(interface{ Temporary() bool }); ok && te.Temporary() {
				delay = min(max(2*delay, 5*time.Millisecond), maxAcceptDelay)
				s.logger.Warn("accept failed, retrying", "error", err, "delay", delay)
				time.Sleep(delay)
				continue
			}
			s.logger.Error("binary protocol server stopped accepting", "error", err)
			return
		}
		delay = 0

		c := newConn(ulid.Make().String(), nc, s.cfg)
		s.conns.Set(c.id, c)
		s.metrics.ConnOpened()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.metrics.ConnClosed()
			defer s.conns.Delete(c.id)
			s.serveConn(ctx, c)
		}()
	}
}
