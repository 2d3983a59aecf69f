package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yndnr/memcell/internal/eventloop"
	"github.com/yndnr/memcell/internal/infra/shutdown"
	"github.com/yndnr/memcell/internal/server/binserver"
	"github.com/yndnr/memcell/internal/server/config"
	"github.com/yndnr/memcell/internal/server/httpserver"
	"github.com/yndnr/memcell/internal/storage"
	"github.com/yndnr/memcell/internal/telemetry/metric"
)

// statsTimeout bounds how long a scrape waits for the event loop.
const statsTimeout = time.Second

// daemon owns the long-lived server components.
type daemon struct {
	cfg     *config.ServerConfig
	log     *slog.Logger
	metrics *metric.Registry

	loop  *eventloop.Loop
	store storage.Engine
	bin   *binserver.Server
	http  *httpserver.Server // nil when the HTTP port is disabled
}

func newDaemon(cfg *config.ServerConfig, log *slog.Logger) *daemon {
	d := &daemon{
		cfg:     cfg,
		log:     log,
		metrics: metric.NewRegistry(),
	}

	d.loop = eventloop.New(
		eventloop.WithQueueSize(cfg.EventLoop.QueueSize),
		eventloop.WithLogger(log),
	)

	d.store = storage.Open(storage.Config{
		Engine:    cfg.Storage.Engine,
		Scheduler: d.loop,
		Logger:    log,
		OnExpire: func(string) {
			d.metrics.IncExpirations()
		},
	})

	d.metrics.MustRegister(metric.NewCollector(func() (metric.KeyspaceStats, bool) {
		ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
		defer cancel()
		s, err := d.stats(ctx)
		return s, err == nil
	}))

	mc := cfg.Server.Memcache
	dispatcher := binserver.NewDispatcher(d.store, cfg.Storage.Limits(), d.metrics, log)
	d.bin = binserver.New(&binserver.Config{
		Address:      mc.Addr,
		ReadTimeout:  mc.ReadTimeout,
		WriteTimeout: mc.WriteTimeout,
		IdleTimeout:  mc.IdleTimeout,
		RateLimit:    mc.RateLimit,
		RateBurst:    mc.RateBurst,
		MaxFrameSize: mc.MaxFrameSize,
	}, d.loop, dispatcher,
		binserver.WithLogger(log),
		binserver.WithMetrics(d.metrics),
	)

	if addr := cfg.Server.HTTP.Addr; addr != "" {
		d.http = httpserver.New(addr, httpserver.NewRouter(&httpserver.RouterConfig{
			Logger:  log,
			Metrics: d.metrics.Handler(),
			Stats:   d.stats,
			Ready:   d.ready,
			Audit:   cfg.Server.HTTP.Audit,
		}))
	}
	return d
}

// stats reads the keyspace size on the event loop.
func (d *daemon) stats(ctx context.Context) (metric.KeyspaceStats, error) {
	var s metric.KeyspaceStats
	err := d.loop.Do(ctx, func() {
		s = metric.KeyspaceStats{
			Items:           d.store.Len(),
			PendingExpiries: d.store.PendingCount(),
		}
	})
	return s, err
}

// ready reports whether cache traffic is being served.
func (d *daemon) ready() bool {
	select {
	case <-d.loop.Done():
		return false
	default:
		return d.bin.Addr() != nil
	}
}

// start runs the loop and binds the listeners. On error the caller should
// still call stop to release whatever did start.
func (d *daemon) start(ctx context.Context) error {
	d.loop.Start(context.Background())

	if err := d.bin.Start(ctx); err != nil {
		return fmt.Errorf("start binary server: %w", err)
	}
	d.log.Info("binary protocol server started", "addr", d.bin.Addr().String())

	if d.http != nil {
		if err := d.http.Start(ctx); err != nil {
			return fmt.Errorf("start HTTP server: %w", err)
		}
		d.log.Info("HTTP server started", "addr", d.http.Addr().String())
	}
	return nil
}

// register installs shutdown hooks. Hooks run in reverse, so listeners
// close before the loop that serves them stops.
func (d *daemon) register(h *shutdown.Handler) {
	h.OnShutdown("eventloop", d.stopLoop)
	h.OnShutdown("binserver", d.bin.Shutdown)
	if d.http != nil {
		h.OnShutdown("httpserver", d.http.Shutdown)
	}
}

// stop shuts every component down in the same order as the shutdown hooks.
func (d *daemon) stop(ctx context.Context) error {
	var errs []error
	if d.http != nil && d.http.Addr() != nil {
		errs = append(errs, d.http.Shutdown(ctx))
	}
	if d.bin.Addr() != nil {
		errs = append(errs, d.bin.Shutdown(ctx))
	}
	errs = append(errs, d.stopLoop(ctx))
	return errors.Join(errs...)
}

func (d *daemon) stopLoop(ctx context.Context) error {
	d.loop.Stop()
	select {
	case <-d.loop.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
