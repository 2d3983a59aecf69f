package shutdown

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Hook releases one resource. It should give up once ctx is done.
type Hook func(ctx context.Context) error

type hook struct {
	name string
	run  Hook
}

// Handler runs shutdown hooks once the process is asked to stop.
type Handler struct {
	timeout time.Duration
	log     *slog.Logger
	signals []os.Signal

	mu    sync.Mutex
	hooks []hook

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewHandler creates a Handler whose hooks share timeout. A nil logger
// discards output.
func NewHandler(timeout time.Duration, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{
		timeout: timeout,
		log:     log,
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// OnShutdown registers fn under name. Hooks run last-registered first, so
// register a dependency before the things that use it.
func (h *Handler) OnShutdown(name string, fn Hook) {
	h.mu.Lock()
	h.hooks = append(h.hooks, hook{name: name, run: fn})
	h.mu.Unlock()
}

// Trigger starts shutdown as if a signal had arrived. Extra calls are
// no-ops.
func (h *Handler) Trigger() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Wait blocks until a signal, Trigger or the end of ctx, then runs every
// hook and joins their errors. A second signal while hooks are running
// cancels their context so the process can exit at once.
func (h *Handler) Wait(ctx context.Context) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, h.signals...)
	defer signal.Stop(sigs)

	select {
	case sig := <-sigs:
		h.log.Info("shutting down", "signal", sig.String())
	case <-h.stop:
		h.log.Info("shutting down", "reason", "triggered")
	case <-ctx.Done():
		h.log.Info("shutting down", "reason", "context done")
	}

	hookCtx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case sig := <-sigs:
			h.log.Warn("forcing shutdown", "signal", sig.String())
			cancel()
		case <-finished:
		}
	}()

	return h.runHooks(hookCtx)
}

func (h *Handler) runHooks(ctx context.Context) error {
	defer close(h.done)

	h.mu.Lock()
	hooks := append([]hook(nil), h.hooks...)
	h.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		hk := hooks[i]
		start := time.Now()
		err := hk.run(ctx)
		if err != nil {
			h.log.Error("shutdown hook failed", "hook", hk.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", hk.name, err))
			continue
		}
		h.log.Debug("shutdown hook done", "hook", hk.name, "elapsed", time.Since(start))
	}
	return errors.Join(errs...)
}

// Done is closed after the hooks have run.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
