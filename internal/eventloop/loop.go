package eventloop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultQueueSize is the default capacity of the task queue.
const DefaultQueueSize = 1024

// ErrStopped is returned when posting to a loop that is not running.
var ErrStopped = errors.New("eventloop: stopped")

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop cancels the callback. It reports whether the callback was
	// prevented from running.
	Stop() bool
}

// Scheduler arms callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Loop runs posted tasks one at a time on a single goroutine.
type Loop struct {
	tasks     chan func()
	quit      chan struct{}
	done      chan struct{}
	running   atomic.Bool
	stopOnce  sync.Once
	queueSize int
	logger    *slog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithQueueSize sets the task queue capacity.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.queueSize = n
		}
	}
}

// WithLogger sets the logger used to report task panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a loop. Call Run to start processing tasks.
func New(opts ...Option) *Loop {
	l := &Loop{
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		queueSize: DefaultQueueSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.tasks = make(chan func(), l.queueSize)
	return l
}

// Run processes tasks until ctx is cancelled or Stop is called.
// Tasks still queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("eventloop: already running")
	}
	defer close(l.done)

	for {
		select {
		case fn := <-l.tasks:
			l.exec(fn)
		case <-l.quit:
			return nil
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		}
	}
}

// Start runs the loop in a new goroutine.
func (l *Loop) Start(ctx context.Context) {
	go func() {
		if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			l.logger.Error("event loop stopped", "error", err)
		}
	}()
}

// Stop stops the loop. It is safe to call more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.quit)
	})
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("event loop task panicked", "panic", r)
		}
	}()
	fn()
}

// Post enqueues fn without waiting for it to run.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.quit:
		return ErrStopped
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.quit:
		return ErrStopped
	}
}

// Do runs fn on the loop and waits for it to return.
// If ctx ends first, fn may still run later.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case l.tasks <- task:
	case <-l.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-l.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AfterFunc schedules fn to run on the loop after d.
//
// AfterFunc and the returned timer's Stop must be called from the loop
// goroutine. Stop prevents fn from running even when the underlying timer
// has already fired and its task is waiting in the queue.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	lt := &loopTimer{}
	lt.t = time.AfterFunc(d, func() {
		err := l.Post(func() {
			if lt.done {
				return
			}
			lt.done = true
			fn()
		})
		if err != nil {
			l.logger.Debug("timer fired after loop stopped")
		}
	})
	return lt
}

// loopTimer's done flag is only read and written on the loop goroutine.
type loopTimer struct {
	t    *time.Timer
	done bool
}

func (lt *loopTimer) Stop() bool {
	if lt.done {
		return false
	}
	lt.done = true
	lt.t.Stop()
	return true
}
