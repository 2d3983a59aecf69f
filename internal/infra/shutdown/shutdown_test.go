package shutdown

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordHooks(h *Handler, names ...string) func() []string {
	var mu sync.Mutex
	var ran []string
	for _, name := range names {
		name := name
		h.OnShutdown(name, func(context.Context) error {
			mu.Lock()
			ran = append(ran, name)
			mu.Unlock()
			return nil
		})
	}
	return func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), ran...)
	}
}

func waitAsync(h *Handler, ctx context.Context) <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- h.Wait(ctx) }()
	return errc
}

func result(t *testing.T, errc <-chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return")
		return nil
	}
}

func TestNewHandler(t *testing.T) {
	h := NewHandler(5*time.Second, nil)
	assert.Equal(t, 5*time.Second, h.timeout)
	assert.NotNil(t, h.log)

	select {
	case <-h.Done():
		t.Fatal("Done closed before shutdown")
	default:
	}
}

func TestHandler_TriggerRunsHooksInReverse(t *testing.T) {
	h := NewHandler(time.Second, nil)
	ran := recordHooks(h, "loop", "listener", "http")

	h.Trigger()
	h.Trigger()
	require.NoError(t, h.Wait(context.Background()))

	assert.Equal(t, []string{"http", "listener", "loop"}, ran())
	select {
	case <-h.Done():
	default:
		t.Fatal("Done not closed after Wait")
	}
}

func TestHandler_ContextCancel(t *testing.T) {
	h := NewHandler(time.Second, nil)
	ran := recordHooks(h, "a")

	ctx, cancel := context.WithCancel(context.Background())
	errc := waitAsync(h, ctx)
	cancel()

	require.NoError(t, result(t, errc))
	assert.Equal(t, []string{"a"}, ran())
}

func TestHandler_Signal(t *testing.T) {
	h := NewHandler(time.Second, nil)
	ran := recordHooks(h, "a", "b")

	errc := waitAsync(h, context.Background())
	// Let Wait install its signal handler.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGINT))

	require.NoError(t, result(t, errc))
	assert.Len(t, ran(), 2)
}

func TestHandler_SecondSignalCancelsHooks(t *testing.T) {
	h := NewHandler(time.Minute, nil)
	started := make(chan struct{})
	h.OnShutdown("stuck", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	errc := waitAsync(h, context.Background())
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))
	<-started
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	assert.ErrorIs(t, result(t, errc), context.Canceled)
}

func TestHandler_HookErrorsJoined(t *testing.T) {
	h := NewHandler(time.Second, nil)
	errA, errB := errors.New("a failed"), errors.New("b failed")
	ran := 0
	h.OnShutdown("a", func(context.Context) error { ran++; return errA })
	h.OnShutdown("ok", func(context.Context) error { ran++; return nil })
	h.OnShutdown("b", func(context.Context) error { ran++; return errB })

	h.Trigger()
	err := h.Wait(context.Background())

	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.ErrorContains(t, err, "b: b failed")
	assert.Equal(t, 3, ran)
}

func TestHandler_HookSeesDeadline(t *testing.T) {
	h := NewHandler(50*time.Millisecond, nil)
	var hasDeadline bool
	h.OnShutdown("slow", func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		<-ctx.Done()
		return ctx.Err()
	})

	h.Trigger()
	err := h.Wait(context.Background())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, hasDeadline)
}

func TestHandler_ConcurrentOnShutdown(t *testing.T) {
	h := NewHandler(time.Second, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnShutdown("noop", func(context.Context) error { return nil })
		}()
	}
	wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Len(t, h.hooks, 10)
}
