package binserver

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/memcell/internal/core/domain"
	"github.com/yndnr/memcell/internal/eventloop"
	"github.com/yndnr/memcell/internal/protocol"
	"github.com/yndnr/memcell/internal/storage/memory"
	"github.com/yndnr/memcell/internal/telemetry/metric"
)

type serverFixture struct {
	srv     *Server
	loop    *eventloop.Loop
	store   *memory.Store
	clock   *eventloop.ManualClock
	metrics *metric.Registry
	ctx     context.Context
}

func startServer(t *testing.T, mutate func(*Config)) *serverFixture {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	loop := eventloop.New()
	loop.Start(ctx)

	clock := eventloop.NewManualClock()
	store := memory.New(clock)
	reg := metric.NewRegistry()

	cfg := DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	if mutate != nil {
		mutate(cfg)
	}

	srv := New(cfg, loop, NewDispatcher(store, domain.DefaultLimits(), reg, nil), WithMetrics(reg))
	require.NoError(t, srv.Start(ctx))

	t.Cleanup(func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
		cancel()
		<-loop.Done()
	})

	return &serverFixture{srv: srv, loop: loop, store: store, clock: clock, metrics: reg, ctx: ctx}
}

func (f *serverFixture) dial(t *testing.T) net.Conn {
	t.Helper()
	c, err := net.Dial("tcp", f.srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// advance moves the store's clock on the loop goroutine.
func (f *serverFixture) advance(t *testing.T, d time.Duration) {
	t.Helper()
	require.NoError(t, f.loop.Do(f.ctx, func() { f.clock.Advance(d) }))
}

func readN(t *testing.T, c net.Conn, n int) string {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, n)
	_, err := io.ReadFull(c, buf)
	require.NoError(t, err)
	return string(buf)
}

func expectSilence(t *testing.T, c net.Conn) {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	buf := make([]byte, 1)
	n, err := c.Read(buf)
	assert.Equal(t, 0, n, "expected no response bytes")
	var netErr net.Error
	require.True(t, errors.As(err, &netErr) && netErr.Timeout(), "expected read timeout, got %v", err)
}

func write(t *testing.T, c net.Conn, frames ...[]byte) {
	t.Helper()
	for _, fr := range frames {
		_, err := c.Write(fr)
		require.NoError(t, err)
	}
}

func TestServer_SetAndGet(t *testing.T) {
	f := startServer(t, nil)
	c := f.dial(t)

	write(t, c, storeFrame(protocol.OpSet, "foo", "bar", 0, 1000))
	assert.Equal(t, setSuccess, readN(t, c, len(setSuccess)))

	write(t, c, getFrame("foo"))
	assert.Equal(t, getHitBar, readN(t, c, len(getHitBar)))
}

func TestServer_SeveralFramesInOneWrite(t *testing.T) {
	f := startServer(t, nil)
	c := f.dial(t)

	var batch []byte
	batch = append(batch, storeFrame(protocol.OpSet, "foo", "bar", 0, 1000)...)
	batch = append(batch, getFrame("foo")...)
	batch = append(batch, keyFrame(protocol.OpDelete, "foo")...)
	batch = append(batch, keyFrame(protocol.OpGet, "foo")...)
	write(t, c, batch)

	want := setSuccess + getHitBar + deleteSuccess + getMissFoo
	assert.Equal(t, want, readN(t, c, len(want)))
}

func TestServer_PartialFrames(t *testing.T) {
	f := startServer(t, nil)
	c := f.dial(t)

	frame := storeFrame(protocol.OpSet, "foo", "bar", 0, 0)
	write(t, c, frame[:10])
	expectSilence(t, c)
	write(t, c, frame[10:30])
	expectSilence(t, c)
	write(t, c, frame[30:])

	assert.Equal(t, setSuccess, readN(t, c, len(setSuccess)))
}

func TestServer_ShortHeaderGetsNoResponse(t *testing.T) {
	f := startServer(t, nil)
	c := f.dial(t)

	write(t, c, []byte("foobar"))
	expectSilence(t, c)
}

func TestServer_BadMagicIsDiscarded(t *testing.T) {
	f := startServer(t, nil)
	c := f.dial(t)

	write(t, c, []byte("\x82\x91\x00\x00\x00\x00\x00\x81\x00\x00\x00\x0F\x00\x00"+
		"\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"))
	expectSilence(t, c)

	// The connection stays usable once the garbage is gone.
	write(t, c, storeFrame(protocol.OpSet, "foo", "bar", 0, 0))
	assert.Equal(t, setSuccess, readN(t, c, len(setSuccess)))
	assert.Contains(t, scrape(t, f.metrics), `memcell_frames_dropped_total{reason="bad_magic"} 1`)
}

func TestServer_UnknownCommand(t *testing.T) {
	f := startServer(t, nil)
	c := f.dial(t)

	frame := keyFrame(protocol.OpGet, "foo")
	frame[1] = 0x91
	write(t, c, frame)
	assert.Equal(t, unknown0x91, readN(t, c, len(unknown0x91)))
}

func TestServer_ExpiredKey(t *testing.T) {
	f := startServer(t, nil)
	c := f.dial(t)

	write(t, c, storeFrame(protocol.OpSet, "foo", "bar", 0, 1000), getFrame("foo"))
	want := setSuccess + getHitBar
	assert.Equal(t, want, readN(t, c, len(want)))

	f.advance(t, time.Second)

	write(t, c, keyFrame(protocol.OpGet, "foo"))
	assert.Equal(t, getMissFoo, readN(t, c, len(getMissFoo)))
}

func TestServer_OverwrittenExpiry(t *testing.T) {
	f := startServer(t, nil)
	c := f.dial(t)

	write(t, c, storeFrame(protocol.OpSet, "foo", "bar", 0, 1000), getFrame("foo"))
	want := setSuccess + getHitBar
	assert.Equal(t, want, readN(t, c, len(want)))

	write(t, c, storeFrame(protocol.OpSet, "foo", "bar", 0, 1500))
	assert.Equal(t, setSuccess, readN(t, c, len(setSuccess)))

	f.advance(t, time.Second)

	write(t, c, getFrame("foo"))
	assert.Equal(t, getHitBar, readN(t, c, len(getHitBar)))

	var pending int
	require.NoError(t, f.loop.Do(f.ctx, func() { pending = f.store.PendingCount() }))
	assert.Equal(t, 1, pending)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond}, f.clock.Pending())
}

func TestServer_ConnectionsShareKeyspace(t *testing.T) {
	f := startServer(t, nil)
	a := f.dial(t)
	b := f.dial(t)

	write(t, a, storeFrame(protocol.OpSet, "foo", "bar", 0, 0))
	assert.Equal(t, setSuccess, readN(t, a, len(setSuccess)))

	write(t, b, getFrame("foo"))
	assert.Equal(t, getHitBar, readN(t, b, len(getHitBar)))
}

func TestServer_FrameTooLargeClosesConnection(t *testing.T) {
	f := startServer(t, func(cfg *Config) { cfg.MaxFrameSize = 64 })
	c := f.dial(t)

	write(t, c, storeFrame(protocol.OpSet, "foo", strings.Repeat("x", 100), 0, 0))

	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err := c.Read(make([]byte, 1))
	assert.Error(t, err, "connection should be closed")
}

// brokenKeyspace panics on reads.
type brokenKeyspace struct{ Keyspace }

func (brokenKeyspace) Get(string) (domain.Entry, bool) { panic("keyspace corrupted") }

func TestServer_DispatchPanicClosesConnection(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := eventloop.New()
	loop.Start(ctx)

	cfg := DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	srv := New(cfg, loop, NewDispatcher(brokenKeyspace{}, domain.DefaultLimits(), nil, nil))
	require.NoError(t, srv.Start(ctx))
	t.Cleanup(func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
		cancel()
		<-loop.Done()
	})

	c, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer c.Close()

	write(t, c, getFrame("foo"))
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err = c.Read(make([]byte, 1))
	assert.Error(t, err, "connection should be closed")

	// The server survives and keeps accepting.
	c2, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer c2.Close()
	write(t, c2, keyFrame(protocol.OpDelete, ""))
	resp := readN(t, c2, protocol.HeaderSize)
	assert.Equal(t, byte(protocol.StatusInvalidArguments), resp[7])
}

func TestServer_ZeroTimeoutsDisableDeadlines(t *testing.T) {
	assert.True(t, deadline(0).IsZero())
	assert.True(t, deadline(-time.Second).IsZero())
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline(time.Minute), time.Second)

	f := startServer(t, func(cfg *Config) {
		cfg.ReadTimeout = 0
		cfg.WriteTimeout = 0
		cfg.IdleTimeout = 0
	})
	c := f.dial(t)

	write(t, c, storeFrame(protocol.OpSet, "foo", "bar", 0, 0))
	assert.Equal(t, setSuccess, readN(t, c, len(setSuccess)))
	write(t, c, getFrame("foo"))
	assert.Equal(t, getHitBar, readN(t, c, len(getHitBar)))
}

func TestServer_RateLimitedRequestsStillSucceed(t *testing.T) {
	f := startServer(t, func(cfg *Config) {
		cfg.RateLimit = 50
		cfg.RateBurst = 1
	})
	c := f.dial(t)

	var batch []byte
	var want string
	for i := 0; i < 3; i++ {
		batch = append(batch, storeFrame(protocol.OpSet, "foo", "bar", 0, 0)...)
		want += setSuccess
	}
	write(t, c, batch)
	assert.Equal(t, want, readN(t, c, len(want)))
}

func TestServer_ShutdownClosesConnections(t *testing.T) {
	f := startServer(t, nil)
	c := f.dial(t)

	write(t, c, storeFrame(protocol.OpSet, "foo", "bar", 0, 0))
	readN(t, c, len(setSuccess))
	assert.Equal(t, 1, f.srv.ConnCount())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.srv.Shutdown(ctx))

	assert.Equal(t, 0, f.srv.ConnCount())
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err := c.Read(make([]byte, 1))
	assert.Error(t, err)

	_, err = net.DialTimeout("tcp", f.srv.Addr().String(), time.Second)
	assert.Error(t, err, "listener should be closed")
}

func TestServer_Metrics(t *testing.T) {
	f := startServer(t, nil)
	c := f.dial(t)

	write(t, c, getFrame("nope"))
	readN(t, c, protocol.HeaderSize+len("Not found"))

	for _, op := range []byte{0x91, 0x92} {
		frame := keyFrame(protocol.OpGet, "foo")
		frame[1] = op
		write(t, c, frame)
		readN(t, c, len(unknown0x91))
	}
	write(t, c, keyFrame(protocol.OpFlush, "foo"))
	readN(t, c, len(unknown0x91))

	body := scrape(t, f.metrics)
	assert.Contains(t, body, `memcell_requests_total{opcode="get",status="key_not_found"} 1`)
	assert.Contains(t, body, `memcell_requests_total{opcode="unknown",status="unknown_command"} 2`)
	assert.Contains(t, body, `memcell_requests_total{opcode="flush",status="unknown_command"} 1`)
	assert.NotContains(t, body, `opcode="unknown(0x91)"`)
	assert.Contains(t, body, `memcell_connections_active 1`)
}

func scrape(t *testing.T, r *metric.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}
