package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"testing"
	"time"

	"github.com/yndnr/memcell/internal/cli/connection"
	"github.com/yndnr/memcell/internal/core/domain"
	"github.com/yndnr/memcell/internal/eventloop"
	"github.com/yndnr/memcell/internal/server/binserver"
	"github.com/yndnr/memcell/internal/storage/memory"
)

// KeyCounts defines the keyspace sizes for benchmarking.
var KeyCounts = []int{10000, 100000, 500000}

// SmallKeyCounts for quick benchmarks.
var SmallKeyCounts = []int{1000, 10000}

// ValueSizes covers small counters up to page-sized blobs.
var ValueSizes = []int{16, 512, 4096}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func benchKey(i int) string {
	return fmt.Sprintf("bench:key:%08d", i)
}

func benchValue(size int) []byte {
	v := make([]byte, size)
	for i := range v {
		v[i] = byte('a' + i%26)
	}
	return v
}

// newManualStore returns a store whose timers only fire on Advance.
func newManualStore() (*memory.Store, *eventloop.ManualClock) {
	clock := eventloop.NewManualClock()
	return memory.New(clock, memory.WithLogger(discardLogger())), clock
}

// prefillStore stores count keys, every other one with a TTL.
func prefillStore(store *memory.Store, count int, value []byte) {
	for i := 0; i < count; i++ {
		var ttl uint32
		if i%2 == 0 {
			ttl = 60_000
		}
		store.Put(benchKey(i), 0, ttl, value)
	}
}

// startServer runs a loopback binary server and returns a connected client.
func startServer(b *testing.B) *connection.Client {
	b.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	loop := eventloop.New(eventloop.WithLogger(discardLogger()))
	loop.Start(ctx)
	store := memory.New(loop, memory.WithLogger(discardLogger()))

	cfg := binserver.DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	dispatcher := binserver.NewDispatcher(store, domain.DefaultLimits(), nil, discardLogger())
	srv := binserver.New(cfg, loop, dispatcher, binserver.WithLogger(discardLogger()))
	if err := srv.Start(ctx); err != nil {
		b.Fatalf("start server: %v", err)
	}

	client, err := connection.Dial(ctx, srv.Addr().String(), 5*time.Second)
	if err != nil {
		b.Fatalf("dial: %v", err)
	}

	b.Cleanup(func() {
		_ = client.Close()
		sctx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = srv.Shutdown(sctx)
		cancel()
		<-loop.Done()
	})
	return client
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithKeyCounts runs a benchmark function with various keyspace sizes.
func runWithKeyCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("keys_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
