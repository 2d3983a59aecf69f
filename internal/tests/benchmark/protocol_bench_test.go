package benchmark

import (
	"testing"

	"github.com/yndnr/memcell/internal/core/domain"
	"github.com/yndnr/memcell/internal/protocol"
	"github.com/yndnr/memcell/internal/server/binserver"
)

// BenchmarkDecodeFrame benchmarks header and body decoding of a set frame.
func BenchmarkDecodeFrame(b *testing.B) {
	extras := protocol.AppendStoreExtras(nil, protocol.StoreExtras{Flags: 1, Expiry: 5000})
	frame := protocol.EncodeRequest(protocol.OpSet, []byte("bench:key"), extras, benchValue(512), 7, 0)

	b.SetBytes(int64(len(frame)))
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		h, err := protocol.DecodeHeader(frame)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := protocol.DecodeBody(h, frame[protocol.HeaderSize:]); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkEncodeResponse benchmarks encoding a get hit.
func BenchmarkEncodeResponse(b *testing.B) {
	value := benchValue(512)
	extras := protocol.FlagsExtras(42)
	buf := make([]byte, 0, protocol.HeaderSize+len(extras)+len(value))

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		resp := protocol.Response{
			Opcode: protocol.OpGet,
			Status: protocol.StatusSuccess,
			Opaque: uint32(i),
			Extras: extras,
			Body:   value,
		}
		buf = resp.AppendTo(buf[:0])
	}
}

// BenchmarkDispatch benchmarks the dispatcher against a prefilled store,
// alternating get hits and sets.
func BenchmarkDispatch(b *testing.B) {
	runWithKeyCounts(b, SmallKeyCounts, func(b *testing.B, count int) {
		store, _ := newManualStore()
		prefillStore(store, count, benchValue(64))
		d := binserver.NewDispatcher(store, domain.DefaultLimits(), nil, discardLogger())

		type frame struct {
			h    protocol.Header
			body []byte
		}
		extras := protocol.AppendStoreExtras(nil, protocol.StoreExtras{Expiry: 60_000})
		frames := make([]frame, 0, 256)
		for i := 0; i < cap(frames); i++ {
			key := []byte(benchKey(i % count))
			var raw []byte
			if i%2 == 0 {
				raw = protocol.EncodeRequest(protocol.OpGet, key, nil, nil, uint32(i), 0)
			} else {
				raw = protocol.EncodeRequest(protocol.OpSet, key, extras, benchValue(64), uint32(i), 0)
			}
			h, err := protocol.DecodeHeader(raw)
			if err != nil {
				b.Fatal(err)
			}
			frames = append(frames, frame{h: h, body: raw[protocol.HeaderSize:]})
		}

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			f := frames[i%len(frames)]
			if resp := d.Dispatch(f.h, f.body); resp.Status != protocol.StatusSuccess {
				b.Fatalf("status %s", resp.Status)
			}
		}
	})
}
