package binserver

import (
	"log/slog"
	"time"

	"github.com/yndnr/memcell/internal/core/domain"
	"github.com/yndnr/memcell/internal/protocol"
	"github.com/yndnr/memcell/internal/telemetry/metric"
)

// Keyspace is the storage the dispatcher operates on.
// Implementations need not be goroutine-safe; Dispatch is only called from
// the goroutine that owns the keyspace.
type Keyspace interface {
	Get(key string) (domain.Entry, bool)
	Put(key string, flags, expiryMs uint32, value []byte)
	Delete(key string) bool
	Contains(key string) bool
}

// Dispatcher executes decoded requests against a Keyspace.
type Dispatcher struct {
	store   Keyspace
	limits  domain.Limits
	metrics *metric.Registry
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher. metrics may be nil.
func NewDispatcher(store Keyspace, limits domain.Limits, metrics *metric.Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:   store,
		limits:  limits,
		metrics: metrics,
		logger:  logger,
	}
}

// Dispatch executes one request frame and returns its response.
// body holds exactly h.BodyLength bytes.
func (d *Dispatcher) Dispatch(h protocol.Header, body []byte) *protocol.Response {
	start := time.Now()
	resp := d.dispatch(h, body)
	d.metrics.ObserveRequest(opcodeLabel(h.Opcode), resp.Status.String(), time.Since(start))
	return resp
}

// opcodeLabel folds every unnamed opcode into one metric label.
func opcodeLabel(op protocol.Opcode) string {
	if !op.Known() {
		return "unknown"
	}
	return op.String()
}

func (d *Dispatcher) dispatch(h protocol.Header, body []byte) *protocol.Response {
	switch h.Opcode {
	case protocol.OpGet, protocol.OpSet, protocol.OpAdd, protocol.OpReplace, protocol.OpDelete:
		req, err := protocol.DecodeBody(h, body)
		if err != nil {
			d.logger.Debug("malformed request body", "opcode", h.Opcode.String(), "error", err)
			return d.fail(h, domain.ErrInvalidArguments.Wrap(err))
		}
		if err := d.limits.ValidateKey(req.Key); err != nil {
			return d.fail(h, err)
		}
		switch h.Opcode {
		case protocol.OpGet:
			return d.handleGet(req)
		case protocol.OpDelete:
			return d.handleDelete(req)
		default:
			return d.handleStore(req)
		}

	case protocol.OpIncrement, protocol.OpDecrement, protocol.OpFlush,
		protocol.OpAuthNegotiation, protocol.OpAuthRequest:
		// Named in the opcode table but not implemented.
		return d.fail(h, domain.ErrUnknownCommand)

	default:
		d.logger.Debug("unknown opcode", "opcode", h.Opcode.String(), "known", h.Opcode.Known())
		return d.fail(h, domain.ErrUnknownCommand)
	}
}

func (d *Dispatcher) handleGet(req *protocol.Request) *protocol.Response {
	entry, ok := d.store.Get(string(req.Key))
	if !ok {
		resp := d.fail(req.Header, domain.ErrKeyNotFound)
		// A miss echoes the request's key length; no key bytes follow.
		resp.KeyLength = req.Header.KeyLength
		return resp
	}

	value := entry.Value
	if value == nil {
		value = []byte{}
	}
	return &protocol.Response{
		Opcode: req.Header.Opcode,
		Status: protocol.StatusSuccess,
		Opaque: req.Header.Opaque,
		CAS:    req.Header.CAS,
		Extras: protocol.FlagsExtras(entry.Flags),
		Body:   value,
	}
}

func (d *Dispatcher) handleStore(req *protocol.Request) *protocol.Response {
	if err := d.limits.ValidateValue(req.Value); err != nil {
		return d.fail(req.Header, err)
	}

	key := string(req.Key)
	switch req.Header.Opcode {
	case protocol.OpAdd:
		if d.store.Contains(key) {
			return d.fail(req.Header, domain.ErrKeyExists)
		}
	case protocol.OpReplace:
		if !d.store.Contains(key) {
			return d.fail(req.Header, domain.ErrKeyNotFound)
		}
	}

	d.store.Put(key, req.Store.Flags, req.Store.Expiry, req.Value)
	d.logger.Debug("stored",
		"opcode", req.Header.Opcode.String(),
		"key", key,
		"flags", req.Store.Flags,
		"expiry_ms", req.Store.Expiry,
		"value", req.Value,
	)
	return d.ok(req.Header)
}

func (d *Dispatcher) handleDelete(req *protocol.Request) *protocol.Response {
	if !d.store.Delete(string(req.Key)) {
		return d.fail(req.Header, domain.ErrKeyNotFound)
	}
	return d.ok(req.Header)
}

// ok builds a success response with no key, extras or body. Key length
// stays 0 even for store ops, as reference clients expect.
func (d *Dispatcher) ok(h protocol.Header) *protocol.Response {
	return &protocol.Response{
		Opcode: h.Opcode,
		Status: protocol.StatusSuccess,
		Opaque: h.Opaque,
		CAS:    h.CAS,
	}
}

// fail builds a message response for err. Body stays nil so the encoder
// writes the status's canonical message.
func (d *Dispatcher) fail(h protocol.Header, err error) *protocol.Response {
	return &protocol.Response{
		Opcode: h.Opcode,
		Status: StatusFor(err),
		Opaque: h.Opaque,
		CAS:    h.CAS,
	}
}

// StatusFor maps a domain error to its wire status.
func StatusFor(err error) protocol.Status {
	if err == nil {
		return protocol.StatusSuccess
	}
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return protocol.StatusKeyNotFound
	case domain.KindExists:
		return protocol.StatusKeyExists
	case domain.KindTooLarge:
		return protocol.StatusValueTooLarge
	case domain.KindNotStored:
		return protocol.StatusItemNotStored
	case domain.KindUnsupported:
		return protocol.StatusUnknownCommand
	case domain.KindNoMemory:
		return protocol.StatusOutOfMemory
	default:
		// The wire has no internal-error status.
		return protocol.StatusInvalidArguments
	}
}
