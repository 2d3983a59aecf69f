package binserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/memcell/internal/protocol"
	"github.com/yndnr/memcell/internal/telemetry/logger"
)

const readChunkSize = 4096

// conn is a single client connection.
type conn struct {
	id      string
	netConn net.Conn
	bw      *bufio.Writer
	// buf holds received bytes not yet consumed as frames.
	buf     []byte
	limiter *rate.Limiter

	closed atomic.Bool
}

func newConn(id string, nc net.Conn, cfg *Config) *conn {
	c := &conn{
		id:      id,
		netConn: nc,
		bw:      bufio.NewWriter(nc),
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.burst())
	}
	return c
}

func (c *conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

func (c *conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

func (s *Server) serveConn(ctx context.Context, c *conn) {
	defer c.Close()

	ctx = logger.WithConnID(ctx, c.id)
	log := s.logger.With("remote", c.RemoteAddr().String())
	log.DebugContext(ctx, "connection opened")
	defer log.DebugContext(ctx, "connection closed")

	chunk := make([]byte, readChunkSize)
	for {
		// Idle timeout between frames, read timeout once a frame has started.
		timeout := s.cfg.IdleTimeout
		if len(c.buf) > 0 {
			timeout = s.cfg.ReadTimeout
		}
		if err := c.netConn.SetReadDeadline(deadline(timeout)); err != nil {
			return
		}

		n, err := c.netConn.Read(chunk)
		if n > 0 {
			c.buf = append(c.buf, chunk[:n]...)
			if perr := s.processFrames(ctx, c); perr != nil {
				if errors.Is(perr, ErrFrameTooLarge) {
					log.WarnContext(ctx, "protocol limit exceeded", "error", perr)
				} else if errors.Is(perr, ErrNoResponse) {
					log.ErrorContext(ctx, "request failed", "error", perr)
				} else if !c.closed.Load() {
					log.DebugContext(ctx, "connection aborted", "error", perr)
				}
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				log.DebugContext(ctx, "connection timed out")
				return
			}
			log.DebugContext(ctx, "connection read error", "error", err)
			return
		}
	}
}

// processFrames executes every complete frame in c.buf, in order.
// Incomplete trailing bytes stay buffered.
func (s *Server) processFrames(ctx context.Context, c *conn) error {
	for {
		h, err := protocol.DecodeHeader(c.buf)
		if err != nil {
			// Short header: wait for more bytes.
			return nil
		}

		if !protocol.ValidateMagic(h) {
			s.logger.DebugContext(ctx, "discarding input with bad magic",
				"magic", h.Magic, "discarded", len(c.buf))
			s.metrics.IncFramesDropped("bad_magic")
			c.buf = c.buf[:0]
			return nil
		}

		frameLen := h.FrameLength()
		if s.cfg.MaxFrameSize > 0 && frameLen > s.cfg.MaxFrameSize {
			s.metrics.IncFramesDropped("too_large")
			return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, frameLen, s.cfg.MaxFrameSize)
		}
		if len(c.buf) < frameLen {
			return nil
		}

		resp, err := s.execute(ctx, c, h, c.buf[protocol.HeaderSize:frameLen])
		if err != nil {
			return err
		}
		if err := s.writeResponse(c, resp); err != nil {
			return err
		}

		// The dispatcher copies anything it keeps, so the frame bytes can be
		// reused.
		rest := copy(c.buf, c.buf[frameLen:])
		c.buf = c.buf[:rest]
	}
}

// execute runs one request on the event loop, after throttling.
func (s *Server) execute(ctx context.Context, c *conn, h protocol.Header, body []byte) (*protocol.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("throttle: %w", err)
		}
	}

	var resp *protocol.Response
	if err := s.loop.Do(ctx, func() {
		resp = s.dispatcher.Dispatch(h, body)
	}); err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	if resp == nil {
		// The loop recovered a panic in Dispatch.
		return nil, fmt.Errorf("%w: opcode %s", ErrNoResponse, h.Opcode)
	}
	return resp, nil
}

func (s *Server) writeResponse(c *conn, resp *protocol.Response) error {
	if err := c.netConn.SetWriteDeadline(deadline(s.cfg.WriteTimeout)); err != nil {
		return err
	}
	if _, err := c.bw.Write(resp.Encode()); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	if err := c.bw.Flush(); err != nil {
		return fmt.Errorf("flush response: %w", err)
	}
	return nil
}

// deadline returns the absolute deadline for d. Zero means none.
func deadline(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d)
}
