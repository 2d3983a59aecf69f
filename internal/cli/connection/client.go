package connection

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"sync"
	"time"

	"github.com/yndnr/memcell/internal/protocol"
)

// DefaultTimeout bounds one round trip when ctx has no deadline.
const DefaultTimeout = 5 * time.Second

// StatusError is a non-success response status.
type StatusError struct {
	Status  protocol.Status
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Status.String()
}

// Is matches any StatusError with the same status.
func (e *StatusError) Is(target error) bool {
	t, ok := target.(*StatusError)
	return ok && t.Status == e.Status
}

// Sentinels for errors.Is.
var (
	ErrNotFound       = &StatusError{Status: protocol.StatusKeyNotFound}
	ErrExists         = &StatusError{Status: protocol.StatusKeyExists}
	ErrValueTooLarge  = &StatusError{Status: protocol.StatusValueTooLarge}
	ErrInvalid        = &StatusError{Status: protocol.StatusInvalidArguments}
	ErrUnknownCommand = &StatusError{Status: protocol.StatusUnknownCommand}
)

// ErrOpaqueMismatch means a response answered some other request.
var ErrOpaqueMismatch = errors.New("connection: response opaque mismatch")

// Item is a cache entry as seen by the client.
type Item struct {
	Key   string
	Value []byte
	Flags uint32
	// TTL is ignored by Get; the protocol does not report remaining time.
	TTL time.Duration
}

// Client is a binary-protocol client bound to one server. Requests on one
// Client are serialized.
type Client struct {
	addr    string
	timeout time.Duration

	mu     sync.Mutex
	conn   net.Conn
	br     *bufio.Reader
	bw     *bufio.Writer
	opaque uint32
}

// Dial connects to addr.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{
		addr:    addr,
		timeout: timeout,
		conn:    conn,
		br:      bufio.NewReader(conn),
		bw:      bufio.NewWriter(conn),
	}, nil
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

// Do sends one request and reads its response. Non-success statuses are
// returned in the response, not as an error.
func (c *Client) Do(ctx context.Context, op protocol.Opcode, key, extras, value []byte) (*protocol.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}

	c.opaque++
	opaque := c.opaque
	if _, err := c.bw.Write(protocol.EncodeRequest(op, key, extras, value, opaque, 0)); err != nil {
		return nil, fmt.Errorf("write %s: %w", op, err)
	}
	if err := c.bw.Flush(); err != nil {
		return nil, fmt.Errorf("write %s: %w", op, err)
	}

	resp, err := protocol.ReadResponse(c.br)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", op, err)
	}
	if resp.Opaque != opaque {
		return nil, fmt.Errorf("%w: sent %d got %d", ErrOpaqueMismatch, opaque, resp.Opaque)
	}
	return resp, nil
}

func statusErr(resp *protocol.Response) error {
	if resp.Status == protocol.StatusSuccess {
		return nil
	}
	return &StatusError{Status: resp.Status, Message: string(resp.Body)}
}

// Get fetches key.
func (c *Client) Get(ctx context.Context, key string) (*Item, error) {
	resp, err := c.Do(ctx, protocol.OpGet, []byte(key), nil, nil)
	if err != nil {
		return nil, err
	}
	if err := statusErr(resp); err != nil {
		return nil, err
	}
	return &Item{Key: key, Value: resp.Body, Flags: resp.Flags()}, nil
}

// Set stores item unconditionally.
func (c *Client) Set(ctx context.Context, item *Item) error {
	return c.store(ctx, protocol.OpSet, item)
}

// Add stores item only if its key is absent.
func (c *Client) Add(ctx context.Context, item *Item) error {
	return c.store(ctx, protocol.OpAdd, item)
}

// Replace stores item only if its key is present.
func (c *Client) Replace(ctx context.Context, item *Item) error {
	return c.store(ctx, protocol.OpReplace, item)
}

func (c *Client) store(ctx context.Context, op protocol.Opcode, item *Item) error {
	expiry, err := TTLMillis(item.TTL)
	if err != nil {
		return err
	}
	extras := protocol.AppendStoreExtras(nil, protocol.StoreExtras{Flags: item.Flags, Expiry: expiry})

	resp, err := c.Do(ctx, op, []byte(item.Key), extras, item.Value)
	if err != nil {
		return err
	}
	return statusErr(resp)
}

// Delete removes key.
func (c *Client) Delete(ctx context.Context, key string) error {
	resp, err := c.Do(ctx, protocol.OpDelete, []byte(key), nil, nil)
	if err != nil {
		return err
	}
	return statusErr(resp)
}

// TTLMillis converts a TTL to the wire's millisecond expiry. Sub-millisecond
// remainders round up so a positive TTL never becomes "no expiry".
func TTLMillis(ttl time.Duration) (uint32, error) {
	if ttl < 0 {
		return 0, fmt.Errorf("ttl must not be negative: %s", ttl)
	}
	ms := (ttl + time.Millisecond - 1) / time.Millisecond
	if ms > math.MaxUint32 {
		return 0, fmt.Errorf("ttl too large: %s", ttl)
	}
	return uint32(ms), nil
}
