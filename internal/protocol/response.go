package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Response is a typed response message.
//
// A response either carries a value body (Body non-nil; Extras precede it)
// or the status's canonical message (Body nil; Extras ignored). The two
// modes are never mixed.
type Response struct {
	Opcode    Opcode
	KeyLength uint16
	Status    Status
	Opaque    uint32
	CAS       uint64
	Extras    []byte
	Body      []byte
}

// EncodeResponse builds a response frame.
//
// With a body, the frame's body length is len(extras)+len(body) and the
// extras length field is len(extras). Without a body, the frame's body is
// status.Message() and extras are not written.
func EncodeResponse(op Opcode, keyLen uint16, status Status, opaque uint32, cas uint64, extras, body []byte) []byte {
	return appendResponse(nil, op, keyLen, status, opaque, cas, extras, body)
}

// AppendTo appends the encoded response to dst.
func (r *Response) AppendTo(dst []byte) []byte {
	return appendResponse(dst, r.Opcode, r.KeyLength, r.Status, r.Opaque, r.CAS, r.Extras, r.Body)
}

// Encode returns the encoded response frame.
func (r *Response) Encode() []byte {
	return r.AppendTo(nil)
}

func appendResponse(dst []byte, op Opcode, keyLen uint16, status Status, opaque uint32, cas uint64, extras, body []byte) []byte {
	h := Header{
		Magic:     MagicResponse,
		Opcode:    op,
		KeyLength: keyLen,
		Status:    status,
		Opaque:    opaque,
		CAS:       cas,
	}

	if body != nil {
		h.ExtrasLength = uint8(len(extras))
		h.BodyLength = uint32(len(extras) + len(body))
		dst = h.AppendTo(dst)
		dst = append(dst, extras...)
		return append(dst, body...)
	}

	msg := status.Message()
	h.BodyLength = uint32(len(msg))
	dst = h.AppendTo(dst)
	return append(dst, msg...)
}

// FlagsExtras encodes flags as the 4-byte extras of a get response.
func FlagsExtras(flags uint32) []byte {
	return binary.BigEndian.AppendUint32(make([]byte, 0, 4), flags)
}

// ReadResponse reads one response frame from r. It is used by clients.
//
// For value responses Extras holds the extras and Body the value; for
// message responses Body holds the status message. The key section, if any,
// is skipped.
func ReadResponse(r io.Reader) (*Response, error) {
	var hb [HeaderSize]byte
	if _, err := io.ReadFull(r, hb[:]); err != nil {
		return nil, err
	}
	h, err := DecodeHeader(hb[:])
	if err != nil {
		return nil, err
	}
	if h.Magic != MagicResponse {
		return nil, fmt.Errorf("%w: 0x%02x", ErrBadMagic, h.Magic)
	}

	body := make([]byte, h.BodyLength)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	resp := &Response{
		Opcode:    h.Opcode,
		KeyLength: h.KeyLength,
		Status:    h.Status,
		Opaque:    h.Opaque,
		CAS:       h.CAS,
	}

	extrasLen := int(h.ExtrasLength)
	if extrasLen > len(body) {
		return nil, fmt.Errorf("%w: extras=%d body=%d", ErrBodyLayout, extrasLen, len(body))
	}
	resp.Extras = body[:extrasLen]
	rest := body[extrasLen:]

	// Error responses may echo the request key length without sending a key.
	if h.Status == StatusSuccess && int(h.KeyLength) <= len(rest) {
		rest = rest[h.KeyLength:]
	}
	resp.Body = rest
	return resp, nil
}

// Flags decodes the flags extras of a get response.
func (r *Response) Flags() uint32 {
	if len(r.Extras) < 4 {
		return 0
	}
	return binary.BigEndian.Uint32(r.Extras[:4])
}
