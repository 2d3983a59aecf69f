package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrExtras reports extras whose length does not match the operation.
var ErrExtras = errors.New("protocol: invalid extras length")

// StoreExtras are the extras of set, add and replace requests.
type StoreExtras struct {
	Flags uint32
	// Expiry is the TTL in milliseconds; zero means no expiry.
	Expiry uint32
}

// Request is one decoded request frame.
type Request struct {
	Header Header
	Extras []byte
	Key    []byte
	Value  []byte
	// Store is set for set/add/replace requests.
	Store StoreExtras
}

// DecodeBody slices body into extras, key and value according to the lengths
// declared in h, and interprets the extras of store operations.
//
// The returned slices alias body.
func DecodeBody(h Header, body []byte) (*Request, error) {
	if len(body) < int(h.BodyLength) {
		return nil, ErrShortBody
	}
	body = body[:h.BodyLength]

	extrasLen := int(h.ExtrasLength)
	keyLen := int(h.KeyLength)
	if extrasLen+keyLen > len(body) {
		return nil, fmt.Errorf("%w: extras=%d key=%d body=%d", ErrBodyLayout, extrasLen, keyLen, len(body))
	}

	req := &Request{
		Header: h,
		Extras: body[:extrasLen],
		Key:    body[extrasLen : extrasLen+keyLen],
		Value:  body[extrasLen+keyLen:],
	}

	switch {
	case h.Opcode.IsStore():
		if extrasLen != StoreExtrasSize {
			return nil, fmt.Errorf("%w: %s wants %d bytes, got %d", ErrExtras, h.Opcode, StoreExtrasSize, extrasLen)
		}
		req.Store = StoreExtras{
			Flags:  binary.BigEndian.Uint32(req.Extras[0:4]),
			Expiry: binary.BigEndian.Uint32(req.Extras[4:8]),
		}
	case h.Opcode == OpGet || h.Opcode == OpDelete:
		if extrasLen != 0 {
			return nil, fmt.Errorf("%w: %s takes no extras, got %d", ErrExtras, h.Opcode, extrasLen)
		}
	}

	return req, nil
}

// EncodeRequest builds a request frame. For store operations pass the
// flags/expiry extras through AppendStoreExtras.
func EncodeRequest(op Opcode, key, extras, value []byte, opaque uint32, cas uint64) []byte {
	h := Header{
		Magic:        MagicRequest,
		Opcode:       op,
		KeyLength:    uint16(len(key)),
		ExtrasLength: uint8(len(extras)),
		BodyLength:   uint32(len(extras) + len(key) + len(value)),
		Opaque:       opaque,
		CAS:          cas,
	}
	buf := make([]byte, 0, h.FrameLength())
	buf = h.AppendTo(buf)
	buf = append(buf, extras...)
	buf = append(buf, key...)
	buf = append(buf, value...)
	return buf
}

// AppendStoreExtras appends the 8-byte flags/expiry extras to dst.
func AppendStoreExtras(dst []byte, e StoreExtras) []byte {
	dst = binary.BigEndian.AppendUint32(dst, e.Flags)
	dst = binary.BigEndian.AppendUint32(dst, e.Expiry)
	return dst
}
