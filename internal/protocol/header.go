package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderSize is the fixed length of every frame header.
const HeaderSize = 24

// Magic bytes.
const (
	MagicRequest  uint8 = 0x80
	MagicResponse uint8 = 0x81
)

// StoreExtrasSize is the extras length of set/add/replace requests.
const StoreExtrasSize = 8

// Format errors. Callers should match with errors.Is.
var (
	ErrFormat      = errors.New("protocol: format error")
	ErrShortHeader = fmt.Errorf("%w: short header", ErrFormat)
	ErrBadMagic    = fmt.Errorf("%w: bad magic", ErrFormat)
	ErrShortBody   = fmt.Errorf("%w: short body", ErrFormat)
	ErrBodyLayout  = fmt.Errorf("%w: extras and key exceed body length", ErrFormat)
)

// Header is the decoded fixed-size frame header.
type Header struct {
	Magic        uint8
	Opcode       Opcode
	KeyLength    uint16
	ExtrasLength uint8
	DataType     uint8
	// Status is the response status; requests carry zero here.
	Status     Status
	BodyLength uint32
	Opaque     uint32
	CAS        uint64
}

// DecodeHeader parses the first HeaderSize bytes of b.
// It returns ErrShortHeader when b is too short; the caller should wait for
// more data rather than treat this as a protocol violation.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, ErrShortHeader
	}
	return Header{
		Magic:        b[0],
		Opcode:       Opcode(b[1]),
		KeyLength:    binary.BigEndian.Uint16(b[2:4]),
		ExtrasLength: b[4],
		DataType:     b[5],
		Status:       Status(binary.BigEndian.Uint16(b[6:8])),
		BodyLength:   binary.BigEndian.Uint32(b[8:12]),
		Opaque:       binary.BigEndian.Uint32(b[12:16]),
		CAS:          binary.BigEndian.Uint64(b[16:24]),
	}, nil
}

// ValidateMagic reports whether h is a request frame.
// Frames failing this check get no response at all.
func ValidateMagic(h Header) bool {
	return h.Magic == MagicRequest
}

// FrameLength returns the total length of the frame described by h.
func (h Header) FrameLength() int {
	return HeaderSize + int(h.BodyLength)
}

// AppendTo appends the encoded header to dst.
func (h Header) AppendTo(dst []byte) []byte {
	dst = append(dst, h.Magic, byte(h.Opcode))
	dst = binary.BigEndian.AppendUint16(dst, h.KeyLength)
	dst = append(dst, h.ExtrasLength, h.DataType)
	dst = binary.BigEndian.AppendUint16(dst, uint16(h.Status))
	dst = binary.BigEndian.AppendUint32(dst, h.BodyLength)
	dst = binary.BigEndian.AppendUint32(dst, h.Opaque)
	dst = binary.BigEndian.AppendUint64(dst, h.CAS)
	return dst
}
