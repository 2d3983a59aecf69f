package domain

import (
	"errors"
	"fmt"
)

// Kind groups errors by how a client should react to them. Each kind
// maps onto one wire status.
type Kind uint8

const (
	KindInternal Kind = iota
	KindInvalid
	KindNotFound
	KindExists
	KindTooLarge
	KindNotStored
	KindUnsupported
	KindNoMemory
)

var kindNames = [...]string{
	KindInternal:    "internal",
	KindInvalid:     "invalid",
	KindNotFound:    "not_found",
	KindExists:      "exists",
	KindTooLarge:    "too_large",
	KindNotStored:   "not_stored",
	KindUnsupported: "unsupported",
	KindNoMemory:    "no_memory",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error is a failure with a stable code. Two Errors match under
// errors.Is when their codes are equal, so decorated copies still match
// the sentinel they came from.
type Error struct {
	Kind   Kind
	Code   string
	Msg    string
	Detail string
	Err    error
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

func (e *Error) Error() string {
	s := e.Code + ": " + e.Msg
	if e.Detail != "" {
		s += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// With returns a copy carrying detail.
func (e *Error) With(detail string) *Error {
	c := *e
	c.Detail = detail
	return &c
}

// Wrap returns a copy with err as its cause.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.Err = err
	return &c
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrKeyEmpty    = newError(KindInvalid, "key_empty", "key is empty")
	ErrKeyTooLong  = newError(KindInvalid, "key_too_long", "key too long")
	ErrKeyNotFound = newError(KindNotFound, "key_not_found", "key not found")
	ErrKeyExists   = newError(KindExists, "key_exists", "key already exists")

	ErrValueTooLarge    = newError(KindTooLarge, "value_too_large", "value too large")
	ErrInvalidArguments = newError(KindInvalid, "invalid_arguments", "invalid arguments")
	ErrNotStored        = newError(KindNotStored, "not_stored", "item not stored")
	ErrUnknownCommand   = newError(KindUnsupported, "unknown_command", "unknown command")

	ErrOutOfMemory = newError(KindNoMemory, "out_of_memory", "out of memory")
)
