package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_String(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrKeyNotFound, "key_not_found: key not found"},
		{ErrKeyTooLong.With("300 bytes, limit 250"), "key_too_long: key too long (300 bytes, limit 250)"},
		{ErrInvalidArguments.Wrap(errors.New("short body")), "invalid_arguments: invalid arguments: short body"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	decorated := ErrKeyTooLong.With("x").Wrap(errors.New("cause"))

	if !errors.Is(decorated, ErrKeyTooLong) {
		t.Error("decorated error should match its sentinel")
	}
	if !errors.Is(fmt.Errorf("put: %w", decorated), ErrKeyTooLong) {
		t.Error("wrapped error should match its sentinel")
	}
	if errors.Is(ErrKeyTooLong, ErrKeyEmpty) {
		t.Error("same kind with a different code should not match")
	}
	if errors.Is(errors.New("key_too_long"), ErrKeyTooLong) {
		t.Error("plain error with the code text should not match")
	}
}

func TestError_CopiesLeaveSentinelUntouched(t *testing.T) {
	cause := errors.New("root")
	err := ErrKeyNotFound.With("foo").Wrap(cause)

	if ErrKeyNotFound.Detail != "" || ErrKeyNotFound.Err != nil {
		t.Fatalf("sentinel modified: %+v", ErrKeyNotFound)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{ErrKeyEmpty, KindInvalid},
		{ErrKeyTooLong, KindInvalid},
		{ErrInvalidArguments, KindInvalid},
		{ErrKeyNotFound, KindNotFound},
		{ErrKeyExists, KindExists},
		{ErrValueTooLarge, KindTooLarge},
		{ErrNotStored, KindNotStored},
		{ErrUnknownCommand, KindUnsupported},
		{ErrOutOfMemory, KindNoMemory},
		{fmt.Errorf("wrapped: %w", ErrKeyExists), KindExists},
		{errors.New("plain"), KindInternal},
		{nil, KindInternal},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestKind_String(t *testing.T) {
	if got := KindNotFound.String(); got != "not_found" {
		t.Errorf("KindNotFound.String() = %q", got)
	}
	if got := Kind(200).String(); got != "kind(200)" {
		t.Errorf("Kind(200).String() = %q", got)
	}
}
