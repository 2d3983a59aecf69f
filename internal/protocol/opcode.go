package protocol

import "fmt"

// Opcode identifies the operation of a frame.
type Opcode uint8

// Operation codes. Only get, set, add, replace and delete are served; the
// remaining codes are named so they can be classified, not executed.
const (
	OpGet             Opcode = 0x00
	OpSet             Opcode = 0x01
	OpAdd             Opcode = 0x02
	OpReplace         Opcode = 0x03
	OpDelete          Opcode = 0x04
	OpIncrement       Opcode = 0x05
	OpDecrement       Opcode = 0x06
	OpFlush           Opcode = 0x08
	OpAuthNegotiation Opcode = 0x20
	OpAuthRequest     Opcode = 0x21
)

var opcodeNames = map[Opcode]string{
	OpGet:             "get",
	OpSet:             "set",
	OpAdd:             "add",
	OpReplace:         "replace",
	OpDelete:          "delete",
	OpIncrement:       "increment",
	OpDecrement:       "decrement",
	OpFlush:           "flush",
	OpAuthNegotiation: "auth_negotiation",
	OpAuthRequest:     "auth_request",
}

// String returns the lowercase operation name, or "unknown(0xNN)".
func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("unknown(0x%02x)", uint8(o))
}

// Known reports whether o is one of the named operation codes.
func (o Opcode) Known() bool {
	_, ok := opcodeNames[o]
	return ok
}

// IsStore reports whether o carries flags/expiry extras and a value.
func (o Opcode) IsStore() bool {
	return o == OpSet || o == OpAdd || o == OpReplace
}

// Status is the response status code.
type Status uint16

// Response status codes.
const (
	StatusSuccess          Status = 0x00
	StatusKeyNotFound      Status = 0x01
	StatusKeyExists        Status = 0x02
	StatusValueTooLarge    Status = 0x03
	StatusInvalidArguments Status = 0x04
	StatusItemNotStored    Status = 0x05
	StatusNonNumeric       Status = 0x06
	StatusUnknownCommand   Status = 0x81
	StatusOutOfMemory      Status = 0x82
)

var statusMessages = map[Status]string{
	StatusSuccess:          "",
	StatusKeyNotFound:      "Not found",
	StatusKeyExists:        "Data exists for key.",
	StatusValueTooLarge:    "Value too large.",
	StatusInvalidArguments: "Invalid arguments",
	StatusItemNotStored:    "Item not stored.",
	StatusNonNumeric:       "Incr/Decr on non-numeric value.",
	StatusUnknownCommand:   "Unknown command",
	StatusOutOfMemory:      "Out of memory",
}

var statusNames = map[Status]string{
	StatusSuccess:          "success",
	StatusKeyNotFound:      "key_not_found",
	StatusKeyExists:        "key_exists",
	StatusValueTooLarge:    "value_too_large",
	StatusInvalidArguments: "invalid_arguments",
	StatusItemNotStored:    "item_not_stored",
	StatusNonNumeric:       "non_numeric",
	StatusUnknownCommand:   "unknown_command",
	StatusOutOfMemory:      "out_of_memory",
}

// Message returns the canonical human-readable text sent as the body of a
// response that carries no value.
func (s Status) Message() string {
	return statusMessages[s]
}

// String returns the snake_case status name, or "status(0xNNNN)".
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(0x%04x)", uint16(s))
}
