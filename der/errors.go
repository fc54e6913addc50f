package der

import (
	"errors"
	"fmt"
)

// ErrLimitExceeded is returned when an input is larger or nested deeper than
// the Decoder allows.
var ErrLimitExceeded = errors.New("der: decoder limit exceeded")

// A SyntaxError reports malformed input. Offset is the position of the
// offending TLV (or octet) from the start of the decoded buffer.
type SyntaxError struct {
	Offset int
	Msg    string
	Err    error
}

func (e *SyntaxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("der: malformed input at offset %d: %s: %v", e.Offset, e.Msg, e.Err)
	}
	return fmt.Sprintf("der: malformed input at offset %d: %s", e.Offset, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// An UnsupportedTagError is returned for a universal class tag the codec has
// no value codec for.
type UnsupportedTagError struct {
	Offset int
	Tag    byte
}

func (e *UnsupportedTagError) Error() string {
	return fmt.Sprintf("der: unsupported universal tag 0x%02x at offset %d", e.Tag, e.Offset)
}

// A TypeMismatchError is returned when a node of one kind was expected and
// another was found.
type TypeMismatchError struct {
	Expected string
	Actual   string
	Index    int
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("der: type mismatch at item %d: expected %s, got %s", e.Index, e.Expected, e.Actual)
}

// A ValueError reports content octets or a Go value that is not valid for
// its ASN.1 type, such as a date that does not match its grammar.
type ValueError struct {
	Kind string
	Msg  string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("der: invalid %s: %s", e.Kind, e.Msg)
}
