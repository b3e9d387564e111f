package wire

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Decode Error Types
// ---------------------------------------------------------------------------

var (
	ErrBufferUnderrun      = errors.New("buffer underrun")
	ErrInvalidDiscriminant = errors.New("invalid union discriminant")
	ErrInvalidTag          = errors.New("invalid value tag")
	ErrInvalidLength       = errors.New("invalid length prefix")
)

// DecodeError reports a protocol violation at a position in the buffer.
// Err is one of the sentinel errors above.
type DecodeError struct {
	Op     string // reader operation, e.g. "ReadInt32"
	Offset int    // cursor position when the operation started
	Err    error
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("wire: %s at offset %d: %v: %s", e.Op, e.Offset, e.Err, e.Detail)
	}
	return fmt.Sprintf("wire: %s at offset %d: %v", e.Op, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (r *Reader) fail(op string, at int, err error, format string, args ...any) error {
	de := &DecodeError{Op: op, Offset: at, Err: err}
	if format != "" {
		de.Detail = fmt.Sprintf(format, args...)
	}
	return de
}
