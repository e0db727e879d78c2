package nativemsg

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrEndOfInput = errors.New("nativemsg: end of input")
	ErrTruncated  = errors.New("nativemsg: truncated message")
	ErrMalformed  = errors.New("nativemsg: malformed payload")
	ErrSerialize  = errors.New("nativemsg: cannot serialize message")
	ErrTooLarge   = errors.New("nativemsg: message too large")
	ErrIO         = errors.New("nativemsg: i/o failure")
)

// Error describes a failed read or write. Kind is one of the Err* values
// above and Err, when set, is the underlying cause.
type Error struct {
	Op   string // "read" or "write"
	Kind error
	Size uint64 // declared payload length, zero when unknown
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Size > 0 && (e.Kind == ErrTooLarge || e.Kind == ErrTruncated) {
		msg = fmt.Sprintf("%s: %d bytes", msg, e.Size)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause, so errors.Is(err, ErrMalformed)
// and errors.As(err, &syntaxErr) both work.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsEndOfInput reports whether err means the peer closed the stream
// cleanly before a new frame started.
func IsEndOfInput(err error) bool {
	return errors.Is(err, ErrEndOfInput)
}

func newError(op string, kind error, size uint64, cause error) *Error {
	return &Error{Op: op, Kind: kind, Size: size, Err: cause}
}
