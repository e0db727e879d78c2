package nativemsg

import (
	"io"
	"os"
)

var defaultCodec = NewCodec(Unbounded())

// Read reads one message from r with no size limit.
func Read(r io.Reader) (any, error) { return defaultCodec.Read(r) }

// ReadInto reads one message from r into v with no size limit.
func ReadInto(r io.Reader, v any) error { return defaultCodec.ReadInto(r, v) }

// Write writes v to w as one frame.
func Write(w io.Writer, v any) error { return defaultCodec.Write(w, v) }

// Encode returns the frame for v.
func Encode(v any) ([]byte, error) { return defaultCodec.Encode(v) }

// Send writes v to standard output using Chrome's limits.
func Send(v any) error {
	return NewCodec(ChromeLimits()).Write(os.Stdout, v)
}

// Receive reads one message from standard input using Chrome's limits.
func Receive() (any, error) {
	return NewCodec(ChromeLimits()).Read(os.Stdin)
}
