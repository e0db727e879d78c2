package nativemsg

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"unicode/utf8"
)

// Limits bounds payload sizes. A zero field means no limit beyond what
// the 4-byte length prefix can express.
type Limits struct {
	MaxIncoming uint32
	MaxOutgoing uint32
}

// Unbounded returns limits that only enforce the wire format.
func Unbounded() Limits {
	return Limits{}
}

// ChromeLimits returns the sizes Chrome documents for native messaging
// hosts: 1 MiB from the host, 64 MiB towards it.
func ChromeLimits() Limits {
	return Limits{
		MaxIncoming: 64 * 1024 * 1024,
		MaxOutgoing: 1024 * 1024,
	}
}

// Codec reads and writes JSON messages as native messaging frames.
// It keeps no per-stream state, so one Codec may serve any number of
// streams; calls on the same stream must be serialized by the caller.
type Codec struct {
	limits Limits
}

// NewCodec returns a codec enforcing limits.
func NewCodec(limits Limits) *Codec {
	return &Codec{limits: limits}
}

// Limits returns the limits the codec enforces.
func (c *Codec) Limits() Limits {
	return c.limits
}

// ReadRaw reads one frame and returns its payload after checking that it
// holds exactly one valid JSON value.
func (c *Codec) ReadRaw(r io.Reader) (json.RawMessage, error) {
	payload, err := ReadFrame(r, c.limits.MaxIncoming)
	if err != nil {
		return nil, err
	}
	if err := validate(payload); err != nil {
		return nil, newError("read", ErrMalformed, uint64(len(payload)), err)
	}
	return json.RawMessage(payload), nil
}

// Read reads one frame and decodes it into a generic value: map[string]any,
// []any, string, json.Number, bool or nil. Numbers are kept as json.Number
// so they survive a write unchanged.
func (c *Codec) Read(r io.Reader) (any, error) {
	var v any
	if err := c.ReadInto(r, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// ReadInto reads one frame and decodes it into v, which must be a pointer.
func (c *Codec) ReadInto(r io.Reader, v any) error {
	payload, err := ReadFrame(r, c.limits.MaxIncoming)
	if err != nil {
		return err
	}
	return decode(payload, v)
}

// Encode serializes v and returns the complete frame.
func (c *Codec) Encode(v any) ([]byte, error) {
	payload, err := marshal(v)
	if err != nil {
		return nil, err
	}
	if err := c.checkOutgoing(payload); err != nil {
		return nil, err
	}
	return AppendFrame(make([]byte, 0, HeaderSize+len(payload)), payload)
}

// Write serializes v and writes it to w as one frame, flushing w if it
// buffers. Nothing is written when v cannot be serialized or is too large.
func (c *Codec) Write(w io.Writer, v any) error {
	payload, err := marshal(v)
	if err != nil {
		return err
	}
	if err := c.checkOutgoing(payload); err != nil {
		return err
	}
	return WriteFrame(w, payload)
}

func (c *Codec) checkOutgoing(payload []byte) error {
	n := uint64(len(payload))
	if n > MaxFrameLen || (c.limits.MaxOutgoing > 0 && n > uint64(c.limits.MaxOutgoing)) {
		return newError("write", ErrTooLarge, n, nil)
	}
	return nil
}

// marshal encodes v without HTML escaping and without a trailing newline.
// A json.RawMessage is passed through after validation.
func marshal(v any) ([]byte, error) {
	if raw, ok := v.(json.RawMessage); ok {
		if err := validate(raw); err != nil {
			return nil, newError("write", ErrSerialize, uint64(len(raw)), err)
		}
		return raw, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, newError("write", ErrSerialize, 0, err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

var (
	errInvalidUTF8  = errors.New("payload is not valid UTF-8")
	errTrailingData = errors.New("invalid data after top-level value")
)

func decode(payload []byte, v any) error {
	if !utf8.Valid(payload) {
		return newError("read", ErrMalformed, uint64(len(payload)), errInvalidUTF8)
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return newError("read", ErrMalformed, uint64(len(payload)), err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return newError("read", ErrMalformed, uint64(len(payload)), errTrailingData)
	}
	return nil
}

// validate returns the parse diagnostic for payload, or nil.
func validate(payload []byte) error {
	if !utf8.Valid(payload) {
		return errInvalidUTF8
	}
	if json.Valid(payload) {
		return nil
	}
	// Unmarshal again for a diagnostic carrying an offset.
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return err
	}
	return errTrailingData
}
