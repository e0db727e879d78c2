// Package nativemsg implements the browser native messaging wire protocol:
// every frame is a 4-byte little-endian unsigned length followed by that
// many bytes of UTF-8 JSON.
//
// The codec is stateless. Each call reads or writes exactly one frame and
// either succeeds completely or returns an error; streams are owned by the
// caller. Diagnostics must never go to the stream used for frames.
package nativemsg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"

	"tarun-kavipurapu/native-messaging/pkg/logger"
)

// HeaderSize is the size of the length prefix.
const HeaderSize = 4

// MaxFrameLen is the largest payload the length prefix can describe.
const MaxFrameLen = math.MaxUint32

// ReadFrame reads one frame from r and returns its payload.
// A limit of zero means no limit beyond MaxFrameLen.
func ReadFrame(r io.Reader, limit uint32) ([]byte, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		switch {
		case errors.Is(err, io.EOF):
			return nil, newError("read", ErrEndOfInput, 0, nil)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return nil, newError("read", ErrTruncated, 0, err)
		default:
			return nil, newError("read", ErrIO, 0, err)
		}
	}

	length := binary.LittleEndian.Uint32(hdr[:])
	if limit > 0 && length > limit {
		return nil, newError("read", ErrTooLarge, uint64(length), nil)
	}

	payload, err := readPayload(r, length)
	if err != nil {
		return nil, err
	}

	logger.Sugar.Debugf("[nativemsg] read frame: len=%d", length)
	return payload, nil
}

// smallPayload is the largest payload allocated before its bytes arrive.
// Longer payloads grow with the data actually received.
const smallPayload = 64 * 1024

func readPayload(r io.Reader, length uint32) ([]byte, error) {
	if length <= smallPayload {
		payload := make([]byte, length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, payloadError(length, err)
		}
		return payload, nil
	}

	var buf bytes.Buffer
	buf.Grow(smallPayload)
	n, err := io.CopyN(&buf, r, int64(length))
	if err != nil {
		return nil, payloadError(length, err)
	}
	if n != int64(length) {
		return nil, payloadError(length, io.ErrUnexpectedEOF)
	}
	return buf.Bytes(), nil
}

func payloadError(length uint32, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return newError("read", ErrTruncated, uint64(length), io.ErrUnexpectedEOF)
	}
	return newError("read", ErrIO, uint64(length), err)
}

// AppendFrame appends the frame for payload to dst.
func AppendFrame(dst, payload []byte) ([]byte, error) {
	if uint64(len(payload)) > MaxFrameLen {
		return dst, newError("write", ErrTooLarge, uint64(len(payload)), nil)
	}
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...), nil
}

type flusher interface {
	Flush() error
}

// WriteFrame writes payload as one frame using a single Write call and
// flushes w when it buffers.
func WriteFrame(w io.Writer, payload []byte) error {
	buf, err := AppendFrame(make([]byte, 0, HeaderSize+len(payload)), payload)
	if err != nil {
		return err
	}
	if _, err := w.Write(buf); err != nil {
		return newError("write", ErrIO, uint64(len(payload)), err)
	}
	if f, ok := w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return newError("write", ErrIO, uint64(len(payload)), err)
		}
	}

	logger.Sugar.Debugf("[nativemsg] wrote frame: len=%d", len(payload))
	return nil
}
