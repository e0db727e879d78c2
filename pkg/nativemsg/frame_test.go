package nativemsg

import (
	"bytes"
	"errors"
	"runtime"
	"strings"
	"syscall"
	"testing"
)

func TestReadFrameConsumesExactlyOneFrame(t *testing.T) {
	in := bytes.NewReader([]byte{3, 0, 0, 0, '[', '1', ']', 'x', 'y'})
	payload, err := ReadFrame(in, 0)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if string(payload) != "[1]" {
		t.Fatalf("unexpected payload: %q", payload)
	}
	if in.Len() != 2 {
		t.Fatalf("expected 2 unread bytes, got %d", in.Len())
	}
}

func TestReadFrameEmptyStreamIsEndOfInput(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader(nil), 0)
	if !errors.Is(err, ErrEndOfInput) {
		t.Fatalf("expected ErrEndOfInput, got %v", err)
	}
	if errors.Is(err, ErrTruncated) {
		t.Fatalf("end of input must not look truncated")
	}
}

func TestReadFrameShortPrefixIsTruncated(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{5, 0}), 0)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	if strings.Contains(err.Error(), "bytes") {
		t.Fatalf("short prefix should not report a size: %q", err.Error())
	}
}

func TestReadFrameShortPayloadIsTruncated(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{5, 0, 0, 0, 'a', 'b'}), 0)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	var e *Error
	if !errors.As(err, &e) || e.Size != 5 {
		t.Fatalf("expected *Error with size 5, got %#v", err)
	}
}

func TestReadFrameHugeLengthShortBodyAllocatesLittle(t *testing.T) {
	in := []byte{0xff, 0xff, 0xff, 0xff, 'a', 'b'}

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := ReadFrame(bytes.NewReader(in), 0)
	runtime.ReadMemStats(&after)

	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	if delta := after.TotalAlloc - before.TotalAlloc; delta > 16<<20 {
		t.Fatalf("allocated %d bytes for a 2 byte body", delta)
	}
}

func TestReadFrameLargePayload(t *testing.T) {
	body := bytes.Repeat([]byte{'x'}, 3*smallPayload+7)
	frame, err := AppendFrame(nil, body)
	if err != nil {
		t.Fatalf("append frame: %v", err)
	}
	in := bytes.NewReader(append(frame, 'z'))
	payload, err := ReadFrame(in, 0)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if !bytes.Equal(payload, body) {
		t.Fatalf("payload mismatch: got %d bytes", len(payload))
	}
	if in.Len() != 1 {
		t.Fatalf("expected 1 unread byte, got %d", in.Len())
	}

	_, err = ReadFrame(bytes.NewReader(frame[:len(frame)-1]), 0)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestReadFrameMissingPayloadIsTruncated(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{5, 0, 0, 0}), 0)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestReadFrameLimit(t *testing.T) {
	in := bytes.NewReader([]byte{0, 1, 0, 0}) // 256
	_, err := ReadFrame(in, 255)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestReadFrameZeroLength(t *testing.T) {
	payload, err := ReadFrame(bytes.NewReader([]byte{0, 0, 0, 0}), 0)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if len(payload) != 0 {
		t.Fatalf("expected empty payload, got %q", payload)
	}
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestReadFrameIOError(t *testing.T) {
	_, err := ReadFrame(failingReader{err: syscall.EIO}, 0)
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
	if !errors.Is(err, syscall.EIO) {
		t.Fatalf("expected cause to be kept, got %v", err)
	}
}

func TestAppendFrameLittleEndian(t *testing.T) {
	payload := bytes.Repeat([]byte{'a'}, 0x0102)
	frame, err := AppendFrame(nil, payload)
	if err != nil {
		t.Fatalf("append frame: %v", err)
	}
	if !bytes.Equal(frame[:4], []byte{0x02, 0x01, 0x00, 0x00}) {
		t.Fatalf("unexpected prefix: % x", frame[:4])
	}
	if len(frame) != HeaderSize+len(payload) {
		t.Fatalf("unexpected frame size: %d", len(frame))
	}
}

type writeRecorder struct {
	bytes.Buffer
	writes  int
	flushes int
}

func (w *writeRecorder) Write(p []byte) (int, error) {
	w.writes++
	return w.Buffer.Write(p)
}

func (w *writeRecorder) Flush() error {
	w.flushes++
	return nil
}

func TestWriteFrameSingleWriteAndFlush(t *testing.T) {
	var w writeRecorder
	if err := WriteFrame(&w, []byte(`"hi"`)); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	if w.writes != 1 || w.flushes != 1 {
		t.Fatalf("expected one write and one flush, got %d and %d", w.writes, w.flushes)
	}
	if !bytes.Equal(w.Bytes(), []byte{4, 0, 0, 0, '"', 'h', 'i', '"'}) {
		t.Fatalf("unexpected bytes: % x", w.Bytes())
	}
}

type brokenPipe struct{}

func (brokenPipe) Write([]byte) (int, error) { return 0, syscall.EPIPE }

func TestWriteFrameIOError(t *testing.T) {
	err := WriteFrame(brokenPipe{}, []byte("{}"))
	if !errors.Is(err, ErrIO) || !errors.Is(err, syscall.EPIPE) {
		t.Fatalf("expected ErrIO wrapping EPIPE, got %v", err)
	}
}
