package monitor

import "io"

// countingWriter records every Write as one outgoing frame. The codec
// writes each frame with a single call, so frames and calls line up.
type countingWriter struct {
	w io.Writer
	m *Metrics
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	if err == nil {
		c.m.RecordOut(n)
	}
	return n, err
}

// Flush forwards to the wrapped writer when it buffers.
func (c *countingWriter) Flush() error {
	if f, ok := c.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// WrapWriter counts frames written to w into m. A nil m returns w as is.
func WrapWriter(w io.Writer, m *Metrics) io.Writer {
	if m == nil {
		return w
	}
	return &countingWriter{w: w, m: m}
}
