package monitor

import (
	"sync/atomic"
	"time"

	"tarun-kavipurapu/native-messaging/pkg/logger"
)

// Metrics counts frames crossing one host session.
type Metrics struct {
	FramesIn  int64
	FramesOut int64
	BytesIn   int64
	BytesOut  int64
	Errors    int64
	// Session start time
	Start time.Time
}

// New returns zeroed metrics starting now.
func New() *Metrics {
	return &Metrics{Start: time.Now()}
}

// Snapshot is a point-in-time copy of Metrics.
type Snapshot struct {
	FramesIn, FramesOut int64
	BytesIn, BytesOut   int64
	Errors              int64
	Uptime              time.Duration
}

// RecordIn records a received frame of n bytes, prefix included.
func (m *Metrics) RecordIn(n int) {
	atomic.AddInt64(&m.FramesIn, 1)
	atomic.AddInt64(&m.BytesIn, int64(n))
}

// RecordOut records a sent frame of n bytes, prefix included.
func (m *Metrics) RecordOut(n int) {
	atomic.AddInt64(&m.FramesOut, 1)
	atomic.AddInt64(&m.BytesOut, int64(n))
}

// RecordError counts a failed read, write or handler call.
func (m *Metrics) RecordError() {
	atomic.AddInt64(&m.Errors, 1)
}

func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		FramesIn:  atomic.LoadInt64(&m.FramesIn),
		FramesOut: atomic.LoadInt64(&m.FramesOut),
		BytesIn:   atomic.LoadInt64(&m.BytesIn),
		BytesOut:  atomic.LoadInt64(&m.BytesOut),
		Errors:    atomic.LoadInt64(&m.Errors),
		Uptime:    time.Since(m.Start),
	}
}

// Log writes one summary line.
func (m *Metrics) Log() {
	s := m.Snapshot()
	logger.Sugar.Infof("[Metrics] Uptime=%s | FramesIn=%d | FramesOut=%d | BytesIn=%d | BytesOut=%d | Errors=%d",
		s.Uptime.Truncate(time.Second), s.FramesIn, s.FramesOut, s.BytesIn, s.BytesOut, s.Errors)
}

// LogPeriodic logs a summary every interval until stop is closed.
func (m *Metrics) LogPeriodic(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Log()
		case <-stop:
			return
		}
	}
}
