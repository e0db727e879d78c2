// Package host runs a native messaging session over a pair of streams:
// it reads one message, hands it to a Handler and writes back the reply.
// Framing is left entirely to package nativemsg.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"tarun-kavipurapu/native-messaging/pkg/logger"
	"tarun-kavipurapu/native-messaging/pkg/monitor"
	"tarun-kavipurapu/native-messaging/pkg/nativemsg"
)

// ErrHandlerPanic is returned by Run after a handler panicked.
var ErrHandlerPanic = errors.New("host: handler panicked")

// Handler processes one message. A nil reply sends nothing; an error is
// reported to the browser and the session continues.
type Handler func(ctx context.Context, msg json.RawMessage) (any, error)

// Echo replies with the received message unchanged.
func Echo(_ context.Context, msg json.RawMessage) (any, error) {
	return msg, nil
}

type Option func(*Host)

// WithLimits sets the codec limits. The default is nativemsg.ChromeLimits.
func WithLimits(l nativemsg.Limits) Option {
	return func(h *Host) { h.codec = nativemsg.NewCodec(l) }
}

// WithMetrics records traffic into m.
func WithMetrics(m *monitor.Metrics) Option {
	return func(h *Host) { h.metrics = m }
}

// Host owns one session. Reads and writes happen on the goroutine calling
// Run.
type Host struct {
	in      io.Reader
	out     io.Writer
	handler Handler
	codec   *nativemsg.Codec
	metrics *monitor.Metrics
}

func New(in io.Reader, out io.Writer, handler Handler, opts ...Option) *Host {
	h := &Host{
		in:      in,
		handler: handler,
		codec:   nativemsg.NewCodec(nativemsg.ChromeLimits()),
		metrics: monitor.New(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.metrics == nil {
		h.metrics = monitor.New()
	}
	h.out = monitor.WrapWriter(out, h.metrics)
	return h
}

// Metrics returns the session counters.
func (h *Host) Metrics() *monitor.Metrics {
	return h.metrics
}

// Run serves messages until the browser closes the input stream, which
// returns nil. A read failure is reported to the browser and ends the
// session, since the stream position is no longer trustworthy.
func (h *Host) Run(ctx context.Context) error {
	logger.Sugar.Infof("[Host] session started")
	defer h.metrics.Log()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := h.codec.ReadRaw(h.in)
		if err != nil {
			if nativemsg.IsEndOfInput(err) {
				logger.Sugar.Infof("[Host] input closed, session finished")
				return nil
			}
			h.metrics.RecordError()
			logger.Sugar.Errorf("[Host] read error: %v", err)
			if werr := h.sendError(err.Error()); werr != nil {
				return fmt.Errorf("report read error: %w", werr)
			}
			return err
		}
		h.metrics.RecordIn(nativemsg.HeaderSize + len(msg))

		if err := h.dispatch(ctx, msg); err != nil {
			return err
		}
	}
}

func (h *Host) dispatch(ctx context.Context, msg json.RawMessage) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		h.metrics.RecordError()
		text := fmt.Sprint(r)
		file, line := panicSite()
		logger.Sugar.Errorf("[Host] handler panic: %s (%s:%d)", text, file, line)
		report := func(s string) any {
			return PanicReply{Status: StatusPanic, Payload: s, File: file, Line: line}
		}
		if werr := h.sendFitted(text, report); werr != nil {
			logger.Sugar.Errorf("[Host] failed to report panic: %v", werr)
		}
		err = fmt.Errorf("%w: %s", ErrHandlerPanic, text)
	}()

	reply, herr := h.handler(ctx, msg)
	if herr != nil {
		h.metrics.RecordError()
		logger.Sugar.Warnf("[Host] handler error: %v", herr)
		return h.sendError(herr.Error())
	}
	if reply == nil {
		return nil
	}
	if serr := h.send(reply); serr != nil {
		if errors.Is(serr, nativemsg.ErrIO) {
			return serr
		}
		// The reply never reached the wire, so the session can go on.
		h.metrics.RecordError()
		logger.Sugar.Warnf("[Host] reply rejected: %v", serr)
		return h.sendError(serr.Error())
	}
	return nil
}

func (h *Host) send(v any) error {
	return h.codec.Write(h.out, v)
}

func (h *Host) sendError(text string) error {
	return h.sendFitted(text, func(s string) any { return ErrorReply{Error: s} })
}

// sendFitted sends build(text), cutting text down until the reply fits
// the outgoing limit. A reply that cannot fit even with empty text is
// dropped and logged; only a write failure is returned.
func (h *Host) sendFitted(text string, build func(string) any) error {
	runes := []rune(text)
	for {
		err := h.send(build(string(runes)))
		if !errors.Is(err, nativemsg.ErrTooLarge) {
			return err
		}
		if len(runes) == 0 {
			logger.Sugar.Errorf("[Host] report dropped, larger than outgoing limit: %q", text)
			return nil
		}
		runes = runes[:len(runes)/2]
	}
}

// panicSite returns the location that panicked. It must be called from
// the deferred function that recovered.
func panicSite() (string, int) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	inRuntime := false
	for {
		f, more := frames.Next()
		if strings.HasPrefix(f.Function, "runtime.") {
			inRuntime = true
		} else if inRuntime {
			return f.File, f.Line
		}
		if !more {
			return "", 0
		}
	}
}
