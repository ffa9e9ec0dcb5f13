package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"go.opentelemetry.io/otel/trace"
)

// New creates a slog.Logger writing to w with trace context support.
// prod/dev environments and Kubernetes get JSON, everything else gets text
// with ERROR records colored red.
func New(w io.Writer, env, level string) *slog.Logger {
	_, inK8s := os.LookupEnv("KUBERNETES_SERVICE_HOST")
	useJSON := inK8s || env == "prod" || env == "dev"

	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if useJSON {
		opts.AddSource = true
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = newColorTextHandler(w, opts)
	}
	return slog.New(newTraceContextHandler(handler))
}

func NewWithServiceContext(w io.Writer, serviceName, version, env, level string) *slog.Logger {
	return New(w, env, level).With(
		slog.String("service", serviceName),
		slog.String("version", version),
		slog.String("environment", env),
	)
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

const (
	colorRed   = "\x1b[31m"
	colorReset = "\x1b[0m"
)

// colorTextHandler formats records with a text handler into a buffer and
// wraps ERROR lines in red before writing them out.
type colorTextHandler struct {
	handler slog.Handler
	out     io.Writer
	buf     *bytes.Buffer
	mu      *sync.Mutex
}

func newColorTextHandler(w io.Writer, opts *slog.HandlerOptions) *colorTextHandler {
	buf := &bytes.Buffer{}
	return &colorTextHandler{
		handler: slog.NewTextHandler(buf, opts),
		out:     w,
		buf:     buf,
		mu:      &sync.Mutex{},
	}
}

func (h *colorTextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *colorTextHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf.Reset()
	if err := h.handler.Handle(ctx, r); err != nil {
		return err
	}

	line := h.buf.Bytes()
	if r.Level >= slog.LevelError {
		colored := make([]byte, 0, len(line)+len(colorRed)+len(colorReset))
		colored = append(colored, colorRed...)
		colored = append(colored, bytes.TrimSuffix(line, []byte("\n"))...)
		colored = append(colored, colorReset+"\n"...)
		line = colored
	}

	_, err := h.out.Write(line)
	return err
}

func (h *colorTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &colorTextHandler{
		handler: h.handler.WithAttrs(attrs),
		out:     h.out,
		buf:     h.buf,
		mu:      h.mu,
	}
}

func (h *colorTextHandler) WithGroup(name string) slog.Handler {
	return &colorTextHandler{
		handler: h.handler.WithGroup(name),
		out:     h.out,
		buf:     h.buf,
		mu:      h.mu,
	}
}

// traceContextHandler adds trace_id and span_id from the OTel span in ctx.
type traceContextHandler struct {
	handler slog.Handler
}

func newTraceContextHandler(h slog.Handler) *traceContextHandler {
	return &traceContextHandler{handler: h}
}

func (h *traceContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *traceContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}
	return h.handler.Handle(ctx, r)
}

func (h *traceContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceContextHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *traceContextHandler) WithGroup(name string) slog.Handler {
	return &traceContextHandler{handler: h.handler.WithGroup(name)}
}
