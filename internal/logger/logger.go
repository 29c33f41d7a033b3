package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

const (
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorReset  = "\x1b[0m"
)

// New builds the process logger on stdout.
//
// Inside Kubernetes, or with ENV=prod|dev, records are JSON with source
// locations. Anywhere else they are text with warnings and errors colored.
// LOG_LEVEL (debug, info, warn, error) overrides the default level.
func New() *slog.Logger {
	return NewWithWriter(os.Stdout)
}

func NewWithWriter(w io.Writer) *slog.Logger {
	structured := useJSON()

	level := slog.LevelDebug
	if structured {
		level = slog.LevelInfo
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		level = ParseLevel(v, level)
	}

	var inner slog.Handler
	if structured {
		inner = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level, AddSource: true})
	} else {
		inner = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(&handler{next: inner, color: !structured})
}

// NewWithServiceContext tags every record with the service identity.
func NewWithServiceContext(serviceName, version string) *slog.Logger {
	return New().With(
		slog.String("service", serviceName),
		slog.String("version", version),
		slog.String("environment", os.Getenv("ENV")),
	)
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to a slog.Level, falling back to def.
func ParseLevel(name string, def slog.Level) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return def
	}
	return level
}

func useJSON() bool {
	if _, inK8s := os.LookupEnv("KUBERNETES_SERVICE_HOST"); inK8s {
		return true
	}
	switch os.Getenv("ENV") {
	case "prod", "dev":
		return true
	}
	return false
}

// handler stamps trace_id/span_id from the OTel span in ctx and, for
// terminal output, colors the message of warnings and errors.
type handler struct {
	next  slog.Handler
	color bool
}

func (h *handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	if h.color {
		if c := levelColor(r.Level); c != "" {
			colored := slog.NewRecord(r.Time, r.Level, c+r.Message+colorReset, r.PC)
			r.Attrs(func(a slog.Attr) bool {
				colored.AddAttrs(a)
				return true
			})
			r = colored
		}
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.next.Handle(ctx, r)
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &handler{next: h.next.WithAttrs(attrs), color: h.color}
}

func (h *handler) WithGroup(name string) slog.Handler {
	return &handler{next: h.next.WithGroup(name), color: h.color}
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	}
	return ""
}
