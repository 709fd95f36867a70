// Package observability provides structured logging, metrics collection,
// health checks and correlation IDs for the episodes services.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// LogLevel is a level name understood by slog: debug, info, warn or error.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogConfig configures NewLogger.
type LogConfig struct {
	Level   LogLevel
	Format  LogFormat
	Output  io.Writer
	Service string
	Version string
	// AddSource adds the caller's file and line.
	AddSource bool
}

// DefaultLogConfig logs text at info to stderr.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:   LogLevelInfo,
		Format:  LogFormatText,
		Output:  os.Stderr,
		Service: "episodes",
		Version: "dev",
	}
}

// LogConfigFromEnv reads LOG_LEVEL, LOG_FORMAT and EPISODES_VERSION.
// APP_ENV=production switches the default to JSON on stdout with source
// locations.
func LogConfigFromEnv() LogConfig {
	cfg := DefaultLogConfig()
	if os.Getenv("APP_ENV") == "production" {
		cfg.Format = LogFormatJSON
		cfg.Output = os.Stdout
		cfg.AddSource = true
		cfg.Version = "unknown"
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Level = LogLevel(level)
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Format = LogFormat(format)
	}
	if version := os.Getenv("EPISODES_VERSION"); version != "" {
		cfg.Version = version
	}
	return cfg
}

// LoggerFromEnv is NewLogger(LogConfigFromEnv()).
func LoggerFromEnv() *slog.Logger {
	return NewLogger(LogConfigFromEnv())
}

// NewLogger builds a logger that tags every record with the service and
// version and with the correlation ID found in the logging context.
func NewLogger(cfg LogConfig) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if LogFormat(strings.ToLower(string(cfg.Format))) == LogFormatJSON {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}

	var attrs []slog.Attr
	if cfg.Service != "" {
		attrs = append(attrs, slog.String("service", cfg.Service))
	}
	if cfg.Version != "" {
		attrs = append(attrs, slog.String("version", cfg.Version))
	}
	return slog.New(correlationHandler{Handler: handler.WithAttrs(attrs)})
}

// parseLevel falls back to info for unknown names.
func parseLevel(level LogLevel) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// correlationHandler adds the context's correlation ID to each record.
type correlationHandler struct {
	slog.Handler
}

func (h correlationHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := CorrelationIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String(CorrelationIDKey, id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h correlationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return correlationHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h correlationHandler) WithGroup(name string) slog.Handler {
	return correlationHandler{Handler: h.Handler.WithGroup(name)}
}
