package telemetry

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger carries the zerolog logger of a run and the log file it may own.
type Logger struct {
	zlog   zerolog.Logger
	closer io.Closer
}

type loggerContextKey struct{}

// timeFieldFormats maps time_format values to zerolog field formats.
var timeFieldFormats = map[string]string{
	"unix":      zerolog.TimeFormatUnix,
	"unixms":    zerolog.TimeFormatUnixMs,
	"unixmicro": zerolog.TimeFormatUnixMicro,
	"rfc3339":   time.RFC3339,
}

// NewLogger opens the configured destination: stderr, stdout or, for any
// other value, a file that is appended to.
func NewLogger(cfg LoggingConfig) (*Logger, error) {
	switch cfg.Output {
	case "", "stderr":
		return newLogger(os.Stderr, cfg), nil
	case "stdout":
		return newLogger(os.Stdout, cfg), nil
	}

	file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	l := newLogger(file, cfg)
	l.closer = file
	return l, nil
}

func newLogger(w io.Writer, cfg LoggingConfig) *Logger {
	format, ok := timeFieldFormats[cfg.TimeFormat]
	if !ok {
		format = time.RFC3339
	}
	zerolog.TimeFieldFormat = format

	if cfg.Format == "console" {
		console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		if cfg.TimeFormat == "unix" {
			console.TimeFormat = "unix"
		}
		w = console
	}

	ctx := zerolog.New(w).Level(ParseLevel(cfg.Level)).With().Timestamp()
	if cfg.EnableCaller {
		ctx = ctx.Caller()
	}
	return &Logger{zlog: ctx.Logger()}
}

// Zerolog returns the underlying zerolog.Logger, for packages that take one
// directly (engine, parser, policy, stores, tui).
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}

// Close releases the log file, if the logger writes to one.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// WithField returns a child logger with one more field. The child never
// closes the log file.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Interface(key, value).Logger()}
}

// ForCommand tags the logger with the running command.
func (l *Logger) ForCommand(command string) *Logger {
	return l.WithField("command", command)
}

// WithInput tags the logger with the primary configuration description.
func (l *Logger) WithInput(path string) *Logger {
	return l.WithField("input", path)
}

// WithContext stores the logger in ctx.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, l)
}

// FromContext returns the logger stored in ctx, or a disabled one.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerContextKey{}).(*Logger); ok {
		return l
	}
	return &Logger{zlog: zerolog.Nop()}
}

// Info logs msg at info level.
func (l *Logger) Info(msg string) {
	l.zlog.Info().Msg(msg)
}

// Warn logs msg at warn level.
func (l *Logger) Warn(msg string) {
	l.zlog.Warn().Msg(msg)
}

// ParseLevel converts a level name to a zerolog level. Unknown names map to
// info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
