package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// LogLevel represents the available log levels
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

const timeFormat = "15:04:05"

// Logger provides a structured logger instance configured for the application
type Logger struct {
	*slog.Logger
}

// ParseLevel maps a LogLevel to its slog level, defaulting to info
func ParseLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a logger on stderr. Terminals get a colourised handler.
func NewLogger(level LogLevel) *Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a logger writing to w
func NewLoggerWithWriter(level LogLevel, w io.Writer) *Logger {
	slogLevel := ParseLevel(level)

	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return &Logger{Logger: slog.New(tint.NewHandler(w, &tint.Options{
			Level:      slogLevel,
			TimeFormat: timeFormat,
		}))}
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(slog.TimeKey, a.Value.Time().Format(timeFormat))
			}
			if a.Value.Kind() == slog.KindDuration {
				return slog.String(a.Key, a.Value.Duration().Round(time.Millisecond).String())
			}
			return a
		},
	}
	return &Logger{Logger: slog.New(slog.NewTextHandler(w, opts))}
}

// NewDefaultLogger creates a logger with INFO level for general use
func NewDefaultLogger() *Logger {
	return NewLogger(LogLevelInfo)
}

// WithComponent creates a logger with a component context for better tracing
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With("component", component)}
}

// WithSession creates a logger with session context for request tracing
func (l *Logger) WithSession(sessionID string) *Logger {
	return &Logger{Logger: l.Logger.With("session", sessionID)}
}

// With returns a logger carrying the given attributes
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// InfoWithIcon logs info message with emoji for user-friendly output
func (l *Logger) InfoWithIcon(icon string, msg string, args ...any) {
	l.Info(icon+" "+msg, args...)
}

// WarnWithIcon logs warning message with emoji for user-friendly output
func (l *Logger) WarnWithIcon(icon string, msg string, args ...any) {
	l.Warn(icon+" "+msg, args...)
}

// ErrorWithIcon logs error message with emoji for user-friendly output
func (l *Logger) ErrorWithIcon(icon string, msg string, args ...any) {
	l.Error(icon+" "+msg, args...)
}

// DebugWithIcon logs debug message with emoji for development
func (l *Logger) DebugWithIcon(icon string, msg string, args ...any) {
	l.Debug(icon+" "+msg, args...)
}

// Default logger instance - single instance for the entire application
var Default = NewDefaultLogger()

// SetGlobalLogLevel replaces the default logger.
// Component loggers created before this call keep their old level.
func SetGlobalLogLevel(level LogLevel) {
	Default = NewLogger(level)
}

// NewComponentLogger creates a new logger for a specific component
func NewComponentLogger(component string) *Logger {
	return Default.WithComponent(component)
}
