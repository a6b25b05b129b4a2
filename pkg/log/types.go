package log

import "strings"

// Logger is a logger interface.
type Logger interface {
	// Debug logs a message for low-level debugging.
	// keysAndValues lets you add structured context (e.g., "path", p).
	Debug(msg string, keysAndValues ...any)
	// Info logs routine events or state changes.
	Info(msg string, keysAndValues ...any)
	// Warn logs unexpected situations the client can recover from.
	Warn(msg string, keysAndValues ...any)
	// Error logs a failure that aborted an operation.
	Error(msg string, keysAndValues ...any)
	// Fatal logs an unrecoverable failure and terminates the program.
	Fatal(msg string, keysAndValues ...any)
	// WithKV returns a logger with an extra key-value pair for all future logs.
	WithKV(key string, value any) Logger
	// GetAllKV returns all persistent key-value pairs for this logger.
	GetAllKV() []any
	// WithName returns a logger with a sub-name appended to its name.
	WithName(name string) Logger
	// Name returns the logger's name.
	Name() string
	// AddCallerSkip returns a logger that skips extra stack frames when reporting log source.
	AddCallerSkip(skip int) Logger
}

// Level represents the severity level of a log message.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

// ParseLevel converts a user supplied level name into a Level.
// Unknown names map to LevelInfo.
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn, "warning":
		return LevelWarn
	case LevelError:
		return LevelError
	case LevelFatal:
		return LevelFatal
	default:
		return LevelInfo
	}
}
