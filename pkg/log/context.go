package log

import "context"

type contextKey struct{}

var loggerContextKey = contextKey{}

// SetContextLogger attaches the provided logger to the context.
// A nil logger is stored as a NoopLogger.
func SetContextLogger(ctx context.Context, lg Logger) context.Context {
	if lg == nil {
		lg = NewNoopLogger()
	}
	return context.WithValue(ctx, loggerContextKey, lg)
}

// FromContext retrieves the logger stored in the context.
// If no logger is found in the context, it returns a NoopLogger.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerContextKey).(Logger); ok {
		return l
	}
	return NewNoopLogger()
}
