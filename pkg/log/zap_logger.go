package log

import (
	"os"
	"path/filepath"
	"time"

	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ Logger = &ZapLogger{}

// ZapLogger is a Logger backed by a zap SugaredLogger.
type ZapLogger struct {
	lg            *zap.SugaredLogger
	keysAndValues []any
}

// Config is used to configure the ZapLogger.
type Config struct {
	Format string `env:"LOG_FORMAT" env-default:"console"` // console, logfmt or json
	Level  Level  `env:"LOG_LEVEL" env-default:"info"`     // debug, info, warn, error, fatal
	Output string `env:"LOG_OUTPUT" env-default:"stderr"`  // stderr, stdout or file path
}

// NewZapLogger creates a new ZapLogger with the given configuration.
// Extra write syncers receive every entry in addition to the configured output.
func NewZapLogger(conf Config, extraWriters ...zapcore.WriteSyncer) Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = func(ts time.Time, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString(ts.UTC().Format(time.RFC3339))
	}

	var encoder zapcore.Encoder
	switch conf.Format {
	case "logfmt":
		encoder = zaplogfmt.NewEncoder(encCfg)
	case "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	default:
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	wss := zapcore.NewMultiWriteSyncer(append(extraWriters, openOutput(conf.Output))...)

	core := zapcore.NewCore(encoder, wss, toZapLogLevel(conf.Level))
	// AddCallerSkip(2) skips log() and the level method.
	zl := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)).Sugar()

	return &ZapLogger{lg: zl}
}

func openOutput(output string) zapcore.WriteSyncer {
	switch output {
	case "", "stderr":
		return zapcore.Lock(os.Stderr)
	case "stdout":
		return zapcore.Lock(os.Stdout)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return zapcore.Lock(os.Stderr)
	}
	file, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return zapcore.Lock(os.Stderr)
	}
	return zapcore.AddSync(file)
}

func (l *ZapLogger) Debug(msg string, keysAndValues ...any) {
	l.log(LevelDebug, msg, keysAndValues...)
}

func (l *ZapLogger) Info(msg string, keysAndValues ...any) {
	l.log(LevelInfo, msg, keysAndValues...)
}

func (l *ZapLogger) Warn(msg string, keysAndValues ...any) {
	l.log(LevelWarn, msg, keysAndValues...)
}

func (l *ZapLogger) Error(msg string, keysAndValues ...any) {
	l.log(LevelError, msg, keysAndValues...)
}

func (l *ZapLogger) Fatal(msg string, keysAndValues ...any) {
	l.log(LevelFatal, msg, keysAndValues...)
}

func (l *ZapLogger) log(level Level, msg string, keysAndValues ...any) {
	l.lg.Logw(toZapLogLevel(level), msg, keysAndValues...)
}

// WithKV returns a new ZapLogger with the key-value pair added to all future log messages.
func (l *ZapLogger) WithKV(key string, value any) Logger {
	kv := make([]any, 0, len(l.keysAndValues)+2)
	kv = append(kv, l.keysAndValues...)
	return &ZapLogger{
		lg:            l.lg.With(key, value),
		keysAndValues: append(kv, key, value),
	}
}

func (l *ZapLogger) GetAllKV() []any {
	return l.keysAndValues
}

// WithName returns a new ZapLogger whose name is extended with a dot-separated segment.
func (l *ZapLogger) WithName(name string) Logger {
	return &ZapLogger{
		lg:            l.lg.Named(name),
		keysAndValues: l.keysAndValues,
	}
}

func (l *ZapLogger) Name() string {
	return l.lg.Desugar().Name()
}

func (l *ZapLogger) AddCallerSkip(skip int) Logger {
	return &ZapLogger{
		lg:            l.lg.WithOptions(zap.AddCallerSkip(skip)),
		keysAndValues: l.keysAndValues,
	}
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.lg.Sync()
}

func toZapLogLevel(logLevel Level) zapcore.Level {
	switch logLevel {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
