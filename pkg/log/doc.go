// Package log provides the structured logger used across the octra client.
//
// Components receive a Logger explicitly or pull one out of a context with
// FromContext. Two implementations exist:
//
//   - ZapLogger: backed by go.uber.org/zap, writing console, logfmt or json
//   - NoopLogger: discards everything, handy in tests
//
// # Basic Usage
//
//	logger := log.NewZapLogger(log.Config{Format: "logfmt", Level: log.LevelDebug})
//	logger = logger.WithName("rpc").WithKV("node", "https://octra.network")
//	logger.Info("request finished", "path", "/staging", "status", 200)
//
// # Interactive sessions
//
// The interactive shell owns the terminal, so it points Output at a file in
// the config directory. Any path other than "stderr" or "stdout" is treated as
// a file and its parent directory is created on demand.
//
// # Environment Configuration
//
//   - LOG_FORMAT: console, logfmt or json
//   - LOG_LEVEL: debug, info, warn, error, fatal
//   - LOG_OUTPUT: stderr, stdout or a file path
package log
