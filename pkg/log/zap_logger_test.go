package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woonieit/octra/pkg/log"
)

// testWriteSyncer collects every line written by the logger.
type testWriteSyncer struct {
	mu    sync.Mutex
	lines [][]byte
}

func (t *testWriteSyncer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, bytes.Clone(p))
	return len(p), nil
}

func (t *testWriteSyncer) Sync() error { return nil }

func (t *testWriteSyncer) last(tb testing.TB) map[string]any {
	tb.Helper()
	t.mu.Lock()
	defer t.mu.Unlock()
	require.NotEmpty(tb, t.lines)

	entry := map[string]any{}
	require.NoError(tb, json.Unmarshal(t.lines[len(t.lines)-1], &entry))
	return entry
}

func (t *testWriteSyncer) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.lines)
}

func newJSONLogger(t *testing.T, level log.Level) (log.Logger, *testWriteSyncer) {
	t.Helper()
	tws := &testWriteSyncer{}
	dir := t.TempDir()
	logger := log.NewZapLogger(log.Config{
		Format: "json",
		Level:  level,
		Output: filepath.Join(dir, "discard.log"),
	}, tws)
	return logger, tws
}

func TestZapLogger(t *testing.T) {
	logger, tws := newJSONLogger(t, log.LevelDebug)
	logger = logger.WithName("rpc")

	logger.Debug("request finished", "path", "/staging", "status", 200)
	entry := tws.last(t)
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "rpc", entry["logger"])
	assert.Equal(t, "request finished", entry["msg"])
	assert.Equal(t, "/staging", entry["path"])
	assert.EqualValues(t, 200, entry["status"])
	assert.Contains(t, entry["caller"], "log/zap_logger_test.go")

	t.Run("names are hierarchical", func(t *testing.T) {
		child := logger.WithName("balance")
		assert.Equal(t, "rpc.balance", child.Name())
	})

	t.Run("key values persist", func(t *testing.T) {
		withKV := logger.WithKV("address", "oct123").WithKV("nonce", 7)
		assert.Equal(t, []any{"address", "oct123", "nonce", 7}, withKV.GetAllKV())
		assert.Empty(t, logger.GetAllKV())

		withKV.Warn("stale nonce")
		entry := tws.last(t)
		assert.Equal(t, "warn", entry["level"])
		assert.Equal(t, "oct123", entry["address"])
		assert.EqualValues(t, 7, entry["nonce"])
	})
}

func TestZapLoggerLevelFilter(t *testing.T) {
	logger, tws := newJSONLogger(t, log.LevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden")
	assert.Equal(t, 0, tws.count())

	logger.Error("shown", "err", "boom")
	require.Equal(t, 1, tws.count())
	assert.Equal(t, "error", tws.last(t)["level"])
}

func TestZapLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "octra.log")
	logger := log.NewZapLogger(log.Config{Format: "logfmt", Level: log.LevelInfo, Output: path})

	logger.Info("wallet loaded", "address", "oct42")
	require.NoError(t, logger.(*log.ZapLogger).Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "wallet loaded")
	assert.Contains(t, string(data), "address=oct42")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected log.Level
	}{
		{"debug", log.LevelDebug},
		{"DEBUG", log.LevelDebug},
		{"warning", log.LevelWarn},
		{" error ", log.LevelError},
		{"fatal", log.LevelFatal},
		{"", log.LevelInfo},
		{"verbose", log.LevelInfo},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, log.ParseLevel(test.in), test.in)
	}
}

func TestContextLogger(t *testing.T) {
	t.Run("missing logger falls back to noop", func(t *testing.T) {
		assert.Equal(t, "noop", log.FromContext(context.Background()).Name())
	})

	t.Run("nil logger is stored as noop", func(t *testing.T) {
		ctx := log.SetContextLogger(context.Background(), nil)
		assert.Equal(t, log.NewNoopLogger(), log.FromContext(ctx))
	})

	t.Run("stored logger is returned", func(t *testing.T) {
		logger, _ := newJSONLogger(t, log.LevelInfo)
		logger = logger.WithName("client")
		ctx := log.SetContextLogger(context.Background(), logger)
		assert.Equal(t, "client", log.FromContext(ctx).Name())
	})
}
