package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitcli/internal/config"
)

func decodeLines(t *testing.T, data []byte) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), "log output is not valid JSON: %s", line)
		entries = append(entries, entry)
	}
	return entries
}

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "logs", "merger.log")
	var console bytes.Buffer

	cfg := config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "both",
		FilePath: logFile,
	}

	logger, err := InitializeLogger(cfg, &console)
	require.NoError(t, err)
	require.NotNil(t, logger)

	_, err = os.Stat(logFile)
	require.NoError(t, err, "log file was not created")

	logger.Info("test message", "key", "value")

	// Close log file to allow reading on Windows
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	for _, out := range [][]byte{content, console.Bytes()} {
		entries := decodeLines(t, out)
		require.Len(t, entries, 1)
		assert.Equal(t, "test message", entries[0]["msg"])
		assert.Equal(t, "value", entries[0]["key"])
		assert.Equal(t, "INFO", entries[0]["level"])
	}
}

func TestInitializeLogger_Once(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	var first, second bytes.Buffer
	l1, err := InitializeLogger(config.LoggingConfig{Level: "info", Output: "console"}, &first)
	require.NoError(t, err)
	l2, err := InitializeLogger(config.LoggingConfig{Level: "debug", Output: "console"}, &second)
	require.NoError(t, err)

	assert.Same(t, l1, l2)
	assert.Same(t, l1, GetLogger())

	l2.Info("only once")
	assert.NotZero(t, first.Len())
	assert.Zero(t, second.Len())
}

func TestInitializeLogger_UnwritableFile(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Output:   "file",
		FilePath: filepath.Join(blocker, "merger.log"),
	}, nil)
	assert.Error(t, err)
}

func TestRunIDInjection(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	var buf bytes.Buffer
	logger, err := InitializeLogger(config.LoggingConfig{Level: "info", Output: "console"}, &buf)
	require.NoError(t, err)

	ctx := WithRunID(context.Background(), "run-123")
	logger.InfoContext(ctx, "with run")
	logger.Info("without run")

	entries := decodeLines(t, buf.Bytes())
	require.Len(t, entries, 2)
	assert.Equal(t, "run-123", entries[0]["run_id"])
	assert.NotContains(t, entries[1], "run_id")
}

func TestRunHandler_KeepsWrappingThroughWith(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	var buf bytes.Buffer
	logger, err := InitializeLogger(config.LoggingConfig{Level: "info", Output: "console"}, &buf)
	require.NoError(t, err)

	child := WithComponent(logger, "merger").WithGroup("stats")
	child.InfoContext(WithRunID(context.Background(), "run-9"), "merged", "rows", 3)

	entries := decodeLines(t, buf.Bytes())
	require.Len(t, entries, 1)
	assert.Equal(t, "merger", entries[0]["component"])
	assert.Contains(t, entries[0], "stats")
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLogLevel(tt.level))
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	var buf bytes.Buffer
	logger, err := InitializeLogger(config.LoggingConfig{Level: "warn", Output: "console"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")

	entries := decodeLines(t, buf.Bytes())
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0]["msg"])
}

func TestContextHelpers(t *testing.T) {
	assert.Empty(t, GetRunID(context.Background()))
	assert.Empty(t, GetRunID(nil)) //nolint:staticcheck

	ctx := EnsureRunID(context.Background())
	runID := GetRunID(ctx)
	assert.Len(t, runID, 36)

	// an existing run ID is kept
	assert.Equal(t, runID, GetRunID(EnsureRunID(ctx)))

	assert.NotEqual(t, GenerateRunID(), GenerateRunID())
}

func TestLoggerHelpers(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	WithError(WithComponent(base, "reader"), errors.New("boom")).Info("failed")
	assert.Same(t, base, WithError(base, nil))

	entries := decodeLines(t, buf.Bytes())
	require.Len(t, entries, 1)
	assert.Equal(t, "reader", entries[0]["component"])
	assert.Equal(t, "boom", entries[0]["error"])

	assert.NotNil(t, WithComponent(nil, "fallback"))
}
