package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeLines parses JSON log output, one record per line.
func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func newJSON(t *testing.T, level string) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	t.Cleanup(func() { _ = SetLevel("info") })

	var buf bytes.Buffer
	l, err := New(Config{Level: level, Format: FormatJSON, Output: &buf})
	require.NoError(t, err)
	return l, &buf
}

func TestNew_Formats(t *testing.T) {
	t.Cleanup(func() { _ = SetLevel("info") })

	var buf bytes.Buffer
	l, err := New(Config{Format: "TEXT", Output: &buf})
	require.NoError(t, err)
	l.Info("started", "addr", "127.0.0.1:11211")
	assert.Contains(t, buf.String(), "msg=started addr=127.0.0.1:11211")

	buf.Reset()
	l, err = New(Config{Output: &buf})
	require.NoError(t, err)
	l.Info("started")
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "started", lines[0]["msg"])
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Config{Format: "xml"})
	assert.ErrorContains(t, err, `unknown format "xml"`)

	_, err = New(Config{Level: "loud"})
	assert.ErrorContains(t, err, `unknown level "loud"`)
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newJSON(t, "warn")

	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")

	var msgs []string
	for _, rec := range decodeLines(t, buf) {
		msgs = append(msgs, rec["msg"].(string))
	}
	assert.Equal(t, []string{"w", "e"}, msgs)
}

func TestSetLevel_AffectsExistingLoggers(t *testing.T) {
	l, buf := newJSON(t, "error")
	derived := l.With("component", "binserver")

	derived.Info("hidden")
	assert.Empty(t, buf.String())

	require.NoError(t, SetLevel("DEBUG"))
	assert.Equal(t, "debug", Level())

	derived.Debug("shown")
	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "binserver", lines[0]["component"])

	assert.Error(t, SetLevel("trace"))
	assert.Equal(t, "debug", Level(), "a rejected level leaves the current one")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"Info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.True(t, ValidLevel(tt.in), tt.in)
	}

	for _, bad := range []string{"", "trace", "info+2", "fatal"} {
		_, err := ParseLevel(bad)
		assert.Error(t, err, bad)
		assert.False(t, ValidLevel(bad), bad)
	}
}

func TestLevel_Names(t *testing.T) {
	t.Cleanup(func() { _ = SetLevel("info") })
	for _, name := range []string{"debug", "info", "warn", "error"} {
		require.NoError(t, SetLevel(name))
		assert.Equal(t, name, Level())
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.NotNil(t, cfg.Output)
	assert.False(t, cfg.AddSource)
}

func TestNew_AddSource(t *testing.T) {
	t.Cleanup(func() { _ = SetLevel("info") })

	var buf bytes.Buffer
	l, err := New(Config{Output: &buf, AddSource: true})
	require.NoError(t, err)
	l.InfoContext(context.Background(), "with source")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], slog.SourceKey)
}
