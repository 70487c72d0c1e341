package logging

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

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelInfo, "json")
	log.Info("session finished", "status", "done", "rows", 3)
	log.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "session finished", rec["msg"])
	assert.Equal(t, "done", rec["status"])
	assert.Equal(t, float64(3), rec["rows"])
}

func TestNewWithWriterText(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelWarn, "text")
	log.Info("dropped")
	log.Warn("kept", "k", "v")
	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "msg=kept")
	assert.Contains(t, out, "k=v")
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Error("nothing") })
}

func TestNewPicksHandler(t *testing.T) {
	assert.IsType(t, &slog.JSONHandler{}, New(slog.LevelInfo, "json").Handler())
	assert.IsType(t, &slog.TextHandler{}, New(slog.LevelInfo, "TEXT").Handler())
	assert.IsType(t, &slog.TextHandler{}, New(slog.LevelInfo, "").Handler())
	assert.True(t, New(slog.LevelDebug, "text").Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, New(slog.LevelWarn, "text").Enabled(context.Background(), slog.LevelInfo))
}
