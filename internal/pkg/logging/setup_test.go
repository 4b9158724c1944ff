package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/parlaybot/internal/pkg/config"
)

func TestNewLogger_FansOut(t *testing.T) {
	var text, js bytes.Buffer
	logger := NewLogger(&text, &js, slog.LevelInfo).With("service", "analyzer")

	logger.Debug("hidden")
	logger.Warn("model degraded", "model", "fallback")

	assert.NotContains(t, text.String(), "hidden")
	assert.Contains(t, text.String(), "model=fallback")
	assert.Contains(t, text.String(), "service=analyzer")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &entry))
	assert.Equal(t, "model degraded", entry["msg"])
	assert.Equal(t, "fallback", entry["model"])
	assert.Equal(t, "WARN", entry["level"])
}

func TestMultiHandler_WithGroup(t *testing.T) {
	var text bytes.Buffer
	logger := NewLogger(&text, nil, slog.LevelDebug).WithGroup("fixture")
	logger.Debug("evaluated", "id", 42)

	assert.Contains(t, text.String(), "fixture.id=42")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSetupLogger_File(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "analyzer.log")
	logger, err := SetupLogger(&config.LoggingConfig{Level: "info", File: path}, "analyzer")
	require.NoError(t, err)

	logger.Info("started")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"service":"analyzer"`)

	_, err = SetupLogger(&config.LoggingConfig{Level: "loud"}, "analyzer")
	assert.Error(t, err)
}
