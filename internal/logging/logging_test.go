package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromString(t *testing.T) {
	cases := map[string]slog.Level{
		"error":   slog.LevelError,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" info ":  slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"":        slog.LevelDebug,
	}
	for in, want := range cases {
		assert.Equal(t, want, levelFromString(in), "level %q", in)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(NewWriter(&buf, "info", "json"), "engine")

	logger.Debug("hidden")
	logger.Info("item evaluated", "item", "gala")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "item evaluated", line["msg"])
	assert.Equal(t, "engine", line["component"])
	assert.Equal(t, "gala", line["item"])
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, "warn", "text").Warn("retrying", "attempt", 2)

	out := buf.String()
	assert.True(t, strings.Contains(out, "level=WARN"))
	assert.True(t, strings.Contains(out, "attempt=2"))
}

func TestComponentNilBase(t *testing.T) {
	assert.NotPanics(t, func() { Component(nil, "x").Info("dropped") })
}
