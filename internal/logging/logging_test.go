package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, slog.LevelError, levelFromString("ERROR"))
	assert.Equal(t, slog.LevelWarn, levelFromString(" warning "))
	assert.Equal(t, slog.LevelInfo, levelFromString(""))
	assert.Equal(t, slog.LevelDebug, levelFromString("trace"))
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("run advanced", "run_id", "r1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run advanced", entry["msg"])
	assert.Equal(t, "r1", entry["run_id"])
	assert.Equal(t, "ainewsagent", entry["service"])
}

func TestNewWithWriter_TextIsDefault(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "debug", "").Debug("hello")

	assert.Contains(t, buf.String(), "msg=hello")
}
