package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitJSON(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	log := Init(Options{JSON: true, Output: &buf})

	log.Debug("hidden")
	log.Info("evidence registered", "evidence_id", "7_20250101_120000")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "evidence registered", entry["msg"])
	assert.Equal(t, "7_20250101_120000", entry["evidence_id"])
}

func TestInitDebugText(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	Init(Options{Debug: true, Output: &buf})

	slog.Debug("looking for file", "path", "materials/a.png")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "path=materials/a.png")
}

func TestInitTagsApp(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	Init(Options{App: "promoproof", JSON: true, Output: &buf})

	slog.Info("server starting")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "promoproof", entry["app"])
}
