package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewDefaultLogger(&buf, slog.LevelDebug)

	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warn message")
	log.Error("error message")

	out := buf.String()
	assert.Contains(t, out, "debug message")
	assert.Contains(t, out, "info message")
	assert.Contains(t, out, colorYellow)
	assert.Contains(t, out, colorRed)
}

func TestColorHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewDefaultLogger(&buf, slog.LevelWarn)

	log.Info("hidden")
	log.Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestColorHandlerAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := NewDefaultLogger(&buf, slog.LevelInfo).With("doc_id", "abc-123")

	log.Info("persisting chunk", "index", 2)

	out := buf.String()
	assert.Contains(t, out, "doc_id=abc-123")
	assert.Contains(t, out, "index=2")
	assert.Contains(t, out, colorGreen, "persistence messages are highlighted")
}
