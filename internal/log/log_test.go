package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelDebug})

	logger.Debug("hello", "key", "value")

	got := buf.String()
	if !strings.Contains(got, "hello") {
		t.Errorf("log output = %q, want contains %q", got, "hello")
	}
	if !strings.Contains(got, "key=value") {
		t.Errorf("log output = %q, want contains %q", got, "key=value")
	}
}

func TestNewWithWriter_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{JSON: true})

	logger.Info("hello")

	got := buf.String()
	if !strings.Contains(got, `"msg":"hello"`) {
		t.Errorf("log output = %q, want JSON with msg field", got)
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelWarn})

	logger.Info("filtered")
	logger.Warn("kept")

	got := buf.String()
	if strings.Contains(got, "filtered") {
		t.Errorf("log output = %q, info should be filtered at warn level", got)
	}
	if !strings.Contains(got, "kept") {
		t.Errorf("log output = %q, want contains %q", got, "kept")
	}
}

func TestNewNop_DiscardsOutput(t *testing.T) {
	logger := NewNop()
	// Must not panic; output goes nowhere.
	logger.Error("discarded", "key", "value")
}
