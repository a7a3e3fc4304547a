package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})
	defer Init(Config{})

	l := For("test")
	l.Info().Msg("dropped")
	l.Warn().Msg("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("warn message should pass at warn level")
	}
}

func TestForAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Output: &buf})
	defer Init(Config{})

	l := For("sandbox")
	l.Info().Msg("hello")
	if !strings.Contains(buf.String(), `"component":"sandbox"`) {
		t.Errorf("expected component field, got %s", buf.String())
	}
}

func TestBadLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "nope", Output: &buf})
	defer Init(Config{})

	l := Get()
	l.Debug().Msg("dropped")
	l.Info().Msg("kept")

	if strings.Contains(buf.String(), "dropped") {
		t.Error("debug should be filtered when level falls back to info")
	}
}
