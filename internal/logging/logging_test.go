package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"error":   slog.LevelError,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"info":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"":        slog.LevelDebug,
	}
	for input, want := range cases {
		if got := levelFromString(input); got != want {
			t.Fatalf("levelFromString(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "json")
	logger.Debug("hidden")
	logger.Info("brief generated", "items", 3)

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug record leaked at info level: %s", line)
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("expected JSON record, got %q: %v", line, err)
	}
	if record["msg"] != "brief generated" {
		t.Fatalf("unexpected msg: %v", record["msg"])
	}
}

func TestNewWithWriterText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewWithWriter(&buf, "debug", "text").Debug("fetch", "source", "hn")

	if !strings.Contains(buf.String(), "source=hn") {
		t.Fatalf("unexpected text output: %s", buf.String())
	}
}
