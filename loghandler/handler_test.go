package loghandler

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestHandleRendersTagPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCompactHandler(&buf, slog.LevelInfo))

	logger.Info("room created", "tag", "api", "room", "1234")

	line := buf.String()
	if !strings.Contains(line, "[api] room created room=1234") {
		t.Errorf("unexpected line: %q", line)
	}
	if strings.Contains(line, "tag=") {
		t.Errorf("tag must not be repeated as key=value: %q", line)
	}
}

func TestWithAttrsCarriesBoundAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCompactHandler(&buf, slog.LevelInfo)).With("tag", "ws", "conn", "7")

	logger.Info("client connected", "total", "3")

	line := buf.String()
	if !strings.Contains(line, "[ws] client connected conn=7 total=3") {
		t.Errorf("bound attributes dropped: %q", line)
	}
}

func TestEnabledFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCompactHandler(&buf, slog.LevelInfo))

	logger.Debug("noise")
	if buf.Len() != 0 {
		t.Errorf("debug record should be filtered, got %q", buf.String())
	}
}
