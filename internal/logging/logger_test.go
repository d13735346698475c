package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/studyvault/notesdash/internal/events"
)

func TestCLILoggerWritesConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("cli", &buf, nil)

	l.Infof("loaded %d files", 3)

	out := buf.String()
	if !strings.Contains(out, "loaded 3 files") {
		t.Errorf("output %q missing message", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("cli mode should not write JSON, got %q", out)
	}
}

func TestTUILoggerPublishesWarnings(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()
	ch := bus.Subscribe(events.EventLog)

	var buf bytes.Buffer
	l := NewLogger("tui", &buf, bus)

	l.Info().Msg("quiet")
	l.Warn().Msg("API connection failed")

	select {
	case ev := <-ch:
		le := ev.(*events.LogEvent)
		if le.Level != events.WarnLevel || le.Message != "API connection failed" {
			t.Errorf("unexpected log event %+v", le)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("warning was not published")
	}
	if len(ch) != 0 {
		t.Error("info messages must not be published")
	}
	if !strings.Contains(buf.String(), `"message":"quiet"`) {
		t.Errorf("tui mode should write JSON lines, got %q", buf.String())
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", DefaultLogFile("."))
	l, closer, err := NewFileLogger(path, nil)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	l.Error().Str("op", "delete").Msg("failed")
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"op":"delete"`) {
		t.Errorf("log file content %q", data)
	}
}
