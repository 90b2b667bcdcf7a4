package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWritesJSONWithComponent(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	log := New(&buf, Options{Level: "warn", Format: "json", Component: "console"})
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected only the warn line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if entry["component"] != "console" || entry["message"] != "shown" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["caller"]; ok {
		t.Fatalf("caller should be omitted unless requested")
	}
}

func TestNewAutoFormatIsJSONOffTerminal(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	log := New(&buf, Options{Format: "auto", Caller: true})
	log.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON when not writing to a terminal: %v", err)
	}
	if _, ok := entry["caller"]; !ok {
		t.Fatalf("expected caller field")
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	for _, level := range []string{"", "loud"} {
		if got := parseLevel(level); got != zerolog.InfoLevel {
			t.Fatalf("parseLevel(%q) = %s, want info", level, got)
		}
	}
	if got := parseLevel("debug"); got != zerolog.DebugLevel {
		t.Fatalf("parseLevel(debug) = %s", got)
	}
}
