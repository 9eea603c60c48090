package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func noJournal() *bool {
	b := false
	return &b
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"", slog.LevelInfo, true},
		{"debug", slog.LevelDebug, true},
		{"WARN", slog.LevelWarn, true},
		{" error ", slog.LevelError, true},
		{"loud", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err == nil) != tt.ok || (tt.ok && got != tt.want) {
			t.Errorf("%q: got %v, %v", tt.in, got, err)
		}
	}
}

func TestNew_ConsoleJSONWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	log, closeFn, err := New(Options{Level: "info", Console: &buf, Journal: noJournal()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()

	log.Debug("hidden")
	log.Info("moved task", "node_id", "n1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("expected JSON output, got %q", lines[0])
	}
	if rec["msg"] != "moved task" || rec["node_id"] != "n1" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestNew_FansOutToFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "blockboard.log")
	log, closeFn, err := New(Options{Level: "debug", File: path, Console: &buf, Journal: noJournal()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log.Debug("fetched children", "count", 3)
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"msg":"fetched children"`) {
		t.Errorf("expected record in file, got %q", data)
	}
	if !strings.Contains(buf.String(), "fetched children") {
		t.Errorf("expected record on console, got %q", buf.String())
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, _, err := New(Options{Level: "verbose", Journal: noJournal()}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestJournalKey(t *testing.T) {
	if got := journalKey("node_id.sub-key"); got != "NODE_ID_SUB_KEY" {
		t.Errorf("unexpected key %q", got)
	}
}
