package activitylog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestSessionStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")
	l := New(path, "sess-123")
	defer l.Close()

	l.SessionStart("psql mydb", "=> ")

	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}

	var e struct {
		SessionID string `json:"session_id"`
		Event     string `json:"event"`
		Command   string `json:"command"`
		Prompt    string `json:"prompt"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.SessionID != "sess-123" {
		t.Errorf("session_id = %q, want %q", e.SessionID, "sess-123")
	}
	if e.Event != "session_start" {
		t.Errorf("event = %q, want %q", e.Event, "session_start")
	}
	if e.Command != "psql mydb" {
		t.Errorf("command = %q, want %q", e.Command, "psql mydb")
	}
	if e.Prompt != "=> " {
		t.Errorf("prompt = %q, want %q", e.Prompt, "=> ")
	}
}

func TestCommandSentRecordsLengthOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")
	l := New(path, "sess")
	defer l.Close()

	l.CommandSent(len("SELECT secret FROM t"))

	lines := readLines(t, path)
	if strings.Contains(lines[0], "secret") {
		t.Error("command content must not appear in the log")
	}
	var e struct {
		Length int `json:"length"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Length != 20 {
		t.Errorf("length = %d, want 20", e.Length)
	}
}

func TestAppendsAcrossEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")
	l := New(path, "sess")
	defer l.Close()

	l.PromptMatched(42)
	l.CommandSent(7)
	l.SessionEnd("exit")

	lines := readLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
}

func TestNopLoggerIsSafe(t *testing.T) {
	l := Nop()
	l.SessionStart("cmd", "> ")
	l.PromptMatched(0)
	l.HistoryError("boom")
	l.SessionEnd("eof")
	if err := l.Close(); err != nil {
		t.Errorf("Close on nop logger: %v", err)
	}
}

func TestUnwritablePathDegradesToNop(t *testing.T) {
	l := New("/nonexistent/dir/activity.log", "sess")
	defer l.Close()
	l.SessionStart("cmd", "> ") // must not panic
}
