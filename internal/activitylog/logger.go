// Package activitylog writes structured JSONL entries describing what a
// session did: when it started, when the target's prompt was matched, when
// commands were forwarded, and how it ended. Logging is best-effort and
// disabled unless a log path is configured.
package activitylog

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// Logger appends JSONL entries to a log file. All methods are safe for
// concurrent use. When disabled (w is nil), all methods are no-ops.
type Logger struct {
	mu        sync.Mutex
	w         *os.File
	sessionID string
}

// New creates a Logger that appends to logPath. If logPath is empty or the
// file cannot be opened, returns a no-op logger (safe to call methods on).
func New(logPath, sessionID string) *Logger {
	if logPath == "" {
		return &Logger{}
	}
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &Logger{}
	}
	return &Logger{w: f, sessionID: sessionID}
}

// Nop returns a disabled logger. All methods are no-ops.
func Nop() *Logger {
	return &Logger{}
}

// entry is the common envelope for all log lines.
type entry struct {
	Timestamp string `json:"ts"`
	SessionID string `json:"session_id"`
	Event     string `json:"event"`
}

// SessionStart logs the target command and prompt pattern at startup.
func (l *Logger) SessionStart(command, prompt string) {
	l.log(struct {
		entry
		Command string `json:"command"`
		Prompt  string `json:"prompt"`
	}{
		entry:   l.entry("session_start"),
		Command: command,
		Prompt:  prompt,
	})
}

// PromptMatched logs a successful prompt match and how much output preceded it.
func (l *Logger) PromptMatched(outputBytes int) {
	l.log(struct {
		entry
		OutputBytes int `json:"output_bytes"`
	}{
		entry:       l.entry("prompt_matched"),
		OutputBytes: outputBytes,
	})
}

// CommandSent logs that a command was forwarded to the target. Only the
// length is recorded; command content never reaches the log.
func (l *Logger) CommandSent(length int) {
	l.log(struct {
		entry
		Length int `json:"length"`
	}{
		entry:  l.entry("command_sent"),
		Length: length,
	})
}

// HistoryError logs a failed history append. The session continues.
func (l *Logger) HistoryError(errMsg string) {
	l.log(struct {
		entry
		Error string `json:"error"`
	}{
		entry: l.entry("history_error"),
		Error: errMsg,
	})
}

// SessionEnd logs why the session terminated (exit, editor, eof).
func (l *Logger) SessionEnd(reason string) {
	l.log(struct {
		entry
		Reason string `json:"reason"`
	}{
		entry:  l.entry("session_end"),
		Reason: reason,
	})
}

// Close closes the underlying file.
func (l *Logger) Close() error {
	if l.w == nil {
		return nil
	}
	return l.w.Close()
}

func (l *Logger) entry(event string) entry {
	return entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		SessionID: l.sessionID,
		Event:     event,
	}
}

func (l *Logger) log(v any) {
	if l.w == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(append(data, '\n'))
}
