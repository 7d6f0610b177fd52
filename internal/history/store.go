// Package history persists the lines a user has entered so they survive
// across sessions. The store is a newline-delimited text file, appended on
// every accepted line so a crash loses at most the newest entry.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// Store is an append-only command history backed by a file. A single
// session owns the store; an advisory flock guards against a second
// session appending to the same file at the same time.
type Store struct {
	path    string
	f       *os.File
	lock    *flock.Flock
	entries []string
}

// Open loads the history at path, creating parent directories as needed.
// A missing file is an empty history, not an error. If the advisory lock
// is already held by another process the store still opens; locking is a
// courtesy, not a requirement.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	s := &Store{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open history file: %w", err)
	}
	s.f = f

	s.lock = flock.New(path + ".lock")
	if ok, err := s.lock.TryLock(); err != nil || !ok {
		s.lock = nil
	}
	return s, nil
}

func (s *Store) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read history file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		s.entries = append(s.entries, unescape(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan history file: %w", err)
	}
	return nil
}

// Entries returns the stored lines, oldest first. The returned slice is
// shared; callers must not modify it.
func (s *Store) Entries() []string {
	return s.entries
}

// Append adds line to the history and persists it immediately. The
// in-memory sequence is updated even when the write fails, so the session
// keeps its history for autosuggestion either way.
func (s *Store) Append(line string) error {
	s.entries = append(s.entries, line)
	if s.f == nil {
		return nil
	}
	if _, err := s.f.WriteString(escape(line) + "\n"); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// Clear truncates the persisted history and empties the in-memory sequence.
func (s *Store) Clear() error {
	s.entries = nil
	if s.f == nil {
		return nil
	}
	if err := s.f.Truncate(0); err != nil {
		return fmt.Errorf("truncate history: %w", err)
	}
	return nil
}

// Path returns the backing file's path.
func (s *Store) Path() string {
	return s.path
}

// Close releases the file and the advisory lock.
func (s *Store) Close() error {
	if s.lock != nil {
		s.lock.Unlock()
	}
	if s.f == nil {
		return nil
	}
	return s.f.Close()
}

// Multi-line entries are stored on a single line so the file stays one
// entry per line.

func escape(line string) string {
	line = strings.ReplaceAll(line, `\`, `\\`)
	return strings.ReplaceAll(line, "\n", `\n`)
}

func unescape(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	for i := 0; i < len(line); i++ {
		if line[i] == '\\' && i+1 < len(line) {
			switch line[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(line[i])
	}
	return b.String()
}
