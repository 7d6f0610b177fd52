// Package driver spawns the target program under a pseudo-terminal and
// exposes the two operations the session loop needs: a blocking read that
// accumulates output until the prompt pattern appears, and a line write.
package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/creack/pty"
)

// ErrEndOfStream reports that the target closed its output before the
// prompt pattern was seen. It is an expected terminal condition, not a
// failure.
var ErrEndOfStream = errors.New("target closed its output stream")

// ErrBrokenPipe reports that the target's input was closed when a send was
// attempted. Treated the same as ErrEndOfStream by callers.
var ErrBrokenPipe = errors.New("target closed its input stream")

// SpawnError reports that the target could not be started at all.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %q: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Handle is a running target process attached to a PTY.
type Handle struct {
	cmd *exec.Cmd
	ptm *os.File

	// out is the stream WaitForPrompt consumes. It is the PTY master in
	// real sessions; tests substitute an in-memory reader.
	out io.Reader

	// pending holds bytes read past the last prompt match. A single read
	// can deliver a prompt with more output behind it; those bytes seed
	// the next WaitForPrompt instead of being lost.
	pending []byte

	closeOnce sync.Once
	closeErr  error
}

// Spawn starts argv[0] with the remaining argv as arguments, attached to a
// new pseudo-terminal, in workingDir (empty means inherit). The PTY keeps
// its default line discipline so the target behaves as it would on a real
// terminal.
func Spawn(argv []string, workingDir string) (*Handle, error) {
	if len(argv) == 0 {
		return nil, &SpawnError{Command: "", Err: errors.New("empty command")}
	}
	if workingDir != "" {
		if info, err := os.Stat(workingDir); err != nil || !info.IsDir() {
			return nil, &SpawnError{Command: argv[0], Err: fmt.Errorf("invalid working directory %q", workingDir)}
		}
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = workingDir
	ptm, err := pty.Start(cmd)
	if err != nil {
		return nil, &SpawnError{Command: argv[0], Err: err}
	}
	return &Handle{cmd: cmd, ptm: ptm, out: ptm}, nil
}

// WaitForPrompt blocks, accumulating target output, until the stream's
// tail matches the pattern. It returns everything read before the match;
// the match itself is consumed, and output read past it is kept for the
// next call. Invalid UTF-8 is replaced, never fatal. If the stream closes
// first, the output read so far is returned together with ErrEndOfStream.
func (h *Handle) WaitForPrompt(pattern Pattern) (string, error) {
	if pattern.isZero() {
		return "", errors.New("empty prompt pattern")
	}

	m := NewMatcher(pattern)
	var collected []byte

	// Bytes left over from the previous match are consumed first; the
	// prompt may already be among them.
	if len(h.pending) > 0 {
		seed := h.pending
		h.pending = nil
		emitted, matched := m.Feed(seed)
		collected = append(collected, emitted...)
		if matched {
			h.pending = append([]byte(nil), m.Pending()...)
			return decode(collected), nil
		}
	}

	buf := make([]byte, 4096)
	for {
		n, err := h.out.Read(buf)
		if n > 0 {
			emitted, matched := m.Feed(buf[:n])
			collected = append(collected, emitted...)
			if matched {
				h.pending = append([]byte(nil), m.Pending()...)
				return decode(collected), nil
			}
		}
		if err != nil {
			// A closing PTY surfaces as EIO on Linux rather than
			// a clean EOF; both mean the target is gone.
			collected = append(collected, m.Pending()...)
			return decode(collected), ErrEndOfStream
		}
	}
}

// Send writes text followed by a newline to the target's input.
func (h *Handle) Send(text string) error {
	if _, err := io.WriteString(h.ptm, text+"\n"); err != nil {
		return fmt.Errorf("%w: %v", ErrBrokenPipe, err)
	}
	return nil
}

// Close terminates the target if it is still running and releases the
// pseudo-terminal. Safe to call more than once; the PTY is closed exactly
// once.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		if h.cmd != nil && h.cmd.Process != nil {
			h.cmd.Process.Kill()
			h.cmd.Wait()
		}
		if h.ptm != nil {
			h.closeErr = h.ptm.Close()
		}
	})
	return h.closeErr
}

// decode converts raw target output to text, replacing invalid UTF-8
// sequences so a binary-polluted stream cannot kill the session.
func decode(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
