// Package session owns the orchestration loop: wait for the target's
// prompt, show what came before it, collect one command from the editor,
// forward it, repeat. Exactly one side is ever waited on: the loop is a
// strict ping-pong, never a pipeline, because sending input before the
// prompt is confirmed would desynchronize prompt detection.
package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"rpl/internal/activitylog"
	"rpl/internal/driver"
	"rpl/internal/editor"
	"rpl/internal/termstyle"
)

// State names the loop's position in the alternating protocol.
type State int

const (
	AwaitingPrompt State = iota
	AwaitingInput
	Terminated
)

// Target is the process side of the session (implemented by driver.Handle).
type Target interface {
	WaitForPrompt(pattern driver.Pattern) (string, error)
	Send(text string) error
	Close() error
}

// LineReader is the user side (implemented by editor.Editor).
type LineReader interface {
	ReadLine() (string, error)
}

// Session drives one target process and one editor until either side ends.
type Session struct {
	ID      string
	Pattern driver.Pattern
	Target  Target
	Editor  LineReader

	// Out receives the target's pre-prompt output and session messages.
	// Defaults to os.Stdout.
	Out io.Writer
	// Log records session activity; nil means no logging.
	Log *activitylog.Logger

	state State
}

// New creates a session with a fresh ID.
func New(pattern driver.Pattern, target Target, ed LineReader) *Session {
	return &Session{
		ID:      uuid.New().String(),
		Pattern: pattern,
		Target:  target,
		Editor:  ed,
	}
}

// State returns the loop's current state.
func (s *Session) State() State {
	return s.state
}

// Run executes the alternating protocol until termination. The target is
// released exactly once on every exit path. The returned error is nil for
// all expected endings (exit line, editor exit action, target stream
// closing); only editor I/O failures surface.
func (s *Session) Run() error {
	defer s.Target.Close()

	out := s.Out
	if out == nil {
		out = os.Stdout
	}
	log := s.Log
	if log == nil {
		log = activitylog.Nop()
	}

	reason := ""
	s.state = AwaitingPrompt
	for {
		switch s.state {
		case AwaitingPrompt:
			pre, err := s.Target.WaitForPrompt(s.Pattern)
			s.printOutput(out, pre)
			if err != nil {
				// End of stream: the target is done. Anything else
				// from a PTY read means the same thing.
				s.state = Terminated
				reason = "eof"
				continue
			}
			log.PromptMatched(len(pre))
			s.state = AwaitingInput

		case AwaitingInput:
			line, err := s.Editor.ReadLine()
			if err != nil {
				if errors.Is(err, editor.ErrSessionEnd) {
					s.state = Terminated
					reason = "editor"
					continue
				}
				s.state = Terminated
				s.finish(out, log, "error")
				return err
			}
			// The literal "exit" is a termination sentinel; it is
			// swallowed rather than forwarded. Closing the PTY
			// delivers EOF to the target, which shuts it down.
			if line == "exit" {
				s.state = Terminated
				reason = "exit"
				continue
			}
			if err := s.Target.Send(line); err != nil {
				s.state = Terminated
				reason = "eof"
				continue
			}
			log.CommandSent(len(line))
			s.state = AwaitingPrompt

		case Terminated:
			s.finish(out, log, reason)
			return nil
		}
	}
}

// printOutput shows the target's pre-prompt output, trimmed of the
// trailing prompt whitespace and the echo of the previous command's
// carriage returns.
func (s *Session) printOutput(out io.Writer, pre string) {
	pre = strings.ReplaceAll(pre, "\r\n", "\n")
	pre = strings.TrimSpace(pre)
	if pre == "" {
		return
	}
	fmt.Fprintln(out, pre)
}

func (s *Session) finish(out io.Writer, log *activitylog.Logger, reason string) {
	s.Target.Close()
	log.SessionEnd(reason)
	fmt.Fprintln(out, termstyle.Dim("Session closed."))
}
