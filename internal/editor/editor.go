// Package editor reads one command from the user with history
// autosuggestion, syntax highlighting, Emacs/Vi key vocabularies, and
// optional multi-line entry. It is the interactive half of the session
// loop; the raw-mode discipline and byte-dispatch structure follow the
// wrapper this project grew out of.
package editor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"rpl/internal/highlight"
	"rpl/internal/history"
	"rpl/internal/termstyle"
)

// ErrSessionEnd reports that the user issued the explicit exit action.
// It is a normal termination signal, not a failure.
var ErrSessionEnd = errors.New("session end requested")

// Editor collects lines from an interactive terminal.
type Editor struct {
	Prompt    string
	Multiline bool
	Mode      EditMode
	Tokenize  highlight.Tokenizer
	History   *history.Store

	// OnHistoryError is called when persisting an accepted line fails.
	// History is best-effort; the entry is still returned.
	OnHistoryError func(error)

	// In is the keyboard; defaults to os.Stdin. Must be a terminal.
	In *os.File
	// Out is where the editor renders; defaults to os.Stdout.
	Out io.Writer

	lastRows int
}

// ReadLine displays the prompt and collects one entry. In multi-line mode
// Enter inserts a new line and Alt-Enter submits the whole buffer. It
// returns ErrSessionEnd when the user ends the session (Ctrl-D on an
// empty buffer, or F10). The terminal is restored on every return path.
func (e *Editor) ReadLine() (string, error) {
	in := e.In
	if in == nil {
		in = os.Stdin
	}
	out := e.Out
	if out == nil {
		out = os.Stdout
	}
	if e.Tokenize == nil {
		e.Tokenize = highlight.Plain
	}

	fd := int(in.Fd())
	restore, err := term.MakeRaw(fd)
	if err != nil {
		return "", fmt.Errorf("set raw mode (is stdin a terminal?): %w", err)
	}
	defer term.Restore(fd, restore)

	var snapshot []string
	if e.History != nil {
		snapshot = e.History.Entries()
	}
	st := NewState(e.Mode, e.Multiline, snapshot)
	// The mode toggle outlives a single entry.
	defer func() { e.Mode = st.Mode() }()

	e.lastRows = 0
	e.render(out, st)

	buf := make([]byte, 256)
	var pending []byte
	for {
		n, err := in.Read(buf)
		if err != nil {
			e.finish(out, st)
			return "", fmt.Errorf("read input: %w", err)
		}
		var keys []Key
		keys, pending = decodeInput(pending, buf[:n])

		for _, k := range keys {
			switch st.Apply(k) {
			case EventSubmit:
				e.finish(out, st)
				text := st.Text()
				if text != "" && e.History != nil {
					if err := e.History.Append(text); err != nil && e.OnHistoryError != nil {
						e.OnHistoryError(err)
					}
				}
				return text, nil
			case EventEnd:
				e.finish(out, st)
				return "", ErrSessionEnd
			}
		}
		e.render(out, st)
	}
}

// finish moves the cursor past the edit region and erases the toolbar so
// the target's next output starts on a clean line.
func (e *Editor) finish(out io.Writer, st *State) {
	var b bytes.Buffer
	row, _ := st.Cursor()
	// Down from the cursor row to the toolbar row, then wipe it.
	if down := e.lastRows - 1 - row; down > 0 {
		fmt.Fprintf(&b, "\033[%dB", down)
	}
	b.WriteString("\r\033[2K")
	out.Write(b.Bytes())
}

// render redraws the edit region in place: buffer lines (prompt or dot
// continuation prefix), the dim autosuggestion, and the mode toolbar.
func (e *Editor) render(out io.Writer, st *State) {
	width := e.width()
	promptW := len([]rune(e.Prompt))

	lines := st.Lines()
	row, col := st.Cursor()
	sug := st.Suggestion()

	var b bytes.Buffer
	b.WriteString("\033[?25l")
	if e.lastRows > 1 {
		fmt.Fprintf(&b, "\033[%dA", e.lastRows-1)
	}
	b.WriteString("\r")

	styled := e.styledLines(strings.Join(lines, "\n"), len(lines))
	for i := range lines {
		b.WriteString("\033[2K")
		if i == 0 {
			b.WriteString(termstyle.Cyan(e.Prompt))
		} else {
			b.WriteString(termstyle.Dim(strings.Repeat(".", promptW)))
		}
		writeSpans(&b, styled[i], width-promptW-1)
		if i == len(lines)-1 && sug != "" {
			b.WriteString(termstyle.Dim(firstLine(sug)))
		}
		b.WriteString("\r\n")
	}

	b.WriteString("\033[2K\033[7m\033[2m [F4] " + st.ModeLabel() + " \033[0m")
	// Wipe rows left over from a taller previous buffer.
	b.WriteString("\033[J")

	rows := len(lines) + 1
	if up := rows - 1 - row; up > 0 {
		fmt.Fprintf(&b, "\033[%dA", up)
	}
	b.WriteString("\r")
	if cursorCol := promptW + col; cursorCol > 0 {
		fmt.Fprintf(&b, "\033[%dC", cursorCol)
	}
	b.WriteString("\033[?25h")

	e.lastRows = rows
	out.Write(b.Bytes())
}

// styledLines tokenizes the whole buffer once and splits the spans back
// into per-line runs, so multi-line constructs highlight correctly.
func (e *Editor) styledLines(text string, n int) [][]highlight.Span {
	out := make([][]highlight.Span, n)
	i := 0
	for _, span := range e.Tokenize(text) {
		for {
			nl := strings.IndexByte(span.Text, '\n')
			if nl < 0 {
				if span.Text != "" {
					out[i] = append(out[i], span)
				}
				break
			}
			if nl > 0 {
				out[i] = append(out[i], highlight.Span{Text: span.Text[:nl], Style: span.Style})
			}
			span.Text = span.Text[nl+1:]
			if i < n-1 {
				i++
			}
		}
	}
	return out
}

// writeSpans renders spans, truncating to the available width so cursor
// arithmetic stays valid on one screen row.
func writeSpans(b *bytes.Buffer, spans []highlight.Span, avail int) {
	for _, s := range spans {
		if avail <= 0 {
			return
		}
		runes := []rune(s.Text)
		if len(runes) > avail {
			runes = runes[:avail]
		}
		avail -= len(runes)
		if s.Style != "" {
			b.WriteString(s.Style)
			b.WriteString(string(runes))
			b.WriteString("\033[0m")
		} else {
			b.WriteString(string(runes))
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + "…"
	}
	return s
}

func (e *Editor) width() int {
	in := e.In
	if in == nil {
		in = os.Stdin
	}
	if w, _, err := term.GetSize(int(in.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}
