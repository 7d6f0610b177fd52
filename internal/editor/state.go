package editor

import (
	"strings"
	"unicode"
)

// EditMode selects the key-chord vocabulary.
type EditMode int

const (
	ModeEmacs EditMode = iota
	ModeVi
)

// Event tells the caller what a key press concluded.
type Event int

const (
	// EventNone: keep collecting input.
	EventNone Event = iota
	// EventSubmit: the entry is finished; read it with Text.
	EventSubmit
	// EventEnd: the user asked to end the session.
	EventEnd
	// EventCancel: the entry was discarded and the state reset.
	EventCancel
)

// State is the editor's pure editing state: the pending buffer, cursor,
// mode, and history walk position. It performs no I/O, so every behavior
// is testable without a terminal.
type State struct {
	lines [][]rune
	row   int
	col   int

	mode      EditMode
	viNormal  bool
	viPending rune // first key of a two-key vi command (dd)

	multiline bool

	history []string
	histIdx int // -1 while typing a new entry
	saved   string
}

// NewState creates a clean editing state over the given history snapshot.
func NewState(mode EditMode, multiline bool, history []string) *State {
	return &State{
		lines:     [][]rune{{}},
		mode:      mode,
		multiline: multiline,
		history:   history,
		histIdx:   -1,
	}
}

// Reset discards the pending buffer and history walk but keeps the mode.
func (s *State) Reset() {
	s.lines = [][]rune{{}}
	s.row, s.col = 0, 0
	s.viNormal = false
	s.viPending = 0
	s.histIdx = -1
	s.saved = ""
}

// Text returns the buffer joined by newlines.
func (s *State) Text() string {
	parts := make([]string, len(s.lines))
	for i, l := range s.lines {
		parts[i] = string(l)
	}
	return strings.Join(parts, "\n")
}

// Lines returns the buffer lines for rendering.
func (s *State) Lines() []string {
	parts := make([]string, len(s.lines))
	for i, l := range s.lines {
		parts[i] = string(l)
	}
	return parts
}

// Cursor returns the cursor position as (line, column) in runes.
func (s *State) Cursor() (row, col int) {
	return s.row, s.col
}

// Mode returns the active editing-mode variant.
func (s *State) Mode() EditMode {
	return s.mode
}

// ModeLabel names the active mode for the status indicator.
func (s *State) ModeLabel() string {
	if s.mode == ModeVi {
		if s.viNormal {
			return "Vi (normal)"
		}
		return "Vi"
	}
	return "Emacs"
}

// Suggestion returns the remainder of the most recent history entry that
// extends the current buffer, or "". Only offered while the cursor sits
// at the very end of the buffer.
func (s *State) Suggestion() string {
	if !s.cursorAtEnd() {
		return ""
	}
	text := s.Text()
	if text == "" {
		return ""
	}
	for i := len(s.history) - 1; i >= 0; i-- {
		h := s.history[i]
		if h != text && strings.HasPrefix(h, text) {
			return h[len(text):]
		}
	}
	return ""
}

// Apply processes one key event and reports what it concluded.
func (s *State) Apply(k Key) Event {
	switch k.Kind {
	case KeyCtrlC:
		s.Reset()
		return EventCancel
	case KeyCtrlD:
		if s.Text() == "" {
			return EventEnd
		}
		s.deleteAtCursor()
		return EventNone
	case KeyF10:
		return EventEnd
	case KeyF4:
		s.toggleMode()
		return EventNone
	case KeyAltEnter:
		return EventSubmit
	case KeyEnter:
		if s.multiline {
			s.insertLineBreak()
			return EventNone
		}
		return EventSubmit
	}

	if s.mode == ModeVi && s.viNormal {
		s.applyViNormal(k)
		return EventNone
	}
	s.applyInsert(k)
	return EventNone
}

func (s *State) applyInsert(k Key) {
	switch k.Kind {
	case KeyEsc:
		if s.mode == ModeVi {
			s.viNormal = true
			s.clampViCol()
		}
	case KeyRune:
		s.insertRune(k.Rune)
	case KeyTab:
		for i := 0; i < 4; i++ {
			s.insertRune(' ')
		}
	case KeyBackspace:
		s.backspace()
	case KeyDelete:
		s.deleteAtCursor()
	case KeyLeft, KeyCtrlB:
		s.moveLeft()
	case KeyRight, KeyCtrlF:
		s.moveRightOrAccept()
	case KeyUp:
		s.moveUp()
	case KeyDown:
		s.moveDown()
	case KeyHome, KeyCtrlA:
		s.col = 0
	case KeyEnd, KeyCtrlE:
		s.col = len(s.lines[s.row])
	case KeyCtrlK:
		s.lines[s.row] = s.lines[s.row][:s.col]
	case KeyCtrlU:
		s.lines[s.row] = append([]rune{}, s.lines[s.row][s.col:]...)
		s.col = 0
	case KeyCtrlW:
		s.deleteWordBack()
	}
}

func (s *State) applyViNormal(k Key) {
	if k.Kind != KeyRune {
		s.viPending = 0
		// Arrows and chords work in normal mode too.
		s.applyInsert(k)
		return
	}

	if s.viPending == 'd' {
		s.viPending = 0
		if k.Rune == 'd' {
			s.deleteCurrentLine()
		}
		return
	}

	switch k.Rune {
	case 'h':
		s.moveLeft()
	case 'l':
		s.moveRightOrAccept()
	case 'k':
		s.moveUp()
	case 'j':
		s.moveDown()
	case '0':
		s.col = 0
	case '$':
		s.col = len(s.lines[s.row])
		s.clampViCol()
	case 'x':
		s.deleteAtCursor()
		s.clampViCol()
	case 'w':
		s.moveWordForward()
	case 'b':
		s.moveWordBack()
	case 'i':
		s.viNormal = false
	case 'a':
		s.viNormal = false
		if s.col < len(s.lines[s.row]) {
			s.col++
		}
	case 'I':
		s.viNormal = false
		s.col = 0
	case 'A':
		s.viNormal = false
		s.col = len(s.lines[s.row])
	case 'd':
		s.viPending = 'd'
	}
}

func (s *State) toggleMode() {
	if s.mode == ModeEmacs {
		s.mode = ModeVi
	} else {
		s.mode = ModeEmacs
	}
	s.viNormal = false
	s.viPending = 0
}

func (s *State) insertRune(r rune) {
	line := s.lines[s.row]
	line = append(line[:s.col:s.col], append([]rune{r}, line[s.col:]...)...)
	s.lines[s.row] = line
	s.col++
	s.histIdx = -1
}

func (s *State) insertLineBreak() {
	line := s.lines[s.row]
	before := append([]rune{}, line[:s.col]...)
	after := append([]rune{}, line[s.col:]...)
	s.lines[s.row] = before
	rest := append([][]rune{after}, s.lines[s.row+1:]...)
	s.lines = append(s.lines[:s.row+1], rest...)
	s.row++
	s.col = 0
}

func (s *State) backspace() {
	if s.col > 0 {
		line := s.lines[s.row]
		s.lines[s.row] = append(line[:s.col-1], line[s.col:]...)
		s.col--
		return
	}
	if s.row > 0 {
		prev := s.lines[s.row-1]
		s.col = len(prev)
		s.lines[s.row-1] = append(prev, s.lines[s.row]...)
		s.lines = append(s.lines[:s.row], s.lines[s.row+1:]...)
		s.row--
	}
}

func (s *State) deleteAtCursor() {
	line := s.lines[s.row]
	if s.col < len(line) {
		s.lines[s.row] = append(line[:s.col:s.col], line[s.col+1:]...)
		return
	}
	if s.row < len(s.lines)-1 {
		s.lines[s.row] = append(line, s.lines[s.row+1]...)
		s.lines = append(s.lines[:s.row+1], s.lines[s.row+2:]...)
	}
}

func (s *State) deleteCurrentLine() {
	if len(s.lines) == 1 {
		s.lines[0] = []rune{}
		s.col = 0
		return
	}
	s.lines = append(s.lines[:s.row], s.lines[s.row+1:]...)
	if s.row >= len(s.lines) {
		s.row = len(s.lines) - 1
	}
	s.clampViCol()
}

func (s *State) deleteWordBack() {
	line := s.lines[s.row]
	i := s.col
	for i > 0 && unicode.IsSpace(line[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(line[i-1]) {
		i--
	}
	s.lines[s.row] = append(line[:i:i], line[s.col:]...)
	s.col = i
}

func (s *State) moveLeft() {
	if s.col > 0 {
		s.col--
		return
	}
	if s.row > 0 {
		s.row--
		s.col = len(s.lines[s.row])
	}
}

// moveRightOrAccept moves the cursor right; at the very end of the buffer
// it accepts the pending autosuggestion instead, copying it into the
// buffer without submitting.
func (s *State) moveRightOrAccept() {
	if s.cursorAtEnd() {
		if sug := s.Suggestion(); sug != "" {
			s.acceptSuggestion(sug)
		}
		return
	}
	if s.col < len(s.lines[s.row]) {
		s.col++
		return
	}
	if s.row < len(s.lines)-1 {
		s.row++
		s.col = 0
	}
}

func (s *State) acceptSuggestion(sug string) {
	// The cursor is at the end of the buffer, so accepting is a rebuild
	// with the suggestion appended; the cursor lands at the new end.
	s.rebuildFromText(s.Text() + sug)
}

func (s *State) moveUp() {
	if s.row > 0 {
		s.row--
		s.clampCol()
		return
	}
	s.historyUp()
}

func (s *State) moveDown() {
	if s.row < len(s.lines)-1 {
		s.row++
		s.clampCol()
		return
	}
	s.historyDown()
}

func (s *State) moveWordForward() {
	line := s.lines[s.row]
	i := s.col
	for i < len(line) && !unicode.IsSpace(line[i]) {
		i++
	}
	for i < len(line) && unicode.IsSpace(line[i]) {
		i++
	}
	s.col = i
	s.clampViCol()
}

func (s *State) moveWordBack() {
	line := s.lines[s.row]
	i := s.col
	for i > 0 && unicode.IsSpace(line[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(line[i-1]) {
		i--
	}
	s.col = i
}

// historyUp replaces the buffer with the previous history entry, saving
// the pending buffer so walking back down restores it.
func (s *State) historyUp() {
	if len(s.history) == 0 {
		return
	}
	if s.histIdx == -1 {
		s.saved = s.Text()
		s.histIdx = len(s.history) - 1
	} else if s.histIdx > 0 {
		s.histIdx--
	} else {
		return
	}
	s.rebuildFromText(s.history[s.histIdx])
}

func (s *State) historyDown() {
	if s.histIdx == -1 {
		return
	}
	if s.histIdx < len(s.history)-1 {
		s.histIdx++
		s.rebuildFromText(s.history[s.histIdx])
	} else {
		s.histIdx = -1
		s.rebuildFromText(s.saved)
		s.saved = ""
	}
}

func (s *State) rebuildFromText(text string) {
	parts := strings.Split(text, "\n")
	s.lines = make([][]rune, len(parts))
	for i, p := range parts {
		s.lines[i] = []rune(p)
	}
	s.row = len(s.lines) - 1
	s.col = len(s.lines[s.row])
}

func (s *State) cursorAtEnd() bool {
	return s.row == len(s.lines)-1 && s.col == len(s.lines[s.row])
}

func (s *State) clampCol() {
	if s.col > len(s.lines[s.row]) {
		s.col = len(s.lines[s.row])
	}
}

// clampViCol keeps the normal-mode cursor on a character, vi style.
func (s *State) clampViCol() {
	if !s.viNormal {
		return
	}
	if n := len(s.lines[s.row]); s.col >= n && n > 0 {
		s.col = n - 1
	}
}
