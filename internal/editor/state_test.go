package editor

import "testing"

func typeString(s *State, text string) {
	for _, r := range text {
		s.Apply(Key{Kind: KeyRune, Rune: r})
	}
}

func TestSingleLineSubmit(t *testing.T) {
	s := NewState(ModeEmacs, false, nil)
	typeString(s, "SELECT 1;")
	if ev := s.Apply(Key{Kind: KeyEnter}); ev != EventSubmit {
		t.Fatalf("Enter = %v, want EventSubmit", ev)
	}
	if s.Text() != "SELECT 1;" {
		t.Errorf("Text = %q", s.Text())
	}
}

func TestMultilineEnterInsertsLine(t *testing.T) {
	s := NewState(ModeEmacs, true, nil)
	typeString(s, "SELECT 1;")

	if ev := s.Apply(Key{Kind: KeyEnter}); ev != EventNone {
		t.Fatalf("plain Enter in multiline = %v, want EventNone", ev)
	}
	typeString(s, "SELECT 2;")

	if ev := s.Apply(Key{Kind: KeyAltEnter}); ev != EventSubmit {
		t.Fatalf("Alt-Enter = %v, want EventSubmit", ev)
	}
	if want := "SELECT 1;\nSELECT 2;"; s.Text() != want {
		t.Errorf("Text = %q, want %q", s.Text(), want)
	}
}

func TestModeToggleWithF4(t *testing.T) {
	s := NewState(ModeEmacs, false, nil)
	s.Apply(Key{Kind: KeyF4})
	if s.Mode() != ModeVi {
		t.Fatalf("mode = %v, want ModeVi", s.Mode())
	}
	s.Apply(Key{Kind: KeyF4})
	if s.Mode() != ModeEmacs {
		t.Fatalf("mode = %v, want ModeEmacs", s.Mode())
	}
}

func TestModeTogglePreservesBufferAndCursor(t *testing.T) {
	s := NewState(ModeEmacs, false, nil)
	typeString(s, "hello world")
	s.Apply(Key{Kind: KeyLeft})
	s.Apply(Key{Kind: KeyLeft})
	_, wantCol := s.Cursor()

	s.Apply(Key{Kind: KeyF4})
	if s.Text() != "hello world" {
		t.Errorf("Text after toggle = %q", s.Text())
	}
	if _, col := s.Cursor(); col != wantCol {
		t.Errorf("col after toggle = %d, want %d", col, wantCol)
	}

	s.Apply(Key{Kind: KeyF4})
	if s.Text() != "hello world" {
		t.Errorf("Text after toggle back = %q", s.Text())
	}
	if _, col := s.Cursor(); col != wantCol {
		t.Errorf("col after toggle back = %d, want %d", col, wantCol)
	}
}

func TestCtrlDOnEmptyBufferEndsSession(t *testing.T) {
	s := NewState(ModeEmacs, false, nil)
	if ev := s.Apply(Key{Kind: KeyCtrlD}); ev != EventEnd {
		t.Fatalf("Ctrl-D on empty buffer = %v, want EventEnd", ev)
	}
}

func TestCtrlDOnNonEmptyBufferDeletes(t *testing.T) {
	s := NewState(ModeEmacs, false, nil)
	typeString(s, "ab")
	s.Apply(Key{Kind: KeyHome})
	if ev := s.Apply(Key{Kind: KeyCtrlD}); ev != EventNone {
		t.Fatalf("Ctrl-D on text = %v, want EventNone", ev)
	}
	if s.Text() != "b" {
		t.Errorf("Text = %q, want %q", s.Text(), "b")
	}
}

func TestF10EndsSessionInBothModes(t *testing.T) {
	for _, mode := range []EditMode{ModeEmacs, ModeVi} {
		s := NewState(mode, false, nil)
		typeString(s, "pending")
		if ev := s.Apply(Key{Kind: KeyF10}); ev != EventEnd {
			t.Errorf("mode %v: F10 = %v, want EventEnd", mode, ev)
		}
	}
}

func TestCtrlCCancelsAndResets(t *testing.T) {
	s := NewState(ModeVi, true, []string{"old"})
	typeString(s, "half-typed")
	s.Apply(Key{Kind: KeyUp}) // start a history walk

	if ev := s.Apply(Key{Kind: KeyCtrlC}); ev != EventCancel {
		t.Fatalf("Ctrl-C = %v, want EventCancel", ev)
	}
	if s.Text() != "" {
		t.Errorf("Text after cancel = %q, want empty", s.Text())
	}
	if row, col := s.Cursor(); row != 0 || col != 0 {
		t.Errorf("cursor after cancel = (%d,%d), want (0,0)", row, col)
	}
	if s.Mode() != ModeVi {
		t.Error("cancel must not reset the editing mode")
	}
}

func TestHistoryWalkSavesPendingBuffer(t *testing.T) {
	s := NewState(ModeEmacs, false, []string{"first", "second"})
	typeString(s, "draft")

	s.Apply(Key{Kind: KeyUp})
	if s.Text() != "second" {
		t.Fatalf("after up: %q, want %q", s.Text(), "second")
	}
	s.Apply(Key{Kind: KeyUp})
	if s.Text() != "first" {
		t.Fatalf("after up up: %q, want %q", s.Text(), "first")
	}
	s.Apply(Key{Kind: KeyUp}) // already at oldest
	if s.Text() != "first" {
		t.Fatalf("up at oldest: %q", s.Text())
	}

	s.Apply(Key{Kind: KeyDown})
	s.Apply(Key{Kind: KeyDown})
	if s.Text() != "draft" {
		t.Errorf("walking back down = %q, want the saved draft", s.Text())
	}
}

func TestUpMovesBetweenBufferLinesBeforeHistory(t *testing.T) {
	s := NewState(ModeEmacs, true, []string{"hist"})
	typeString(s, "line1")
	s.Apply(Key{Kind: KeyEnter})
	typeString(s, "line2")

	s.Apply(Key{Kind: KeyUp})
	if row, _ := s.Cursor(); row != 0 {
		t.Fatalf("row = %d, want 0", row)
	}
	if s.Text() != "line1\nline2" {
		t.Errorf("buffer replaced by history: %q", s.Text())
	}

	s.Apply(Key{Kind: KeyUp}) // now at the top row: history takes over
	if s.Text() != "hist" {
		t.Errorf("Text = %q, want %q", s.Text(), "hist")
	}
}

func TestSuggestionFromHistory(t *testing.T) {
	s := NewState(ModeEmacs, false, []string{"SELECT * FROM users;", "SELECT 1;"})
	typeString(s, "SELECT *")
	if got := s.Suggestion(); got != " FROM users;" {
		t.Errorf("Suggestion = %q, want %q", got, " FROM users;")
	}
}

func TestSuggestionPrefersMostRecent(t *testing.T) {
	s := NewState(ModeEmacs, false, []string{"ls -la", "ls -lh"})
	typeString(s, "ls")
	if got := s.Suggestion(); got != " -lh" {
		t.Errorf("Suggestion = %q, want %q", got, " -lh")
	}
}

func TestSuggestionOnlyAtBufferEnd(t *testing.T) {
	s := NewState(ModeEmacs, false, []string{"select 1"})
	typeString(s, "sel")
	s.Apply(Key{Kind: KeyLeft})
	if got := s.Suggestion(); got != "" {
		t.Errorf("Suggestion with cursor mid-buffer = %q, want empty", got)
	}
}

func TestRightAtEndAcceptsSuggestion(t *testing.T) {
	s := NewState(ModeEmacs, false, []string{"print('hello')"})
	typeString(s, "print")
	s.Apply(Key{Kind: KeyRight})
	if s.Text() != "print('hello')" {
		t.Errorf("Text = %q, want accepted suggestion", s.Text())
	}
	if _, col := s.Cursor(); col != len("print('hello')") {
		t.Errorf("col = %d, want end of buffer", col)
	}
}

func TestAcceptSuggestionDoesNotSubmit(t *testing.T) {
	s := NewState(ModeEmacs, false, []string{"exit"})
	typeString(s, "ex")
	if ev := s.Apply(Key{Kind: KeyRight}); ev != EventNone {
		t.Errorf("accepting suggestion = %v, want EventNone", ev)
	}
}

func TestEmacsChords(t *testing.T) {
	s := NewState(ModeEmacs, false, nil)
	typeString(s, "hello world")

	s.Apply(Key{Kind: KeyCtrlA})
	if _, col := s.Cursor(); col != 0 {
		t.Fatalf("Ctrl-A col = %d", col)
	}
	s.Apply(Key{Kind: KeyCtrlE})
	if _, col := s.Cursor(); col != 11 {
		t.Fatalf("Ctrl-E col = %d", col)
	}
	s.Apply(Key{Kind: KeyCtrlW})
	if s.Text() != "hello " {
		t.Errorf("Ctrl-W: %q, want %q", s.Text(), "hello ")
	}
	s.Apply(Key{Kind: KeyCtrlU})
	if s.Text() != "" {
		t.Errorf("Ctrl-U: %q, want empty", s.Text())
	}
}

func TestCtrlKKillsToEndOfLine(t *testing.T) {
	s := NewState(ModeEmacs, false, nil)
	typeString(s, "hello world")
	for i := 0; i < 6; i++ {
		s.Apply(Key{Kind: KeyLeft})
	}
	s.Apply(Key{Kind: KeyCtrlK})
	if s.Text() != "hello" {
		t.Errorf("Ctrl-K: %q, want %q", s.Text(), "hello")
	}
}

func TestViNormalModeVocabulary(t *testing.T) {
	s := NewState(ModeVi, false, nil)
	typeString(s, "delete me")
	s.Apply(Key{Kind: KeyEsc})
	if s.ModeLabel() != "Vi (normal)" {
		t.Fatalf("label = %q", s.ModeLabel())
	}

	s.Apply(Key{Kind: KeyRune, Rune: '0'})
	if _, col := s.Cursor(); col != 0 {
		t.Fatalf("0: col = %d", col)
	}
	s.Apply(Key{Kind: KeyRune, Rune: 'x'})
	if s.Text() != "elete me" {
		t.Fatalf("x: %q", s.Text())
	}
	s.Apply(Key{Kind: KeyRune, Rune: 'w'})
	if _, col := s.Cursor(); col != 6 {
		t.Fatalf("w: col = %d", col)
	}
	s.Apply(Key{Kind: KeyRune, Rune: '$'})
	if _, col := s.Cursor(); col != 7 {
		t.Fatalf("$: col = %d (normal mode rests on the last rune)", col)
	}

	s.Apply(Key{Kind: KeyRune, Rune: 'd'})
	s.Apply(Key{Kind: KeyRune, Rune: 'd'})
	if s.Text() != "" {
		t.Errorf("dd: %q, want empty", s.Text())
	}
}

func TestViInsertReentry(t *testing.T) {
	s := NewState(ModeVi, false, nil)
	typeString(s, "ab")
	s.Apply(Key{Kind: KeyEsc})
	s.Apply(Key{Kind: KeyRune, Rune: 'I'})
	if s.ModeLabel() != "Vi" {
		t.Fatalf("label = %q, want insert submode", s.ModeLabel())
	}
	typeString(s, "x")
	if s.Text() != "xab" {
		t.Errorf("Text = %q, want %q", s.Text(), "xab")
	}
}

func TestViRunesInsertInEmacsMode(t *testing.T) {
	s := NewState(ModeEmacs, false, nil)
	s.Apply(Key{Kind: KeyEsc}) // no vi normal mode in Emacs
	typeString(s, "x")
	if s.Text() != "x" {
		t.Errorf("Text = %q, want %q", s.Text(), "x")
	}
}

func TestBackspaceJoinsLines(t *testing.T) {
	s := NewState(ModeEmacs, true, nil)
	typeString(s, "ab")
	s.Apply(Key{Kind: KeyEnter})
	typeString(s, "cd")
	s.Apply(Key{Kind: KeyHome})
	s.Apply(Key{Kind: KeyBackspace})
	if s.Text() != "abcd" {
		t.Errorf("Text = %q, want %q", s.Text(), "abcd")
	}
	if row, col := s.Cursor(); row != 0 || col != 2 {
		t.Errorf("cursor = (%d,%d), want (0,2)", row, col)
	}
}

func TestMultibyteRunes(t *testing.T) {
	s := NewState(ModeEmacs, false, nil)
	typeString(s, "héllo")
	s.Apply(Key{Kind: KeyBackspace})
	if s.Text() != "héll" {
		t.Errorf("Text = %q, want %q", s.Text(), "héll")
	}
}
