// Package highlight resolves a grammar name to a tokenizer and maps token
// types to ANSI styles. It wraps the chroma lexer registry; the rest of the
// program only sees the Tokenizer type, so a missing or broken grammar
// degrades to plain text instead of breaking input.
package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"
)

// Span is a run of text with the ANSI escape sequence that styles it.
// Style is empty for unstyled text.
type Span struct {
	Text  string
	Style string
}

// Tokenizer splits text into styled spans. The concatenated span texts
// always reproduce the input exactly.
type Tokenizer func(text string) []Span

// Plain returns the whole text as a single unstyled span.
func Plain(text string) []Span {
	if text == "" {
		return nil
	}
	return []Span{{Text: text}}
}

// Resolve returns a Tokenizer for the named grammar and whether the name
// was recognized. Unknown names yield Plain, so callers may ignore the
// second return and lose only coloring. Dotted Pygments class names like
// "pygments.lexers.perl.PerlLexer" are accepted alongside plain chroma
// names, so Pygments-style configuration values keep working.
func Resolve(grammar, theme string) (Tokenizer, bool) {
	lexer := lexers.Get(pygmentsToChroma(grammar))
	if lexer == nil {
		return Plain, false
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(theme)
	if style == nil {
		style = styles.Fallback
	}
	p := termenv.ColorProfile()

	return func(text string) []Span {
		it, err := lexer.Tokenise(nil, text)
		if err != nil {
			return Plain(text)
		}
		var spans []Span
		for _, tok := range it.Tokens() {
			if tok.Value == "" {
				continue
			}
			spans = append(spans, Span{
				Text:  tok.Value,
				Style: ansiFor(style, p, tok.Type),
			})
		}
		if joined := join(spans); joined != text {
			// A lexer that drops or rewrites text would corrupt the
			// editor display; fall back to plain rendering.
			return Plain(text)
		}
		return spans
	}, true
}

// Names lists the registered grammar names containing filter (empty
// matches all), sorted.
func Names(filter string) []string {
	var out []string
	filter = strings.ToLower(filter)
	for _, name := range lexers.Names(false) {
		if filter == "" || strings.Contains(strings.ToLower(name), filter) {
			out = append(out, name)
		}
	}
	return out
}

// DefaultTheme picks a highlight style suited to the terminal background.
func DefaultTheme(dark bool) string {
	if dark {
		return "vim"
	}
	return "friendly"
}

// pygmentsToChroma maps a dotted Pygments lexer class name to the plain
// grammar name chroma's registry understands. Plain names pass through.
func pygmentsToChroma(name string) string {
	if !strings.Contains(name, ".") {
		return name
	}
	cls := name[strings.LastIndex(name, ".")+1:]
	return strings.TrimSuffix(cls, "Lexer")
}

// ansiFor renders the style entry for a token type as an ANSI sequence.
func ansiFor(style *chroma.Style, p termenv.Profile, t chroma.TokenType) string {
	entry := style.Get(t)
	if entry.IsZero() {
		return ""
	}
	s := termenv.String("|")
	if entry.Colour.IsSet() {
		if c := p.Color(entry.Colour.String()); c != nil {
			s = s.Foreground(c)
		}
	}
	if entry.Bold == chroma.Yes {
		s = s.Bold()
	}
	if entry.Italic == chroma.Yes {
		s = s.Italic()
	}
	if entry.Underline == chroma.Yes {
		s = s.Underline()
	}
	styled := s.String()
	if i := strings.Index(styled, "|"); i > 0 {
		return styled[:i]
	}
	return ""
}

func join(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}
