package driver

import (
	"bytes"
	"fmt"
	"regexp"
)

// A Pattern describes where the target's prompt appears in its output
// stream: either a literal byte sequence or a regular expression.
type Pattern struct {
	literal []byte
	re      *regexp.Regexp
}

// Literal returns a pattern that matches the exact byte sequence s.
func Literal(s string) Pattern {
	return Pattern{literal: []byte(s)}
}

// Regexp compiles expr into a regular-expression pattern.
func Regexp(expr string) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("compile prompt pattern: %w", err)
	}
	return Pattern{re: re}, nil
}

// String returns the pattern's source text.
func (p Pattern) String() string {
	if p.re != nil {
		return p.re.String()
	}
	return string(p.literal)
}

func (p Pattern) isZero() bool {
	return p.re == nil && len(p.literal) == 0
}

// A Matcher consumes an output stream chunk by chunk and reports when the
// stream's tail has reached the prompt pattern. Bytes that can no longer
// participate in a match are emitted eagerly; in literal mode the matcher
// retains at most len(pattern)-1 trailing bytes between calls. A regex
// match has no length bound, so regex mode retains the whole unemitted
// tail instead.
//
// Feeding a stream split at arbitrary chunk boundaries yields the same
// emitted text and match decision as feeding it whole.
type Matcher struct {
	pattern Pattern
	pending []byte
}

// NewMatcher creates a Matcher for the given pattern.
func NewMatcher(pattern Pattern) *Matcher {
	return &Matcher{pattern: pattern}
}

// Feed appends chunk to the retained tail and looks for the pattern.
// It returns the text that precedes a match, or, when no match is found,
// the prefix that can no longer be part of one. The matched bytes
// themselves are consumed, never emitted.
func (m *Matcher) Feed(chunk []byte) (emitted []byte, matched bool) {
	m.pending = append(m.pending, chunk...)

	var start, end int
	if m.pattern.re != nil {
		loc := m.pattern.re.FindIndex(m.pending)
		if loc == nil {
			// A regex match could begin anywhere in the tail, so
			// nothing is safe to emit yet.
			return nil, false
		}
		start, end = loc[0], loc[1]
	} else {
		idx := bytes.Index(m.pending, m.pattern.literal)
		if idx < 0 {
			keep := len(m.pattern.literal) - 1
			if keep < 0 {
				keep = 0
			}
			if len(m.pending) <= keep {
				return nil, false
			}
			cut := len(m.pending) - keep
			emitted = append(emitted, m.pending[:cut]...)
			m.pending = append(m.pending[:0], m.pending[cut:]...)
			return emitted, false
		}
		start, end = idx, idx+len(m.pattern.literal)
	}

	emitted = append(emitted, m.pending[:start]...)
	m.pending = append(m.pending[:0], m.pending[end:]...)
	return emitted, true
}

// Pending returns the bytes currently retained across calls. Used when the
// stream closes before a match, so buffered output is not lost.
func (m *Matcher) Pending() []byte {
	return m.pending
}
