package editor

import "unicode/utf8"

// KeyKind identifies a decoded key event.
type KeyKind int

const (
	KeyNone KeyKind = iota
	KeyRune
	KeyEnter
	KeyAltEnter
	KeyEsc
	KeyBackspace
	KeyDelete
	KeyTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyF4
	KeyF10
	KeyCtrlA
	KeyCtrlB
	KeyCtrlC
	KeyCtrlD
	KeyCtrlE
	KeyCtrlF
	KeyCtrlK
	KeyCtrlU
	KeyCtrlW
)

// Key is one decoded keyboard event. Rune is set only for KeyRune.
type Key struct {
	Kind KeyKind
	Rune rune
}

// decodeInput appends a fresh read to the undecoded tail from the
// previous one and decodes key events. A lone ESC held over from the last
// read joins the new bytes only when they begin a sequence continuation
// ('[' or 'O'); any other byte means the ESC was its own keypress, so an
// Enter typed after it stays Enter instead of becoming Alt-Enter.
func decodeInput(pending, chunk []byte) (keys []Key, rest []byte) {
	if len(pending) == 1 && pending[0] == 0x1B && len(chunk) > 0 && chunk[0] != '[' && chunk[0] != 'O' {
		keys = append(keys, Key{Kind: KeyEsc})
		pending = pending[:0]
	}
	more, rest := decodeKeys(append(pending, chunk...))
	return append(keys, more...), rest
}

// decodeKeys turns raw terminal bytes into key events. A trailing byte
// sequence that could still grow into a complete escape sequence or UTF-8
// rune is returned as rest and must be prepended to the next read.
func decodeKeys(buf []byte) (keys []Key, rest []byte) {
	i := 0
	for i < len(buf) {
		b := buf[i]
		switch {
		case b == 0x1B:
			k, n, ok := decodeEscape(buf[i:])
			if !ok {
				return keys, buf[i:]
			}
			i += n
			if k.Kind == KeyNone {
				continue
			}
			keys = append(keys, k)
		case b == 0x0D || b == 0x0A:
			keys = append(keys, Key{Kind: KeyEnter})
			i++
		case b == 0x7F || b == 0x08:
			keys = append(keys, Key{Kind: KeyBackspace})
			i++
		case b == 0x09:
			keys = append(keys, Key{Kind: KeyTab})
			i++
		case b < 0x20:
			if k, ok := ctrlKey(b); ok {
				keys = append(keys, k)
			}
			i++
		default:
			r, size := utf8.DecodeRune(buf[i:])
			if r == utf8.RuneError && size == 1 && !utf8.FullRune(buf[i:]) {
				return keys, buf[i:]
			}
			keys = append(keys, Key{Kind: KeyRune, Rune: r})
			i += size
		}
	}
	return keys, nil
}

func ctrlKey(b byte) (Key, bool) {
	switch b {
	case 0x01:
		return Key{Kind: KeyCtrlA}, true
	case 0x02:
		return Key{Kind: KeyCtrlB}, true
	case 0x03:
		return Key{Kind: KeyCtrlC}, true
	case 0x04:
		return Key{Kind: KeyCtrlD}, true
	case 0x05:
		return Key{Kind: KeyCtrlE}, true
	case 0x06:
		return Key{Kind: KeyCtrlF}, true
	case 0x0B:
		return Key{Kind: KeyCtrlK}, true
	case 0x15:
		return Key{Kind: KeyCtrlU}, true
	case 0x17:
		return Key{Kind: KeyCtrlW}, true
	}
	return Key{}, false
}

// decodeEscape decodes a sequence starting at an ESC byte. ok=false means
// the sequence is incomplete; n=0 with ok=true means the bytes were
// consumed without producing a key.
func decodeEscape(buf []byte) (k Key, n int, ok bool) {
	if len(buf) == 1 {
		// Could be the ESC key or a sequence split across reads; hold
		// it until the next byte settles which (decodeInput decides).
		return Key{}, 0, false
	}
	switch buf[1] {
	case 0x0D, 0x0A:
		return Key{Kind: KeyAltEnter}, 2, true
	case 'O':
		if len(buf) < 3 {
			return Key{}, 0, false
		}
		switch buf[2] {
		case 'S':
			return Key{Kind: KeyF4}, 3, true
		case 'H':
			return Key{Kind: KeyHome}, 3, true
		case 'F':
			return Key{Kind: KeyEnd}, 3, true
		}
		return Key{}, 3, true
	case '[':
		return decodeCSI(buf)
	}
	// ESC followed by an ordinary byte: treat the ESC alone and let the
	// next byte decode on its own.
	return Key{Kind: KeyEsc}, 1, true
}

func decodeCSI(buf []byte) (k Key, n int, ok bool) {
	// buf is ESC [ params... final, final in 0x40..0x7E.
	i := 2
	for i < len(buf) && buf[i] >= 0x30 && buf[i] <= 0x3F {
		i++
	}
	for i < len(buf) && buf[i] >= 0x20 && buf[i] <= 0x2F {
		i++
	}
	if i >= len(buf) {
		return Key{}, 0, false
	}
	final := buf[i]
	params := string(buf[2:i])
	n = i + 1

	switch final {
	case 'A':
		return Key{Kind: KeyUp}, n, true
	case 'B':
		return Key{Kind: KeyDown}, n, true
	case 'C':
		return Key{Kind: KeyRight}, n, true
	case 'D':
		return Key{Kind: KeyLeft}, n, true
	case 'H':
		return Key{Kind: KeyHome}, n, true
	case 'F':
		return Key{Kind: KeyEnd}, n, true
	case 'S':
		return Key{Kind: KeyF4}, n, true
	case '~':
		switch params {
		case "1", "7":
			return Key{Kind: KeyHome}, n, true
		case "4", "8":
			return Key{Kind: KeyEnd}, n, true
		case "3":
			return Key{Kind: KeyDelete}, n, true
		case "14":
			return Key{Kind: KeyF4}, n, true
		case "21":
			return Key{Kind: KeyF10}, n, true
		}
		return Key{}, n, true
	}
	return Key{}, n, true
}
