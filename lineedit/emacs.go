package lineedit

import (
	"unicode"
	"unicode/utf8"
)

// EmacsScheme implements emacs-style keybindings.
// It is always in insert mode: printable input goes to the editor.
type EmacsScheme struct{}

// NewEmacsScheme creates a new emacs keybinding scheme.
func NewEmacsScheme() *EmacsScheme {
	return &EmacsScheme{}
}

// Name returns the scheme name.
func (s *EmacsScheme) Name() string {
	return "emacs"
}

// HandleKey processes a key press using emacs keybindings.
func (s *EmacsScheme) HandleKey(e *Editor, key []byte) Event {
	if len(key) == 0 {
		return Event{}
	}

	// Escape sequences: Alt+key and arrows
	if key[0] == 27 && len(key) >= 2 {
		switch {
		case key[1] == 127: // Alt+Backspace
			e.SaveState()
			e.DeleteWordBackward()
			return Event{Consumed: true, TextChanged: true}
		case key[1] == 'b' || key[1] == 'B':
			e.WordLeft()
			return Event{Consumed: true}
		case key[1] == 'f' || key[1] == 'F':
			e.WordRight()
			return Event{Consumed: true}
		case key[1] == 'd' || key[1] == 'D':
			e.SaveState()
			e.DeleteWordForward()
			return Event{Consumed: true, TextChanged: true}
		case len(key) >= 3 && key[1] == '[':
			switch key[2] {
			case 'C':
				e.Right()
				return Event{Consumed: true}
			case 'D':
				e.Left()
				return Event{Consumed: true}
			case 'H':
				e.Home()
				return Event{Consumed: true}
			case 'F':
				e.End()
				return Event{Consumed: true}
			case '3': // Delete: ESC [ 3 ~
				e.SaveState()
				return Event{Consumed: true, TextChanged: e.DeleteForward()}
			}
		}
		// Up/Down, Shift+Tab and friends belong to the caller
		return Event{}
	}

	switch key[0] {
	case 27:
		return Event{Consumed: true, Cancel: true}
	case 13, 10:
		return Event{Consumed: true, Submit: true}
	case 1: // Ctrl+A
		e.Home()
		return Event{Consumed: true}
	case 5: // Ctrl+E
		e.End()
		return Event{Consumed: true}
	case 6: // Ctrl+F
		e.Right()
		return Event{Consumed: true}
	case 2: // Ctrl+B
		e.Left()
		return Event{Consumed: true}
	case 4: // Ctrl+D
		e.SaveState()
		return Event{Consumed: true, TextChanged: e.DeleteForward()}
	case 11: // Ctrl+K
		e.SaveState()
		e.KillToEnd()
		return Event{Consumed: true, TextChanged: true}
	case 21: // Ctrl+U
		e.SaveState()
		e.KillToStart()
		return Event{Consumed: true, TextChanged: true}
	case 23: // Ctrl+W
		e.SaveState()
		e.DeleteWordBackward()
		return Event{Consumed: true, TextChanged: true}
	case 20: // Ctrl+T
		e.SaveState()
		e.Transpose()
		return Event{Consumed: true, TextChanged: true}
	case 26, 31: // Ctrl+Z, Ctrl+_
		return Event{Consumed: true, TextChanged: e.Undo()}
	case 127, 8: // Backspace
		e.SaveState()
		return Event{Consumed: true, TextChanged: e.DeleteBackward()}
	}

	// Printable input; a paste can deliver several runes in one read
	if r, _ := utf8.DecodeRune(key); r == utf8.RuneError || !unicode.IsPrint(r) {
		return Event{}
	}
	inserted := false
	for len(key) > 0 {
		r, size := utf8.DecodeRune(key)
		key = key[size:]
		if r == utf8.RuneError || !unicode.IsPrint(r) {
			continue
		}
		e.Insert(r)
		inserted = true
	}
	return Event{Consumed: true, TextChanged: inserted}
}
