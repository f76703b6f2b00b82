// Package lineedit provides the single-line editor behind the URL and
// selector fields, with emacs-style keybindings.
package lineedit

import "unicode"

// editorState is a snapshot of editor state for undo.
type editorState struct {
	text   []rune
	cursor int
}

// Editor is a single-line text editor with cursor tracking and undo.
// Positions are rune offsets, so multi-byte input moves as one character.
type Editor struct {
	text    []rune
	cursor  int
	history []editorState
	maxHist int // 0 = unlimited
}

// New creates a new empty Editor.
func New() *Editor {
	return &Editor{maxHist: 100}
}

// Text returns the current text.
func (e *Editor) Text() string {
	return string(e.text)
}

// Cursor returns the cursor position in runes.
func (e *Editor) Cursor() int {
	return e.cursor
}

// SetCursor sets the cursor position, clamping to the valid range.
func (e *Editor) SetCursor(pos int) {
	e.cursor = max(0, min(pos, len(e.text)))
}

// Len returns the length of the text in runes.
func (e *Editor) Len() int {
	return len(e.text)
}

// Clear resets the editor to empty state.
func (e *Editor) Clear() {
	e.text = e.text[:0]
	e.cursor = 0
}

// Set replaces the text and moves the cursor to the end.
func (e *Editor) Set(text string) {
	e.text = []rune(text)
	e.cursor = len(e.text)
}

// SaveState pushes the current state onto the undo stack.
// Call this before an edit that should be undoable.
func (e *Editor) SaveState() {
	if n := len(e.history); n > 0 {
		last := e.history[n-1]
		if last.cursor == e.cursor && string(last.text) == string(e.text) {
			return
		}
	}
	e.history = append(e.history, editorState{text: append([]rune(nil), e.text...), cursor: e.cursor})
	if e.maxHist > 0 && len(e.history) > e.maxHist {
		e.history = e.history[1:]
	}
}

// Undo restores the previous state. Returns false if there is none.
func (e *Editor) Undo() bool {
	if len(e.history) == 0 {
		return false
	}
	last := e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]
	e.text = last.text
	e.cursor = last.cursor
	return true
}

// BeforeCursor returns text before the cursor.
func (e *Editor) BeforeCursor() string {
	return string(e.text[:e.cursor])
}

// AfterCursor returns text from the cursor to the end.
func (e *Editor) AfterCursor() string {
	return string(e.text[e.cursor:])
}

// Insert adds a rune at the cursor position.
func (e *Editor) Insert(r rune) {
	e.text = append(e.text, 0)
	copy(e.text[e.cursor+1:], e.text[e.cursor:])
	e.text[e.cursor] = r
	e.cursor++
}

// InsertString adds s at the cursor position.
func (e *Editor) InsertString(s string) {
	for _, r := range s {
		e.Insert(r)
	}
}

// DeleteBackward removes the rune before the cursor (backspace).
func (e *Editor) DeleteBackward() bool {
	if e.cursor == 0 {
		return false
	}
	e.text = append(e.text[:e.cursor-1], e.text[e.cursor:]...)
	e.cursor--
	return true
}

// DeleteForward removes the rune at the cursor (delete).
func (e *Editor) DeleteForward() bool {
	if e.cursor >= len(e.text) {
		return false
	}
	e.text = append(e.text[:e.cursor], e.text[e.cursor+1:]...)
	return true
}

// Left moves the cursor one rune left.
func (e *Editor) Left() bool {
	if e.cursor == 0 {
		return false
	}
	e.cursor--
	return true
}

// Right moves the cursor one rune right.
func (e *Editor) Right() bool {
	if e.cursor >= len(e.text) {
		return false
	}
	e.cursor++
	return true
}

// Home moves the cursor to the beginning of the line.
func (e *Editor) Home() {
	e.cursor = 0
}

// End moves the cursor to the end of the line.
func (e *Editor) End() {
	e.cursor = len(e.text)
}

// charClass groups runes for word motion: 0 space, 1 word, 2 punctuation.
// Selectors are mostly punctuation (".", "#", ">"), so treating it as its
// own class makes Ctrl+W stop at combinator boundaries.
func charClass(r rune) int {
	switch {
	case unicode.IsSpace(r):
		return 0
	case r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r):
		return 1
	default:
		return 2
	}
}

func (e *Editor) wordBoundaryLeft() int {
	i := e.cursor
	for i > 0 && charClass(e.text[i-1]) == 0 {
		i--
	}
	if i == 0 {
		return 0
	}
	class := charClass(e.text[i-1])
	for i > 0 && charClass(e.text[i-1]) == class {
		i--
	}
	return i
}

func (e *Editor) wordBoundaryRight() int {
	i := e.cursor
	if i >= len(e.text) {
		return len(e.text)
	}
	class := charClass(e.text[i])
	for i < len(e.text) && charClass(e.text[i]) == class {
		i++
	}
	for i < len(e.text) && charClass(e.text[i]) == 0 {
		i++
	}
	return i
}

// WordLeft moves the cursor to the previous word boundary.
func (e *Editor) WordLeft() {
	e.cursor = e.wordBoundaryLeft()
}

// WordRight moves the cursor to the next word boundary.
func (e *Editor) WordRight() {
	e.cursor = e.wordBoundaryRight()
}

// DeleteWordBackward deletes from the cursor to the previous word boundary.
func (e *Editor) DeleteWordBackward() {
	pos := e.wordBoundaryLeft()
	e.text = append(e.text[:pos], e.text[e.cursor:]...)
	e.cursor = pos
}

// DeleteWordForward deletes from the cursor to the next word boundary.
func (e *Editor) DeleteWordForward() {
	pos := e.wordBoundaryRight()
	e.text = append(e.text[:e.cursor], e.text[pos:]...)
}

// KillToEnd deletes from the cursor to the end of the line.
func (e *Editor) KillToEnd() {
	e.text = e.text[:e.cursor]
}

// KillToStart deletes from the beginning of the line to the cursor.
func (e *Editor) KillToStart() {
	e.text = append(e.text[:0], e.text[e.cursor:]...)
	e.cursor = 0
}

// Transpose swaps the rune before the cursor with the one at the cursor.
// At the end of the line it swaps the last two.
func (e *Editor) Transpose() {
	if e.cursor == 0 || len(e.text) < 2 {
		return
	}
	pos := e.cursor
	if pos == len(e.text) {
		pos--
	}
	e.text[pos-1], e.text[pos] = e.text[pos], e.text[pos-1]
	if e.cursor < len(e.text) {
		e.cursor++
	}
}
