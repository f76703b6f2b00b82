package lineedit

// Event represents the result of handling a key press.
type Event struct {
	Consumed    bool // the scheme handled the key
	TextChanged bool // editor content was modified
	Submit      bool // Enter
	Cancel      bool // Escape
}

// KeyScheme interprets key presses and translates them to editor actions.
type KeyScheme interface {
	// Name returns the scheme name for display/config.
	Name() string

	// HandleKey processes the raw bytes of one terminal read and performs
	// editor actions. Keys it does not understand are left unconsumed so
	// the caller can use them for navigation.
	HandleKey(e *Editor, key []byte) Event
}
