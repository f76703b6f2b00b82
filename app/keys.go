package app

import (
	"bytes"
	"context"

	"scraper/inspector"
)

// Raw key sequences not covered by the line editor.
var (
	keyShiftTab = []byte{27, '[', 'Z'}
	keyUp       = []byte{27, '[', 'A'}
	keyDown     = []byte{27, '[', 'B'}
	keyPageUp   = []byte{27, '[', '5', '~'}
	keyPageDown = []byte{27, '[', '6', '~'}
)

const (
	keyCtrlC = 3
	keyTab   = 9
	keyEnter = 13
	keyCtrlR = 18
	keyEsc   = 27
)

// HandleKey applies one terminal read to the session and reports what the
// event loop must do next.
func (s *Session) HandleKey(ctx context.Context, key []byte) Action {
	if len(key) == 0 {
		return ActionNone
	}

	switch {
	case key[0] == keyCtrlC:
		return ActionQuit
	case len(key) == 1 && key[0] == keyTab:
		s.focus = s.focus.Next()
		return ActionRedraw
	case bytes.Equal(key, keyShiftTab):
		s.focus = s.focus.Prev()
		return ActionRedraw
	}

	switch s.focus {
	case inspector.FocusURL:
		return s.handleURLKey(ctx, key)
	case inspector.FocusQuery:
		return s.handleQueryKey(key)
	case inspector.FocusDocument:
		return s.handleDocumentKey(key)
	case inspector.FocusMatches:
		return s.handleMatchesKey(key)
	}
	return ActionNone
}

func (s *Session) handleURLKey(ctx context.Context, key []byte) Action {
	if len(key) == 1 && key[0] == keyCtrlR {
		s.CycleRecent(ctx)
		return ActionRedraw
	}

	ev := s.scheme.HandleKey(s.url, key)
	switch {
	case ev.Submit:
		if s.url.Len() == 0 {
			return ActionNone
		}
		return ActionFetch
	case ev.Cancel:
		s.focus = inspector.FocusDocument
		return ActionRedraw
	case ev.TextChanged:
		s.recent = nil
		return ActionRedraw
	case ev.Consumed:
		return ActionRedraw
	}
	return ActionNone
}

func (s *Session) handleQueryKey(key []byte) Action {
	ev := s.scheme.HandleKey(s.query, key)
	switch {
	case ev.Submit:
		return ActionRunQuery
	case ev.Cancel:
		s.focus = inspector.FocusMatches
		return ActionRedraw
	case ev.TextChanged:
		return ActionQueryChanged
	case ev.Consumed:
		return ActionRedraw
	}
	return ActionNone
}

func (s *Session) handleDocumentKey(key []byte) Action {
	v := s.viewer
	switch {
	case bytes.Equal(key, keyDown), len(key) == 1 && key[0] == 'j':
		v.ScrollDocument(1)
	case bytes.Equal(key, keyUp), len(key) == 1 && key[0] == 'k':
		v.ScrollDocument(-1)
	case bytes.Equal(key, keyPageDown), len(key) == 1 && key[0] == ' ':
		v.PageDocument(1)
	case bytes.Equal(key, keyPageUp), len(key) == 1 && key[0] == 'b':
		v.PageDocument(-1)
	case len(key) == 1 && key[0] == 'g':
		v.DocumentTop()
	case len(key) == 1 && key[0] == 'G':
		v.DocumentBottom()
	case len(key) == 1 && key[0] == 'q':
		return ActionQuit
	default:
		return ActionNone
	}
	return ActionRedraw
}

func (s *Session) handleMatchesKey(key []byte) Action {
	p := s.panels
	switch {
	case bytes.Equal(key, keyDown), len(key) == 1 && key[0] == 'j':
		if p.Next() {
			s.viewer.ResetPanelScroll()
		}
	case bytes.Equal(key, keyUp), len(key) == 1 && key[0] == 'k':
		if p.Prev() {
			s.viewer.ResetPanelScroll()
		}
	case len(key) == 1 && (key[0] == keyEnter || key[0] == ' '):
		p.Toggle()
		s.viewer.ResetPanelScroll()
	case len(key) == 1 && key[0] == 'J', bytes.Equal(key, keyPageDown):
		s.viewer.ScrollPanel(1)
	case len(key) == 1 && key[0] == 'K', bytes.Equal(key, keyPageUp):
		s.viewer.ScrollPanel(-1)
	case len(key) == 1 && key[0] == keyEsc:
		p.Collapse()
	case len(key) == 1 && key[0] == 'q':
		return ActionQuit
	default:
		return ActionNone
	}
	return ActionRedraw
}
