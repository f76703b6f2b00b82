// Package inspector draws the interactive scraper screen: the page's body
// markup on the left and the selector matches, as collapsible panels, on
// the right.
package inspector

import "scraper/document"

// Panel is one collapsible entry in the matches pane.
type Panel struct {
	Title string // element tag name
	Label string // tag with id and classes, shown dimmed after the title
	Body  string // inner markup of the element
}

// Accordion is an ordered list of panels of which at most one is expanded.
type Accordion struct {
	panels   []Panel
	selected int
	expanded int // -1 when all panels are collapsed
}

// NewAccordion returns an empty accordion.
func NewAccordion() *Accordion {
	return &Accordion{expanded: -1}
}

// Reset replaces the panels with one per match, in match order, all
// collapsed. A nil or empty slice leaves the accordion empty.
func (a *Accordion) Reset(matches []document.Match) {
	a.panels = make([]Panel, 0, len(matches))
	for _, m := range matches {
		a.panels = append(a.panels, Panel{Title: m.Tag, Label: m.Label(), Body: m.HTML})
	}
	a.selected = 0
	a.expanded = -1
}

// Clear removes every panel.
func (a *Accordion) Clear() {
	a.Reset(nil)
}

// Len returns the number of panels.
func (a *Accordion) Len() int {
	return len(a.panels)
}

// Panels returns the panels in display order. The slice must not be modified.
func (a *Accordion) Panels() []Panel {
	return a.panels
}

// Selected returns the index of the selected panel, or -1 if there are none.
func (a *Accordion) Selected() int {
	if len(a.panels) == 0 {
		return -1
	}
	return a.selected
}

// Expanded returns the index of the expanded panel, or -1.
func (a *Accordion) Expanded() int {
	return a.expanded
}

// Select moves the selection to i, clamped to the panel range.
func (a *Accordion) Select(i int) {
	if len(a.panels) == 0 {
		a.selected = 0
		return
	}
	a.selected = max(0, min(i, len(a.panels)-1))
}

// Next selects the following panel. Returns false at the last panel.
func (a *Accordion) Next() bool {
	if a.selected >= len(a.panels)-1 {
		return false
	}
	a.selected++
	return true
}

// Prev selects the preceding panel. Returns false at the first panel.
func (a *Accordion) Prev() bool {
	if a.selected <= 0 {
		return false
	}
	a.selected--
	return true
}

// Toggle expands the selected panel, collapsing any other, or collapses it
// if it is already expanded.
func (a *Accordion) Toggle() {
	if len(a.panels) == 0 {
		return
	}
	if a.expanded == a.selected {
		a.expanded = -1
		return
	}
	a.expanded = a.selected
}

// Collapse collapses the expanded panel, if any.
func (a *Accordion) Collapse() {
	a.expanded = -1
}
