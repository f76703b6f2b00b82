package inspector

import (
	"fmt"
	"strings"

	"scraper/render"
)

// Focus identifies which part of the screen receives keys.
type Focus int

const (
	FocusURL Focus = iota
	FocusQuery
	FocusDocument
	FocusMatches
	focusCount
)

// Next returns the focus that Tab moves to.
func (f Focus) Next() Focus { return (f + 1) % focusCount }

// Prev returns the focus that Shift-Tab moves to.
func (f Focus) Prev() Focus { return (f + focusCount - 1) % focusCount }

func (f Focus) String() string {
	switch f {
	case FocusURL:
		return "url"
	case FocusQuery:
		return "query"
	case FocusDocument:
		return "document"
	case FocusMatches:
		return "matches"
	}
	return "unknown"
}

// IsField reports whether the focus is a text input.
func (f Focus) IsField() bool { return f == FocusURL || f == FocusQuery }

// Field is a text input and its cursor position in runes.
type Field struct {
	Text   string
	Cursor int
}

// Frame is everything outside the Viewer's own state needed to draw one
// screen.
type Frame struct {
	URL      Field
	Query    Field
	Focus    Focus
	Title    string // page title, if any
	Status   string // one-line message for the status bar
	IsError  bool   // draw Status as an error
	Pending  bool   // a query is waiting on the debounce timer
	QueryRan bool   // a non-blank query has run against the current text
}

const (
	urlLabel   = " URL "
	queryLabel = " CSS "
	fetchHint  = "[Enter] Fetch "
)

// Viewer draws the split-pane scraper screen onto a canvas. It owns the
// scroll positions and the wrapped document text; everything else arrives
// in a Frame.
type Viewer struct {
	canvas *render.Canvas
	panels *Accordion

	panelHeight int
	ratio       float64

	body      string
	bodyLines []string
	wrapWidth int
	docScroll int

	matchScroll int // first visible line of the matches pane
	panelScroll int // first visible body line of the expanded panel

	// layout from the last Draw, used by the scroll helpers
	docHeight   int
	matchHeight int
}

// NewViewer creates a viewer drawing onto canvas. panelHeight caps the body
// lines of an expanded panel; ratio is the document pane's share of width.
func NewViewer(canvas *render.Canvas, panels *Accordion, panelHeight int, ratio float64) *Viewer {
	if panelHeight < 1 {
		panelHeight = 1
	}
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.5
	}
	return &Viewer{
		canvas:      canvas,
		panels:      panels,
		panelHeight: panelHeight,
		ratio:       ratio,
	}
}

// Canvas returns the canvas the viewer draws on.
func (v *Viewer) Canvas() *render.Canvas { return v.canvas }

// SetBody replaces the markup shown in the document pane and scrolls to
// the top.
func (v *Viewer) SetBody(markup string) {
	v.body = markup
	v.bodyLines = nil
	v.wrapWidth = 0
	v.docScroll = 0
}

// Body returns the markup shown in the document pane.
func (v *Viewer) Body() string { return v.body }

// ResetMatches scrolls the matches pane back to the top after the panels
// have been rebuilt.
func (v *Viewer) ResetMatches() {
	v.matchScroll = 0
	v.panelScroll = 0
}

// ScrollDocument moves the document pane by delta lines.
func (v *Viewer) ScrollDocument(delta int) {
	v.docScroll += delta
	v.clampDocScroll()
}

// PageDocument scrolls the document pane by pages (negative is up).
func (v *Viewer) PageDocument(pages int) {
	v.ScrollDocument(pages * max(1, v.docHeight-1))
}

// DocumentTop scrolls to the first line of the document.
func (v *Viewer) DocumentTop() { v.docScroll = 0 }

// DocumentBottom scrolls to the last page of the document.
func (v *Viewer) DocumentBottom() {
	v.docScroll = len(v.bodyLines)
	v.clampDocScroll()
}

func (v *Viewer) clampDocScroll() {
	maxScroll := max(0, len(v.bodyLines)-v.docHeight)
	v.docScroll = max(0, min(v.docScroll, maxScroll))
}

// ScrollPanel scrolls the body of the expanded panel by delta lines.
func (v *Viewer) ScrollPanel(delta int) {
	v.panelScroll = max(0, v.panelScroll+delta)
}

// ResetPanelScroll scrolls the expanded panel's body to its first line.
func (v *Viewer) ResetPanelScroll() { v.panelScroll = 0 }

// Resize adapts the canvas to a new terminal size.
func (v *Viewer) Resize(width, height int) {
	v.canvas.Resize(width, height)
	v.wrapWidth = 0
}

// Draw renders the whole screen.
func (v *Viewer) Draw(f Frame) {
	c := v.canvas
	c.Clear()
	width, height := c.Width(), c.Height()
	if width < 20 || height < 6 {
		c.WriteString(0, 0, "terminal too small", render.Style{Dim: true})
		return
	}

	leftWidth := int(float64(width) * v.ratio)
	leftWidth = max(10, min(leftWidth, width-12))
	rightX := leftWidth + 1
	rightWidth := width - rightX

	v.drawURLBar(f, width)
	c.DrawHLine(0, 1, width, '─', render.Style{Dim: true})
	c.Set(leftWidth, 1, '┬', render.Style{Dim: true})
	c.DrawVLine(leftWidth, 2, height-3, '│', render.Style{Dim: true})

	v.drawDocument(f, 0, 2, leftWidth, height-3)
	v.drawQueryBar(f, rightX, 2, rightWidth)
	c.DrawHLine(rightX, 3, rightWidth, '─', render.Style{Dim: true})
	c.Set(leftWidth, 3, '├', render.Style{Dim: true})
	v.drawMatches(f, rightX, 4, rightWidth, height-5)
	v.drawStatusBar(f, width, height-1)
}

func (v *Viewer) drawURLBar(f Frame, width int) {
	labelStyle := render.Style{Bold: true}
	if f.Focus == FocusURL {
		labelStyle.Reverse = true
	}
	n := v.canvas.WriteString(0, 0, urlLabel, labelStyle)

	// the fetch action is disabled while the field is empty
	hintStyle := render.Style{Dim: true}
	if strings.TrimSpace(f.URL.Text) != "" {
		hintStyle = render.Style{Bold: true, FgColor: render.ColorGreen}
	}
	hintWidth := render.StringWidth(fetchHint)
	v.canvas.WriteString(width-hintWidth, 0, fetchHint, hintStyle)

	v.drawField(n+1, 0, width-n-hintWidth-2, f.URL, f.Focus == FocusURL, "type a URL and press Enter")
}

func (v *Viewer) drawQueryBar(f Frame, x, y, width int) {
	labelStyle := render.Style{Bold: true}
	if f.Focus == FocusQuery {
		labelStyle.Reverse = true
	}
	n := v.canvas.WriteString(x, y, queryLabel, labelStyle)

	count, countStyle := v.matchSummary(f)
	countWidth := render.StringWidth(count)
	if count != "" {
		v.canvas.WriteString(x+width-countWidth-1, y, count, countStyle)
	}
	v.drawField(x+n+1, y, width-n-countWidth-3, f.Query, f.Focus == FocusQuery, "CSS selector, e.g. div.item > a")
}

// matchSummary is the counter shown at the end of the query bar.
func (v *Viewer) matchSummary(f Frame) (string, render.Style) {
	switch {
	case f.Pending:
		return "…", render.Style{Dim: true}
	case !f.QueryRan:
		return "", render.Style{}
	case v.panels.Len() == 0:
		return "no matches", render.Style{FgColor: render.ColorYellow}
	case v.panels.Len() == 1:
		return "1 match", render.Style{Bold: true}
	}
	return fmt.Sprintf("%d matches", v.panels.Len()), render.Style{Bold: true}
}

// drawField draws a single-line input, scrolled so the cursor is visible.
func (v *Viewer) drawField(x, y, width int, fld Field, focused bool, placeholder string) {
	if width <= 0 {
		return
	}
	if fld.Text == "" {
		if focused {
			v.canvas.Set(x, y, ' ', render.Style{Reverse: true})
			x++
			width--
		}
		v.canvas.WriteString(x, y, render.TruncateToWidth(placeholder, width), render.Style{Dim: true})
		return
	}

	runes := []rune(fld.Text)
	cursor := max(0, min(fld.Cursor, len(runes)))

	// widest window ending at the cursor that fits
	start, used := cursor, 1
	for start > 0 {
		w := render.UnicodeWidth(runes[start-1])
		if used+w > width {
			break
		}
		used += w
		start--
	}

	col := x
	for i := start; i < len(runes); i++ {
		r := runes[i]
		w := render.UnicodeWidth(r)
		if col+w > x+width {
			break
		}
		style := render.Style{}
		if focused && i == cursor {
			style.Reverse = true
		}
		col += v.canvas.WriteString(col, y, string(r), style)
	}
	if focused && cursor == len(runes) && col < x+width {
		v.canvas.Set(col, y, ' ', render.Style{Reverse: true})
	}
}

func (v *Viewer) drawDocument(f Frame, x, y, width, height int) {
	titleStyle := render.Style{Bold: true}
	if f.Focus == FocusDocument {
		titleStyle.Reverse = true
	}
	n := v.canvas.WriteString(x, y, " Document ", titleStyle)
	if f.Title != "" {
		v.canvas.WriteString(x+n+1, y, render.Truncate(f.Title, width-n-2), render.Style{Dim: true})
	}

	contentWidth := width - 2
	v.docHeight = height - 1
	if v.body == "" {
		v.bodyLines = nil
		v.canvas.WriteString(x+1, y+1, "(nothing fetched yet)", render.Style{Dim: true})
		return
	}
	if v.bodyLines == nil || v.wrapWidth != contentWidth {
		v.bodyLines = render.HardWrap(v.body, contentWidth)
		v.wrapWidth = contentWidth
	}
	v.clampDocScroll()

	for i := 0; i < v.docHeight && v.docScroll+i < len(v.bodyLines); i++ {
		v.canvas.WriteString(x+1, y+1+i, v.bodyLines[v.docScroll+i], render.Style{})
	}

	if len(v.bodyLines) > v.docHeight {
		pos := fmt.Sprintf(" %d/%d ", v.docScroll+1, len(v.bodyLines))
		v.canvas.WriteString(x+width-render.StringWidth(pos), y, pos, render.Style{Dim: true})
	}
}

// matchLine is one row of the matches pane.
type matchLine struct {
	text  string
	style render.Style
	panel int // owning panel
	title bool
}

// matchLines lays out the accordion: one title row per panel plus the
// visible body rows of the expanded panel.
func (v *Viewer) matchLines(width int, focused bool) []matchLine {
	var lines []matchLine
	expanded := v.panels.Expanded()
	selected := v.panels.Selected()

	for i, p := range v.panels.Panels() {
		marker := "▶ "
		if i == expanded {
			marker = "▼ "
		}
		style := render.Style{Bold: true}
		if i == selected && focused {
			style.Reverse = true
		}
		title := marker + p.Title
		if p.Label != p.Title {
			title += "  " + p.Label
		}
		lines = append(lines, matchLine{text: render.TruncateToWidth(title, width), style: style, panel: i, title: true})

		if i != expanded {
			continue
		}
		body := render.HardWrap(p.Body, width-2)
		if len(body) == 0 {
			body = []string{"(empty)"}
		}
		maxScroll := max(0, len(body)-v.panelHeight)
		v.panelScroll = min(v.panelScroll, maxScroll)
		end := min(len(body), v.panelScroll+v.panelHeight)
		for _, l := range body[v.panelScroll:end] {
			lines = append(lines, matchLine{text: "│ " + l, style: render.Style{}, panel: i})
		}
		if end < len(body) || v.panelScroll > 0 {
			more := fmt.Sprintf("└ lines %d-%d of %d", v.panelScroll+1, end, len(body))
			lines = append(lines, matchLine{text: more, style: render.Style{Dim: true}, panel: i})
		}
	}
	return lines
}

func (v *Viewer) drawMatches(f Frame, x, y, width, height int) {
	v.matchHeight = height
	if height <= 0 {
		return
	}
	if v.panels.Len() == 0 {
		msg := "(type a selector above)"
		switch {
		case f.QueryRan:
			msg = "(no elements matched)"
		case f.Pending:
			msg = "(waiting for typing to pause)"
		}
		v.canvas.WriteString(x+1, y, msg, render.Style{Dim: true})
		return
	}

	lines := v.matchLines(width-1, f.Focus == FocusMatches)

	// keep the selected panel's title on screen
	selectedRow := 0
	for i, l := range lines {
		if l.title && l.panel == v.panels.Selected() {
			selectedRow = i
			break
		}
	}
	if selectedRow < v.matchScroll {
		v.matchScroll = selectedRow
	}
	if selectedRow >= v.matchScroll+height {
		v.matchScroll = selectedRow - height + 1
	}
	v.matchScroll = max(0, min(v.matchScroll, len(lines)-1))

	for i := 0; i < height && v.matchScroll+i < len(lines); i++ {
		l := lines[v.matchScroll+i]
		v.canvas.WriteString(x+1, y+i, l.text, l.style)
	}
}

func helpFor(focus Focus) string {
	switch focus {
	case FocusURL:
		return "[Enter] fetch  [^R] recent  [Tab] next pane  [^C] quit"
	case FocusQuery:
		return "[Enter] run now  [Tab] next pane  [^C] quit"
	case FocusDocument:
		return "[j/k] scroll  [PgUp/PgDn] page  [g/G] top/bottom  [Tab] next pane  [q] quit"
	case FocusMatches:
		return "[j/k] select  [Enter/Space] expand  [J/K] scroll panel  [Tab] next pane  [q] quit"
	}
	return ""
}

func (v *Viewer) drawStatusBar(f Frame, width, y int) {
	bar := render.Style{Reverse: true}
	v.canvas.FillLine(0, y, width, bar)

	help := helpFor(f.Focus)
	if f.Status == "" {
		v.canvas.WriteString(1, y, render.TruncateToWidth(help, width-2), bar)
		return
	}

	statusStyle := bar
	if f.IsError {
		statusStyle = render.Style{Reverse: true, Bold: true, FgColor: render.ColorRed}
	}
	n := v.canvas.WriteString(1, y, render.TruncateToWidth(f.Status, width-2), statusStyle)
	if room := width - n - 4; room > render.StringWidth(help) {
		v.canvas.WriteString(width-render.StringWidth(help)-1, y, help, bar)
	}
}
