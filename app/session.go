// Package app runs the interactive scraper: a URL field, the fetched page's
// body markup, and a selector field whose matches are re-queried once
// typing pauses.
//
// All state lives in a Session and is touched only by the event loop
// goroutine. Input, the debounce timer and resize signals only send on
// channels.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"scraper/document"
	"scraper/fetcher"
	"scraper/history"
	"scraper/inspector"
	"scraper/lineedit"
	"scraper/omnibox"
	"scraper/render"
)

// PageFetcher retrieves a page. *fetcher.Fetcher satisfies it.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Result, error)
}

// Waiter runs blocking work while keeping the screen alive. A nil Waiter
// runs the work directly.
type Waiter func(message string, work func())

// Action tells the event loop what a key press requires beyond a redraw.
type Action int

const (
	ActionNone         Action = iota // nothing changed
	ActionRedraw                     // state changed; draw again
	ActionQuit                       // leave the program
	ActionFetch                      // fetch the URL field
	ActionQueryChanged               // query text changed; restart the debounce timer
	ActionRunQuery                   // run the query now
)

// statusFetchFailed is shown when a fetch fails; details go to the log.
const statusFetchFailed = "fetch failed (see log)"

// Options configures a Session.
type Options struct {
	Fetcher           PageFetcher
	History           history.Recorder // nil disables history
	Logger            *slog.Logger
	PanelHeight       int
	DocumentPaneRatio float64
	HistoryLimit      int
}

// Session is the state of one interactive run.
type Session struct {
	fetcher PageFetcher
	history history.Recorder
	logger  *slog.Logger

	scheme lineedit.KeyScheme
	url    *lineedit.Editor
	query  *lineedit.Editor

	doc    *document.Document
	panels *inspector.Accordion
	viewer *inspector.Viewer
	focus  inspector.Focus

	status   string
	isError  bool
	queryRan bool

	historyLimit int
	recent       []string
	recentIdx    int
}

// NewSession creates a session drawing onto canvas.
func NewSession(opts Options, canvas *render.Canvas) *Session {
	if opts.History == nil {
		opts.History = history.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 20
	}

	panels := inspector.NewAccordion()
	return &Session{
		fetcher:      opts.Fetcher,
		history:      opts.History,
		logger:       opts.Logger,
		scheme:       lineedit.NewEmacsScheme(),
		url:          lineedit.New(),
		query:        lineedit.New(),
		panels:       panels,
		viewer:       inspector.NewViewer(canvas, panels, opts.PanelHeight, opts.DocumentPaneRatio),
		focus:        inspector.FocusURL,
		historyLimit: opts.HistoryLimit,
		recentIdx:    -1,
	}
}

// Viewer returns the session's screen.
func (s *Session) Viewer() *inspector.Viewer { return s.viewer }

// Panels returns the matches accordion.
func (s *Session) Panels() *inspector.Accordion { return s.panels }

// Document returns the current document, or nil before the first fetch.
func (s *Session) Document() *document.Document { return s.doc }

// Focus returns the focused area.
func (s *Session) Focus() inspector.Focus { return s.focus }

// Status returns the status line and whether it reports an error.
func (s *Session) Status() (string, bool) { return s.status, s.isError }

// URL returns the URL field text.
func (s *Session) URL() string { return s.url.Text() }

// Query returns the query field text.
func (s *Session) Query() string { return s.query.Text() }

// SetURL replaces the URL field text.
func (s *Session) SetURL(u string) { s.url.Set(u) }

// SetQuery replaces the query field text.
func (s *Session) SetQuery(q string) { s.query.Set(q) }

// SetFocus moves the focus.
func (s *Session) SetFocus(f inspector.Focus) { s.focus = f }

func (s *Session) setStatus(msg string) {
	s.status, s.isError = msg, false
}

func (s *Session) setError(msg string) {
	s.status, s.isError = msg, true
}

// Frame collects the state the viewer needs. pending reports whether the
// debounce timer is running.
func (s *Session) Frame(pending bool) inspector.Frame {
	return inspector.Frame{
		URL:      inspector.Field{Text: s.url.Text(), Cursor: s.url.Cursor()},
		Query:    inspector.Field{Text: s.query.Text(), Cursor: s.query.Cursor()},
		Focus:    s.focus,
		Title:    s.doc.Title(),
		Status:   s.status,
		IsError:  s.isError,
		Pending:  pending,
		QueryRan: s.queryRan,
	}
}

// Draw renders the session onto the viewer's canvas.
func (s *Session) Draw(pending bool) {
	s.viewer.Draw(s.Frame(pending))
}

// Fetch resolves and fetches the URL field and, on success, replaces the
// document and the displayed body, then re-runs a non-blank query. It does
// nothing while the field is blank. On failure the previous document is
// kept, the error is logged and the status line says so.
func (s *Session) Fetch(ctx context.Context, wait Waiter) error {
	if render.IsBlank(s.url.Text()) {
		return nil
	}
	target, err := omnibox.Resolve(s.url.Text())
	if err != nil {
		s.setError(err.Error())
		return err
	}
	s.url.Set(target)

	var res *fetcher.Result
	work := func() { res, err = s.fetcher.Fetch(ctx, target) }
	if wait == nil {
		work()
	} else {
		wait(target, work)
	}
	if err != nil {
		s.logger.Error("fetch failed", "url", target, "error", err)
		s.setError(statusFetchFailed)
		return err
	}

	doc, err := document.Parse(res.HTML, res.FinalURL)
	if err != nil {
		s.logger.Error("parse failed", "url", target, "error", err)
		s.setError(statusFetchFailed)
		return err
	}
	body, err := doc.BodyHTML()
	if err != nil {
		s.logger.Error("rendering body failed", "url", target, "error", err)
		s.setError(statusFetchFailed)
		return err
	}

	s.doc = doc
	s.viewer.SetBody(body)
	s.recent = nil
	s.logger.Info("fetched",
		"url", target,
		"final_url", res.FinalURL,
		"status", res.StatusCode,
		"bytes", len(res.HTML),
		"browser", res.UsedBrowser,
		"elapsed", res.FetchTime.Round(time.Millisecond))
	s.setStatus(fetchSummary(res))

	if herr := s.history.RecordFetch(ctx, history.Fetch{
		URL:         target,
		FinalURL:    res.FinalURL,
		Status:      res.StatusCode,
		Bytes:       len(res.HTML),
		UsedBrowser: res.UsedBrowser,
	}); herr != nil {
		s.logger.Warn("recording fetch in history", "error", herr)
	}

	if !render.IsBlank(s.query.Text()) {
		s.RunQuery(ctx)
	}
	return nil
}

func fetchSummary(res *fetcher.Result) string {
	msg := fmt.Sprintf("fetched %s", res.FinalURL)
	if res.StatusCode != 0 {
		msg += fmt.Sprintf(" [%d]", res.StatusCode)
	}
	if res.UsedBrowser {
		msg += " via browser"
	}
	return msg + fmt.Sprintf(" in %s", res.FetchTime.Round(time.Millisecond))
}

// RunQuery clears the panels and rebuilds them from the query field. A
// blank query leaves them empty.
func (s *Session) RunQuery(ctx context.Context) {
	selector := strings.TrimSpace(s.query.Text())
	s.panels.Clear()
	s.viewer.ResetMatches()
	s.queryRan = false

	if selector == "" {
		if s.isError {
			s.setStatus("")
		}
		return
	}

	start := time.Now()
	matches, err := s.doc.Query(selector)
	var selErr *document.SelectorError
	switch {
	case errors.Is(err, document.ErrNoDocument):
		s.setError(err.Error())
		return
	case errors.As(err, &selErr):
		s.logger.Debug("selector rejected", "selector", selector, "error", selErr.Err)
		s.setError(selErr.Error())
		return
	case err != nil:
		s.logger.Error("query failed", "selector", selector, "error", err)
		s.setError(err.Error())
		return
	}

	s.panels.Reset(matches)
	s.queryRan = true
	if s.isError {
		s.setStatus("")
	}
	s.logger.Info("query", "selector", selector, "matches", len(matches), "elapsed", time.Since(start))

	if herr := s.history.RecordQuery(ctx, history.Query{
		URL:      s.doc.URL(),
		Selector: selector,
		Matches:  len(matches),
	}); herr != nil {
		s.logger.Warn("recording query in history", "error", herr)
	}
}

// CycleRecent replaces the URL field with the next recently fetched URL.
func (s *Session) CycleRecent(ctx context.Context) bool {
	if s.recent == nil {
		urls, err := s.history.RecentURLs(ctx, s.historyLimit)
		if err != nil {
			s.logger.Warn("loading recent urls", "error", err)
		}
		s.recent = urls
		s.recentIdx = -1
	}
	if len(s.recent) == 0 {
		s.setStatus("no history yet")
		return true
	}
	s.recentIdx = (s.recentIdx + 1) % len(s.recent)
	s.url.SaveState()
	s.url.Set(s.recent[s.recentIdx])
	s.setStatus(fmt.Sprintf("recent %d/%d", s.recentIdx+1, len(s.recent)))
	return true
}
