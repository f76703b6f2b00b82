package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scraper/debounce"
	"scraper/render"
)

// Config holds what Run needs beyond the session options.
type Config struct {
	Session    Options
	Debounce   time.Duration
	InitialURL string
}

// Run takes over the terminal and runs the interactive session until the
// user quits or ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	term, err := render.NewTerminal(os.Stdin)
	if err != nil {
		return fmt.Errorf("stdin is not a terminal: %w", err)
	}
	width, height, err := render.TerminalSize()
	if err != nil {
		return err
	}

	if err := term.EnterRawMode(); err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}
	defer term.RestoreMode()
	render.EnterAltScreen(os.Stdout)
	defer render.ExitAltScreen(os.Stdout)

	canvas := render.NewCanvas(width, height)
	s := NewSession(cfg.Session, canvas)

	l := newLoop(s, os.Stdout, cfg.Debounce)
	defer l.debouncer.Stop()

	done := make(chan struct{})
	defer close(done)
	keys := make(chan []byte, 16)
	go readKeys(os.Stdin, keys, done)

	resizeCh := make(chan os.Signal, 1)
	signal.Notify(resizeCh, syscall.SIGWINCH)
	defer signal.Stop(resizeCh)

	if cfg.InitialURL != "" {
		s.SetURL(cfg.InitialURL)
		s.SetFocus(s.Focus().Next())
		_ = s.Fetch(ctx, l.spinnerWaiter())
	}
	l.redraw()

	for {
		select {
		case <-ctx.Done():
			return nil
		case key, ok := <-keys:
			if !ok {
				return nil
			}
			if quit := l.handle(ctx, key); quit {
				return nil
			}
		case <-l.queryReady:
			s.RunQuery(ctx)
			l.redraw()
		case <-resizeCh:
			if w, h, err := render.TerminalSize(); err == nil {
				s.Viewer().Resize(w, h)
			}
			l.redraw()
		}
	}
}

// loop couples a Session to its output and debounce timer.
type loop struct {
	s          *Session
	out        io.Writer
	debouncer  *debounce.Debouncer
	queryReady chan struct{}
}

func newLoop(s *Session, out io.Writer, interval time.Duration) *loop {
	if interval <= 0 {
		interval = time.Second
	}
	l := &loop{s: s, out: out, queryReady: make(chan struct{}, 1)}
	l.debouncer = debounce.New(interval, func() {
		// never block the timer goroutine; one queued run is enough
		select {
		case l.queryReady <- struct{}{}:
		default:
		}
	})
	return l
}

// handle applies one key and reports whether to quit.
func (l *loop) handle(ctx context.Context, key []byte) bool {
	switch l.s.HandleKey(ctx, key) {
	case ActionQuit:
		return true
	case ActionFetch:
		_ = l.s.Fetch(ctx, l.spinnerWaiter())
	case ActionQueryChanged:
		l.debouncer.Trigger()
	case ActionRunQuery:
		l.cancelPending()
		l.s.RunQuery(ctx)
	case ActionNone:
		return false
	}
	l.redraw()
	return false
}

// cancelPending stops the debounce timer and drops a run it already queued.
func (l *loop) cancelPending() {
	l.debouncer.Cancel()
	select {
	case <-l.queryReady:
	default:
	}
}

func (l *loop) redraw() {
	l.s.Draw(l.debouncer.Pending())
	l.s.Viewer().Canvas().RenderTo(l.out)
}

func (l *loop) spinnerWaiter() Waiter {
	return func(message string, work func()) {
		withSpinner(l.s.Viewer().Canvas(), l.out, message, func() struct{} {
			work()
			return struct{}{}
		})
	}
}

// withSpinner runs work on its own goroutine and animates a loading box
// until it returns.
func withSpinner[T any](canvas *render.Canvas, out io.Writer, message string, work func() T) T {
	resultCh := make(chan T, 1)
	go func() {
		resultCh <- work()
	}()

	loader := render.NewLoadingDisplay(message)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case result := <-resultCh:
			return result
		case <-ticker.C:
			if loader.Tick() {
				loader.Draw(canvas, "Fetching")
				canvas.RenderTo(out)
			}
		}
	}
}

// readKeys forwards each terminal read as one key event. The terminal is
// in raw mode with a read timeout, so Read returns periodically and the
// loop can notice done.
func readKeys(in io.Reader, keys chan<- []byte, done <-chan struct{}) {
	defer close(keys)
	buf := make([]byte, 256)
	for {
		select {
		case <-done:
			return
		default:
		}

		n, err := in.Read(buf)
		if n > 0 {
			key := make([]byte, n)
			copy(key, buf[:n])
			select {
			case keys <- key:
			case <-done:
				return
			}
		}
		if err != nil && err != io.EOF {
			return
		}
	}
}
