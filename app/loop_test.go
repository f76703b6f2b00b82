package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"scraper/history"
	"scraper/render"
)

func TestLoopDebouncesQuery(t *testing.T) {
	s := newTestSession(t, &stubFetcher{html: catalogPage}, nil)
	s.SetURL("https://catalog.example")
	ctx := context.Background()
	if err := s.Fetch(ctx, nil); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	s.SetFocus(s.Focus().Next())

	l := newLoop(s, io.Discard, 30*time.Millisecond)
	defer l.debouncer.Stop()

	for _, k := range "h2" {
		l.handle(ctx, []byte(string(k)))
	}
	if s.Panels().Len() != 0 {
		t.Fatal("the query must not run before typing pauses")
	}
	if !l.debouncer.Pending() {
		t.Fatal("typing should start the debounce timer")
	}

	select {
	case <-l.queryReady:
	case <-time.After(time.Second):
		t.Fatal("debounced query never became ready")
	}
	s.RunQuery(ctx)
	if s.Panels().Len() != 2 {
		t.Errorf("expected 2 panels, got %d", s.Panels().Len())
	}

	select {
	case <-l.queryReady:
		t.Error("one burst of typing should produce one query")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestLoopEnterRunsQueryImmediately(t *testing.T) {
	s := newTestSession(t, &stubFetcher{html: catalogPage}, nil)
	s.SetURL("https://catalog.example")
	ctx := context.Background()
	_ = s.Fetch(ctx, nil)
	s.SetFocus(s.Focus().Next())

	l := newLoop(s, io.Discard, time.Hour)
	defer l.debouncer.Stop()

	l.handle(ctx, []byte("h"))
	l.handle(ctx, []byte("2"))
	l.handle(ctx, []byte{keyEnter})

	if s.Panels().Len() != 2 {
		t.Errorf("Enter should run the query, got %d panels", s.Panels().Len())
	}
	if l.debouncer.Pending() {
		t.Error("Enter should cancel the pending debounce")
	}
}

func TestLoopEnterDropsQueuedQuery(t *testing.T) {
	store, err := history.Open(t.TempDir(), history.DefaultOptions())
	if err != nil {
		t.Fatalf("opening history: %v", err)
	}
	defer store.Close()

	s := NewSession(Options{
		Fetcher:     &stubFetcher{html: catalogPage},
		History:     store,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		PanelHeight: 5,
	}, render.NewCanvas(100, 30))
	s.SetURL("https://catalog.example")
	ctx := context.Background()
	if err := s.Fetch(ctx, nil); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	s.SetFocus(s.Focus().Next())
	s.SetQuery("h2")

	l := newLoop(s, io.Discard, time.Hour)
	defer l.debouncer.Stop()

	// the timer fired just before Enter was read
	l.queryReady <- struct{}{}
	l.handle(ctx, []byte{keyEnter})

	select {
	case <-l.queryReady:
		t.Fatal("Enter should drop the queued debounced run")
	default:
	}

	entries, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	queries := 0
	for _, e := range entries {
		if e.Kind == history.KindQuery {
			queries++
		}
	}
	if queries != 1 {
		t.Errorf("expected one recorded query, got %d", queries)
	}
}

func TestLoopQuit(t *testing.T) {
	s := newTestSession(t, &stubFetcher{}, nil)
	l := newLoop(s, io.Discard, time.Second)
	defer l.debouncer.Stop()

	if !l.handle(context.Background(), []byte{keyCtrlC}) {
		t.Error("Ctrl-C should end the loop")
	}
}

func TestWithSpinnerReturnsResult(t *testing.T) {
	canvas := render.NewCanvas(60, 10)
	got := withSpinner(canvas, io.Discard, "https://slow.example", func() int {
		time.Sleep(120 * time.Millisecond)
		return 42
	})
	if got != 42 {
		t.Errorf("got %d", got)
	}
}

func TestReadKeys(t *testing.T) {
	r, w := io.Pipe()
	keys := make(chan []byte, 4)
	done := make(chan struct{})
	go readKeys(r, keys, done)

	go w.Write([]byte("ab"))
	select {
	case k := <-keys:
		if string(k) != "ab" {
			t.Errorf("got %q", k)
		}
	case <-time.After(time.Second):
		t.Fatal("no key read")
	}

	close(done)
	w.Close()
	select {
	case _, ok := <-keys:
		if ok {
			t.Error("expected keys to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("reader did not stop")
	}
}
