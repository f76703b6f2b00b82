package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setupTestStore opens a store whose clock advances one second per write.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "a", "b")
		s, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		defer s.Close()

		if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
			t.Errorf("database file not created: %v", err)
		}
	})

	t.Run("CreateIfNotExists=false requires existing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected an error for a missing database")
		}
	})

	t.Run("reopen keeps data", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		s, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if err := s.RecordFetch(context.Background(), Fetch{URL: "https://example.com"}); err != nil {
			t.Fatalf("RecordFetch failed: %v", err)
		}
		s.Close()

		s, err = Open(dir, Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		defer s.Close()
		urls, err := s.RecentURLs(context.Background(), 10)
		if err != nil || len(urls) != 1 {
			t.Errorf("expected persisted url, got %v (%v)", urls, err)
		}
	})
}

func TestRecentURLsDistinctNewestFirst(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := context.Background()

	for _, u := range []string{"https://a.example", "https://b.example", "https://a.example", "https://c.example"} {
		if err := s.RecordFetch(ctx, Fetch{URL: u, Status: 200}); err != nil {
			t.Fatalf("RecordFetch failed: %v", err)
		}
	}

	urls, err := s.RecentURLs(ctx, 10)
	if err != nil {
		t.Fatalf("RecentURLs failed: %v", err)
	}
	want := []string{"https://c.example", "https://a.example", "https://b.example"}
	if len(urls) != len(want) {
		t.Fatalf("got %v, want %v", urls, want)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}

	limited, err := s.RecentURLs(ctx, 2)
	if err != nil || len(limited) != 2 {
		t.Errorf("limit not applied: %v (%v)", limited, err)
	}
}

func TestRecentInterleavesKinds(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.RecordFetch(ctx, Fetch{URL: "https://shop.example", FinalURL: "https://shop.example/", Status: 200, Bytes: 512, UsedBrowser: true}); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordQuery(ctx, Query{URL: "https://shop.example/", Selector: "li.item", Matches: 3}); err != nil {
		t.Fatal(err)
	}

	entries, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	q, f := entries[0], entries[1]
	if q.Kind != KindQuery || q.Selector != "li.item" || q.Matches != 3 {
		t.Errorf("unexpected query entry: %+v", q)
	}
	if f.Kind != KindFetch || f.Status != 200 || f.Bytes != 512 || !f.UsedBrowser || f.FinalURL != "https://shop.example/" {
		t.Errorf("unexpected fetch entry: %+v", f)
	}
	if !q.At.After(f.At) {
		t.Errorf("entries should be newest first: %v then %v", q.At, f.At)
	}
}

func TestClosedStore(t *testing.T) {
	t.Parallel()

	s, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	ctx := context.Background()
	if err := s.RecordFetch(ctx, Fetch{URL: "x"}); !errors.Is(err, ErrClosed) {
		t.Errorf("RecordFetch after Close: %v", err)
	}
	if _, err := s.Recent(ctx, 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Recent after Close: %v", err)
	}
	if err := s.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close: %v", err)
	}
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = Nop{}
	ctx := context.Background()

	if err := r.RecordFetch(ctx, Fetch{URL: "x"}); err != nil {
		t.Error(err)
	}
	if urls, err := r.RecentURLs(ctx, 5); err != nil || len(urls) != 0 {
		t.Errorf("Nop should return nothing, got %v, %v", urls, err)
	}
}
