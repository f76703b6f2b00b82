// Package history keeps a local SQLite record of fetched pages and the
// selectors run against them.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the database file created inside the directory given to Open.
const FileName = "history.db"

// ErrClosed is returned by a Store after Close.
var ErrClosed = errors.New("history store is closed")

// Kind distinguishes history entries.
type Kind string

const (
	KindFetch Kind = "fetch"
	KindQuery Kind = "query"
)

// Fetch describes one completed page fetch.
type Fetch struct {
	URL         string
	FinalURL    string
	Status      int
	Bytes       int
	UsedBrowser bool
}

// Query describes one selector run against a page.
type Query struct {
	URL      string
	Selector string
	Matches  int
}

// Entry is one row of history, either a fetch or a query.
type Entry struct {
	Kind        Kind
	URL         string
	FinalURL    string // fetch only
	Status      int    // fetch only
	Bytes       int    // fetch only
	UsedBrowser bool   // fetch only
	Selector    string // query only
	Matches     int    // query only
	At          time.Time
}

// Recorder is implemented by Store and by the no-op store used when history
// is disabled.
type Recorder interface {
	RecordFetch(ctx context.Context, f Fetch) error
	RecordQuery(ctx context.Context, q Query) error
	RecentURLs(ctx context.Context, limit int) ([]string, error)
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Options configures Open.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL switches the journal to write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Store is a SQLite-backed Recorder.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time

	mu     sync.Mutex
	closed bool
}

var _ Recorder = (*Store)(nil)

// Open opens or creates the history database in dir.
func Open(dir string, opts Options) (*Store, error) {
	path := filepath.Join(dir, FileName)

	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("history database %s: %w", path, err)
	}

	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
	}
	db, err := sql.Open("sqlite", path+"?mode="+mode)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	db.SetMaxOpenConns(1) // one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, path: path, now: time.Now}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enabling WAL: %w", err)
		}
	}
	if err := s.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating history tables: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database. Later calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Store) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS fetches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		final_url TEXT NOT NULL DEFAULT '',
		status INTEGER NOT NULL DEFAULT 0,
		bytes INTEGER NOT NULL DEFAULT 0,
		used_browser INTEGER NOT NULL DEFAULT 0,
		fetched_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fetches_url ON fetches(url);
	CREATE INDEX IF NOT EXISTS idx_fetches_at ON fetches(fetched_at);

	CREATE TABLE IF NOT EXISTS queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		selector TEXT NOT NULL,
		matches INTEGER NOT NULL DEFAULT 0,
		queried_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_queries_at ON queries(queried_at);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// RecordFetch stores a completed fetch.
func (s *Store) RecordFetch(ctx context.Context, f Fetch) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fetches (url, final_url, status, bytes, used_browser, fetched_at) VALUES (?, ?, ?, ?, ?, ?)`,
		f.URL, f.FinalURL, f.Status, f.Bytes, boolToInt(f.UsedBrowser), s.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("recording fetch: %w", err)
	}
	return nil
}

// RecordQuery stores a selector run.
func (s *Store) RecordQuery(ctx context.Context, q Query) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO queries (url, selector, matches, queried_at) VALUES (?, ?, ?, ?)`,
		q.URL, q.Selector, q.Matches, s.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("recording query: %w", err)
	}
	return nil
}

// RecentURLs returns distinct fetched URLs, most recently fetched first.
func (s *Store) RecentURLs(ctx context.Context, limit int) ([]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT url FROM fetches
	GROUP BY url
	ORDER BY MAX(fetched_at) DESC, MAX(id) DESC
	LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scanning url: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// Recent returns fetches and queries interleaved, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT kind, url, final_url, status, bytes, used_browser, selector, matches, at FROM (
		SELECT 'fetch' AS kind, url, final_url, status, bytes, used_browser,
			'' AS selector, 0 AS matches, fetched_at AS at, id
		FROM fetches
		UNION ALL
		SELECT 'query' AS kind, url, '' AS final_url, 0 AS status, 0 AS bytes, 0 AS used_browser,
			selector, matches, queried_at AS at, id
		FROM queries
	)
	ORDER BY at DESC, id DESC
	LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			kind    string
			browser int
			at      int64
		)
		if err := rows.Scan(&kind, &e.URL, &e.FinalURL, &e.Status, &e.Bytes, &browser, &e.Selector, &e.Matches, &at); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.Kind = Kind(kind)
		e.UsedBrowser = browser != 0
		e.At = time.Unix(0, at)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
