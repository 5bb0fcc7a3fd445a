package pubnav

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/pubnav/navigation"
)

// MissRecord aggregates recovered routing failures for one requested path.
type MissRecord struct {
	Path      string
	Resolved  string
	Reason    string
	Hits      int
	FirstSeen time.Time
	LastSeen  time.Time
}

// ViewRecord counts committed navigations and page loads of one route.
type ViewRecord struct {
	Path     string
	Hits     int
	LastSeen time.Time
}

// Store wraps a SQLite database holding routing diagnostics.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets diagnostics writes proceed while readers list them; busy_timeout
	// makes writers wait instead of returning SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db, logger: slog.Default()}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS misses (
    path TEXT PRIMARY KEY,
    resolved TEXT NOT NULL,
    reason TEXT NOT NULL,
    hits INTEGER NOT NULL DEFAULT 0,
    first_seen INTEGER NOT NULL,
    last_seen INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS views (
    path TEXT PRIMARY KEY,
    hits INTEGER NOT NULL DEFAULT 0,
    last_seen INTEGER NOT NULL
);
`)
	return err
}

// RecordMiss upserts a miss, incrementing its hit count.
func (s *Store) RecordMiss(ctx context.Context, m navigation.Miss) error {
	at := m.At
	if at.IsZero() {
		at = time.Now()
	}
	reason := ""
	if m.Err != nil {
		reason = m.Err.Error()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO misses (path, resolved, reason, hits, first_seen, last_seen) VALUES (?, ?, ?, 1, ?, ?)
ON CONFLICT(path) DO UPDATE SET resolved = excluded.resolved, reason = excluded.reason,
    hits = hits + 1, last_seen = excluded.last_seen`,
		m.Requested, m.Resolved, reason, at.Unix(), at.Unix())
	return err
}

// ReportMiss implements navigation.Reporter. Failures are logged.
func (s *Store) ReportMiss(ctx context.Context, m navigation.Miss) {
	if err := s.RecordMiss(ctx, m); err != nil {
		s.logger.Error("record miss", "path", m.Requested, "error", err)
	}
}

// ListMisses returns misses ordered by hit count descending. A non-positive
// limit returns all of them.
func (s *Store) ListMisses(ctx context.Context, limit int) ([]MissRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT path, resolved, reason, hits, first_seen, last_seen FROM misses ORDER BY hits DESC, path ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MissRecord
	for rows.Next() {
		var m MissRecord
		var first, last int64
		if err := rows.Scan(&m.Path, &m.Resolved, &m.Reason, &m.Hits, &first, &last); err != nil {
			return nil, err
		}
		m.FirstSeen = time.Unix(first, 0)
		m.LastSeen = time.Unix(last, 0)
		out = append(out, m)
	}
	return out, rows.Err()
}

// ClearMisses deletes every recorded miss.
func (s *Store) ClearMisses(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM misses`)
	return err
}

// RecordView counts one view of a route.
func (s *Store) RecordView(ctx context.Context, path string) error {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO views (path, hits, last_seen) VALUES (?, 1, ?)
ON CONFLICT(path) DO UPDATE SET hits = hits + 1, last_seen = excluded.last_seen`, path, now)
	return err
}

// ListViews returns view counts ordered by hits descending.
func (s *Store) ListViews(ctx context.Context, limit int) ([]ViewRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT path, hits, last_seen FROM views ORDER BY hits DESC, path ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ViewRecord
	for rows.Next() {
		var v ViewRecord
		var last int64
		if err := rows.Scan(&v.Path, &v.Hits, &last); err != nil {
			return nil, err
		}
		v.LastSeen = time.Unix(last, 0)
		out = append(out, v)
	}
	return out, rows.Err()
}
