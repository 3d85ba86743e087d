// Package journal keeps a metadata log of tool invocations.
//
// One row is written per plan_feature, plan_bug_fix or explain_code call:
// which tool ran against which directory, whether it succeeded, how large
// the codebase report was and how long the whole chain took. Prompts and
// completions are never stored.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Invocation statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// DefaultRecentLimit is used when RecentOptions.Limit is zero or less.
const DefaultRecentLimit = 20

// MaxRecentLimit caps RecentOptions.Limit.
const MaxRecentLimit = 200

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// ─── Types ───────────────────────────────────────────────────────────────────

// Invocation is one recorded tool call.
type Invocation struct {
	ID          string    `json:"id"`
	Tool        string    `json:"tool"`
	Directory   string    `json:"directory"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	ReportChars int       `json:"report_chars"`
	Truncated   bool      `json:"truncated"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecentOptions filters Recent.
type RecentOptions struct {
	Tool  string
	Limit int
}

// ToolStats aggregates invocations of one tool.
type ToolStats struct {
	Tool          string `json:"tool"`
	Success       int    `json:"success"`
	Error         int    `json:"error"`
	Truncated     int    `json:"truncated"`
	AvgDurationMS int64  `json:"avg_duration_ms"`
}

// Stats holds aggregate journal statistics.
type Stats struct {
	Total   int         `json:"total"`
	Success int         `json:"success"`
	Error   int         `json:"error"`
	Tools   []ToolStats `json:"tools"`
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the invocation journal backed by SQLite.
type Store struct {
	db    *sql.DB
	hooks storeHooks
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

type sqlRowScanner struct {
	rows *sql.Rows
}

func (r sqlRowScanner) Next() bool             { return r.rows.Next() }
func (r sqlRowScanner) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r sqlRowScanner) Err() error             { return r.rows.Err() }
func (r sqlRowScanner) Close() error           { return r.rows.Close() }

type storeHooks struct {
	exec    func(db execer, query string, args ...any) (sql.Result, error)
	queryIt func(db queryer, query string, args ...any) (rowScanner, error)
}

func (s *Store) execHook(db execer, query string, args ...any) (sql.Result, error) {
	if s.hooks.exec != nil {
		return s.hooks.exec(db, query, args...)
	}
	return db.Exec(query, args...)
}

func (s *Store) queryItHook(db queryer, query string, args ...any) (rowScanner, error) {
	if s.hooks.queryIt != nil {
		return s.hooks.queryIt(db, query, args...)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRowScanner{rows: rows}, nil
}

// DefaultDataDir returns ~/.codeagent.
func DefaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".codeagent")
}

// New opens (creating if needed) the journal in dataDir and runs
// migrations.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("journal: create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "journal.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}
	// Pragmas apply per connection; a single connection keeps them in force.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("journal: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS invocations (
			id           TEXT    PRIMARY KEY,
			tool         TEXT    NOT NULL,
			directory    TEXT    NOT NULL,
			status       TEXT    NOT NULL CHECK (status IN ('success', 'error')),
			error        TEXT    NOT NULL DEFAULT '',
			report_chars INTEGER NOT NULL DEFAULT 0,
			truncated    INTEGER NOT NULL DEFAULT 0,
			duration_ms  INTEGER NOT NULL DEFAULT 0,
			created_at   TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_inv_created ON invocations(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_inv_tool    ON invocations(tool, created_at DESC);
	`
	_, err := s.execHook(s.db, schema)
	return err
}

// ─── Writes ──────────────────────────────────────────────────────────────────

// Record stores inv. A missing ID or CreatedAt is filled in; the stored
// values are returned.
func (s *Store) Record(inv Invocation) (Invocation, error) {
	if strings.TrimSpace(inv.Tool) == "" {
		return inv, errors.New("journal: tool is required")
	}
	if inv.Status != StatusSuccess && inv.Status != StatusError {
		return inv, fmt.Errorf("journal: invalid status %q", inv.Status)
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now()
	}
	inv.CreatedAt = inv.CreatedAt.UTC().Truncate(time.Millisecond)

	_, err := s.execHook(s.db,
		`INSERT INTO invocations (id, tool, directory, status, error, report_chars, truncated, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Tool, inv.Directory, inv.Status, inv.Error,
		inv.ReportChars, boolToInt(inv.Truncated), inv.DurationMS, inv.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return inv, fmt.Errorf("journal: record invocation: %w", err)
	}
	return inv, nil
}

// ─── Reads ───────────────────────────────────────────────────────────────────

// Recent returns invocations newest first.
func (s *Store) Recent(opts RecentOptions) ([]Invocation, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	query := `SELECT id, tool, directory, status, error, report_chars, truncated, duration_ms, created_at
		FROM invocations`
	var args []any
	if opts.Tool != "" {
		query += " WHERE tool = ?"
		args = append(args, opts.Tool)
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.queryItHook(s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: query recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Invocation
	for rows.Next() {
		var (
			inv       Invocation
			truncated int
			created   string
		)
		if err := rows.Scan(
			&inv.ID, &inv.Tool, &inv.Directory, &inv.Status, &inv.Error,
			&inv.ReportChars, &truncated, &inv.DurationMS, &created,
		); err != nil {
			return nil, fmt.Errorf("journal: scan invocation: %w", err)
		}
		inv.Truncated = truncated != 0
		if t, err := time.Parse(timeLayout, created); err == nil {
			inv.CreatedAt = t
		}
		results = append(results, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterate invocations: %w", err)
	}
	return results, nil
}

// Stats returns totals overall and per tool.
func (s *Store) Stats() (*Stats, error) {
	rows, err := s.queryItHook(s.db, `
		SELECT tool,
		       SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN status = 'error'   THEN 1 ELSE 0 END),
		       SUM(truncated),
		       CAST(AVG(duration_ms) AS INTEGER)
		FROM invocations
		GROUP BY tool
		ORDER BY tool`)
	if err != nil {
		return nil, fmt.Errorf("journal: query stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stats := &Stats{}
	for rows.Next() {
		var ts ToolStats
		if err := rows.Scan(&ts.Tool, &ts.Success, &ts.Error, &ts.Truncated, &ts.AvgDurationMS); err != nil {
			return nil, fmt.Errorf("journal: scan stats: %w", err)
		}
		stats.Tools = append(stats.Tools, ts)
		stats.Success += ts.Success
		stats.Error += ts.Error
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterate stats: %w", err)
	}
	stats.Total = stats.Success + stats.Error
	return stats, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
