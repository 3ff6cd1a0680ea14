// Package journal keeps a local SQLite record of tool invocations.
//
// The journal is optional: the server runs without it when the database
// cannot be opened. Nothing here is ever sent over MCP except the
// aggregate Stats.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// now is replaceable in tests.
var now = func() time.Time { return time.Now().UTC() }

// DefaultRecentLimit bounds Recent when the caller passes zero.
const DefaultRecentLimit = 20

// ─── Types ───────────────────────────────────────────────────────────────────

// Entry is one recorded tool call.
type Entry struct {
	ID         string `json:"id"`
	Tool       string `json:"tool"`
	Args       string `json:"args"`
	Success    bool   `json:"success"`
	DurationMS int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

// RecordParams holds the input for Record. Args should already be
// sanitized; the journal stores it verbatim.
type RecordParams struct {
	Tool     string
	Args     string
	Success  bool
	Duration time.Duration
	Error    string
}

// ToolStats aggregates calls for one tool.
type ToolStats struct {
	Tool          string  `json:"tool"`
	Calls         int     `json:"calls"`
	Failures      int     `json:"failures"`
	AvgDurationMS float64 `json:"avgDurationMs"`
}

// Stats aggregates the whole journal.
type Stats struct {
	TotalCalls int         `json:"totalCalls"`
	Failures   int         `json:"failures"`
	Tools      []ToolStats `json:"tools"`
	LastCallAt *string     `json:"lastCallAt,omitempty"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds journal configuration.
type Config struct {
	DataDir string
}

// ─── Journal ─────────────────────────────────────────────────────────────────

// Journal is the SQLite-backed tool-call record.
type Journal struct {
	db *sql.DB
}

// New opens (creating if needed) journal.db under cfg.DataDir and runs
// migrations.
func New(cfg Config) (*Journal, error) {
	if cfg.DataDir == "" {
		return nil, errors.New("journal: data dir is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("journal: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "journal.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}

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

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: migration: %w", err)
	}
	return j, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS tool_calls (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			id          TEXT NOT NULL UNIQUE,
			tool        TEXT NOT NULL,
			args        TEXT NOT NULL DEFAULT '',
			success     INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			error       TEXT,
			created_at  TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_tool_calls_tool ON tool_calls(tool);
	`
	_, err := j.db.Exec(schema)
	return err
}

// ─── Writes ──────────────────────────────────────────────────────────────────

// Record appends one tool call and returns its id.
func (j *Journal) Record(ctx context.Context, p RecordParams) (string, error) {
	if p.Tool == "" {
		return "", errors.New("journal: tool name is required")
	}

	id := uuid.NewString()
	var errText sql.NullString
	if p.Error != "" {
		errText = sql.NullString{String: p.Error, Valid: true}
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO tool_calls (id, tool, args, success, duration_ms, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, p.Tool, p.Args, p.Success, p.Duration.Milliseconds(), errText, now().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("journal: record %s: %w", p.Tool, err)
	}
	return id, nil
}

// ─── Reads ───────────────────────────────────────────────────────────────────

// Recent returns the latest calls, newest first. limit <= 0 uses
// DefaultRecentLimit.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, tool, args, success, duration_ms, error, created_at
		 FROM tool_calls ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			errText sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Tool, &e.Args, &e.Success, &e.DurationMS, &errText, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.Error = errText.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats aggregates calls per tool, most-called first.
func (j *Journal) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Tools: []ToolStats{}}

	rows, err := j.db.QueryContext(ctx,
		`SELECT tool, COUNT(*), SUM(CASE WHEN success THEN 0 ELSE 1 END), AVG(duration_ms)
		 FROM tool_calls GROUP BY tool ORDER BY COUNT(*) DESC, tool ASC`)
	if err != nil {
		return nil, fmt.Errorf("journal: stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var ts ToolStats
		if err := rows.Scan(&ts.Tool, &ts.Calls, &ts.Failures, &ts.AvgDurationMS); err != nil {
			return nil, fmt.Errorf("journal: scan stats: %w", err)
		}
		stats.TotalCalls += ts.Calls
		stats.Failures += ts.Failures
		stats.Tools = append(stats.Tools, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var last sql.NullString
	if err := j.db.QueryRowContext(ctx, "SELECT MAX(created_at) FROM tool_calls").Scan(&last); err == nil && last.Valid {
		stats.LastCallAt = &last.String
	}
	return stats, nil
}
