package report

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL UNIQUE,
	started_at  TIMESTAMP NOT NULL,
	duration_ms INTEGER NOT NULL,
	total       INTEGER NOT NULL,
	passed      INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	pass_rate   REAL NOT NULL,
	report_path TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// RunRecord is one row of the run history.
type RunRecord struct {
	RunID      string
	StartedAt  time.Time
	Duration   time.Duration
	Total      int
	Passed     int
	Failed     int
	Skipped    int
	PassRate   float64
	ReportPath string
}

// History persists run summaries to a SQLite database so past runs can be
// listed and compared after individual reports are rotated away.
type History struct {
	db *sql.DB
}

// OpenHistory opens (creating if needed) the run-history database at dbPath.
func OpenHistory(dbPath string) (*History, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	// busy_timeout first so schema creation waits on concurrent invocations.
	for _, pragma := range []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}

	return &History{db: db}, nil
}

// Close closes the underlying database.
func (h *History) Close() error {
	return h.db.Close()
}

// Record appends one run summary.
func (h *History) Record(rep *Report, reportPath string) error {
	_, err := h.db.Exec(
		`INSERT INTO runs (run_id, started_at, duration_ms, total, passed, failed, skipped, pass_rate, report_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.RunID, rep.StartedAt.UTC(), rep.Elapsed.Milliseconds(),
		rep.Total, rep.Passed, rep.Failed, rep.Skipped, rep.PassRate, reportPath,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", rep.RunID, err)
	}
	return nil
}

// Recent returns the most recent runs, newest first.
func (h *History) Recent(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.Query(
		`SELECT run_id, started_at, duration_ms, total, passed, failed, skipped, pass_rate, report_path
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query run history: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var durationMS int64
		if err := rows.Scan(&rec.RunID, &rec.StartedAt, &durationMS, &rec.Total, &rec.Passed,
			&rec.Failed, &rec.Skipped, &rec.PassRate, &rec.ReportPath); err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}
