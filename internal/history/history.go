// Package history records every deletion outcome to a SQLite database for
// later auditing. Recording failures never fail the run; callers log and
// move on.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Actions written to the history table.
const (
	ActionDelete      = "DELETE"
	ActionTrash       = "TRASH"
	ActionDryRun      = "DRY_RUN"
	ActionError       = "ERROR"
	ActionSkipMissing = "SKIP_MISSING"
)

// DB manages the SQLite deletion history
type DB struct {
	db    *sql.DB
	mu    sync.Mutex
	runID int64
}

// Open creates the database connection and initializes the schema.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Probe with a real query so the file gets created and permission
	// problems surface now rather than mid-run.
	if _, err := db.Exec("SELECT 1"); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database (check permissions on %s): %w", dbPath, err)
	}

	// WAL mode: multiple readers, one writer
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set synchronous mode: %w", err)
	}

	h := &DB{db: db}
	if err := h.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

func (h *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		mode TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS deletions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		timestamp DATETIME NOT NULL,
		action TEXT NOT NULL,
		path TEXT NOT NULL,
		file_name TEXT,
		size INTEGER NOT NULL,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_deletions_run ON deletions(run_id);
	CREATE INDEX IF NOT EXISTS idx_deletions_timestamp ON deletions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_deletions_action ON deletions(action);
	CREATE INDEX IF NOT EXISTS idx_deletions_path ON deletions(path);

	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := h.db.Exec(schema)
	return err
}

// BeginRun opens a new run row; subsequent Record calls attach to it.
func (h *DB) BeginRun(mode string) error {
	res, err := h.db.Exec(
		"INSERT INTO runs (started_at, mode) VALUES (?, ?)",
		time.Now(), mode,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}

	h.mu.Lock()
	h.runID = id
	h.mu.Unlock()
	return nil
}

// Record inserts one per-file outcome. Safe for concurrent use by the
// deletion workers.
func (h *DB) Record(action, path string, size uint64, errMsg string) error {
	h.mu.Lock()
	runID := h.runID
	h.mu.Unlock()

	_, err := h.db.Exec(
		`INSERT INTO deletions (run_id, timestamp, action, path, file_name, size, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, time.Now(), action, path, filepath.Base(path), int64(size), errMsg,
	)
	return err
}

// RunSummary returns per-action counts and total bytes for the current run.
func (h *DB) RunSummary() (map[string]int64, uint64, error) {
	h.mu.Lock()
	runID := h.runID
	h.mu.Unlock()

	rows, err := h.db.Query(
		"SELECT action, COUNT(*), COALESCE(SUM(size), 0) FROM deletions WHERE run_id = ? GROUP BY action",
		runID,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	var totalBytes uint64
	for rows.Next() {
		var action string
		var count, bytes int64
		if err := rows.Scan(&action, &count, &bytes); err != nil {
			return nil, 0, err
		}
		counts[action] = count
		if action == ActionDelete || action == ActionTrash {
			totalBytes += uint64(bytes)
		}
	}
	return counts, totalBytes, rows.Err()
}

// Close closes the database connection.
func (h *DB) Close() error {
	return h.db.Close()
}
