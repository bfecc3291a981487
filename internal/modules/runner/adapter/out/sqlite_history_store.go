package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"devlaunch/internal/modules/runner/domain"
	runnerout "devlaunch/internal/modules/runner/port/out"

	_ "modernc.org/sqlite"
)

const (
	defaultHistoryLimit = 50
	timeLayout          = "2006-01-02T15:04:05.000000000Z07:00"
)

type SQLiteHistoryStore struct {
	db *sql.DB
}

func NewSQLiteHistoryStore(dbPath string) (runnerout.HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	store := &SQLiteHistoryStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteHistoryStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  label TEXT NOT NULL,
  argv TEXT NOT NULL,
  dir TEXT,
  mode TEXT NOT NULL,
  state TEXT NOT NULL,
  exit_code INTEGER NOT NULL,
  started_at TEXT NOT NULL,
  finished_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	return nil
}

func (s *SQLiteHistoryStore) Record(ctx context.Context, entry domain.HistoryEntry) error {
	const stmt = `
INSERT INTO runs (id, label, argv, dir, mode, state, exit_code, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  state=excluded.state,
  exit_code=excluded.exit_code,
  finished_at=excluded.finished_at;
`
	argv, err := json.Marshal(entry.Argv)
	if err != nil {
		return fmt.Errorf("encode argv: %w", err)
	}
	finished := ""
	if !entry.FinishedAt.IsZero() {
		finished = entry.FinishedAt.UTC().Format(timeLayout)
	}
	_, err = s.db.ExecContext(ctx, stmt,
		entry.ID,
		entry.Label,
		string(argv),
		entry.Dir,
		string(entry.Mode),
		string(entry.State),
		entry.ExitCode,
		entry.StartedAt.UTC().Format(timeLayout),
		finished,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

func (s *SQLiteHistoryStore) List(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, label, argv, dir, mode, state, exit_code, started_at, finished_at
FROM runs
ORDER BY started_at DESC, id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	out := []domain.HistoryEntry{}
	for rows.Next() {
		var (
			entry             domain.HistoryEntry
			argv, mode, state string
			dir, finished     sql.NullString
			started           string
		)
		if err := rows.Scan(&entry.ID, &entry.Label, &argv, &dir, &mode, &state, &entry.ExitCode, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(argv), &entry.Argv); err != nil {
			return nil, fmt.Errorf("decode argv for %s: %w", entry.ID, err)
		}
		entry.Dir = dir.String
		entry.Mode = domain.Mode(mode)
		entry.State = domain.RunState(state)
		if entry.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parse started_at for %s: %w", entry.ID, err)
		}
		if finished.String != "" {
			if entry.FinishedAt, err = time.Parse(timeLayout, finished.String); err != nil {
				return nil, fmt.Errorf("parse finished_at for %s: %w", entry.ID, err)
			}
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

func (s *SQLiteHistoryStore) Close() error {
	return s.db.Close()
}
