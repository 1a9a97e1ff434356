// Package sqlite persists the execution history in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
	_ "modernc.org/sqlite"
)

// HistoryStore implements ports.HistoryStore on a SQLite table.
type HistoryStore struct {
	db    *sql.DB
	limit int
}

var _ ports.HistoryStore = (*HistoryStore)(nil)

type Option func(*HistoryStore)

// WithLimit keeps only the newest n records. Zero keeps everything.
func WithLimit(n int) Option {
	return func(s *HistoryStore) {
		s.limit = max(0, n)
	}
}

// Open creates or opens the history database at path.
// The parent directory and the schema are created when missing.
func Open(path string, opts ...Option) (*HistoryStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &HistoryStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *HistoryStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		name TEXT NOT NULL,
		phrase TEXT NOT NULL,
		operator TEXT NOT NULL,
		params TEXT NOT NULL,
		type TEXT NOT NULL,
		mode TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_name ON history(name);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts rec and prunes records beyond the configured limit.
func (s *HistoryStore) Record(ctx context.Context, rec domain.EnrichedRecord) error {
	params, err := json.Marshal(rec.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO history (run_id, name, phrase, operator, params, type, mode, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Name, rec.Phrase, rec.Operator, string(params),
		string(rec.Type), rec.Mode, ts.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record history: %w", err)
	}

	if s.limit > 0 {
		_, err = s.db.ExecContext(ctx,
			`DELETE FROM history WHERE id <= (SELECT MAX(id) FROM history) - ?`, s.limit)
		if err != nil {
			return fmt.Errorf("prune history: %w", err)
		}
	}
	return nil
}

// Recent returns up to n records, newest last.
func (s *HistoryStore) Recent(ctx context.Context, n int) ([]domain.EnrichedRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT run_id, name, phrase, operator, params, type, mode, created_at
	FROM history
	ORDER BY id DESC
	LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []domain.EnrichedRecord
	for rows.Next() {
		var (
			rec          domain.EnrichedRecord
			params, kind string
			createdAt    string
		)
		if err := rows.Scan(&rec.RunID, &rec.Name, &rec.Phrase, &rec.Operator, &params, &kind, &rec.Mode, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &rec.Params); err != nil {
			return nil, fmt.Errorf("decode params of %s: %w", rec.Name, err)
		}
		rec.Type = domain.OperatorKind(kind)
		if rec.Timestamp, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("decode timestamp of %s: %w", rec.Name, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	slices.Reverse(out)
	return out, nil
}

// Close closes the database.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}
