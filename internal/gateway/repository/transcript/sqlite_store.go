package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"sitegen/internal/generation"
)

// SQLiteStore keeps transcripts in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
	// serialises seq allocation so concurrent appends to one run do not
	// collide on the unique index
	mu sync.Mutex
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS run_turns (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		role TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (run_id, seq)
	);
	`)
	return err
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Append(ctx context.Context, runID string, turn generation.Turn) error {
	runID, err := validate(runID, turn)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var next int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM run_turns WHERE run_id = ?`, runID,
	).Scan(&next); err != nil {
		return fmt.Errorf("next seq: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO run_turns (run_id, seq, role, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, next, string(turn.Role), turn.Text, time.Now().UnixMilli(),
	); err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, runID string) ([]Entry, error) {
	runID = strings.TrimSpace(runID)
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, role, text, created_at FROM run_turns WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			role    string
			created int64
		)
		if err := rows.Scan(&e.Seq, &role, &e.Text, &created); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		e.RunID = runID
		e.Role = generation.Role(role)
		e.CreatedAt = time.UnixMilli(created)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}
