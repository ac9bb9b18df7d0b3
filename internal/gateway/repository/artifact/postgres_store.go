package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// PostgresStore keeps artifacts in a single table. Open the *sql.DB with the
// pgx stdlib driver ("pgx").
type PostgresStore struct {
	db         *sql.DB
	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS run_artifacts (
    id SERIAL PRIMARY KEY,
    run_id TEXT NOT NULL,
    path TEXT NOT NULL,
    content BYTEA NOT NULL DEFAULT ''::bytea,
    content_type TEXT NOT NULL,
    size BIGINT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    UNIQUE(run_id, path)
);
CREATE INDEX IF NOT EXISTS idx_run_artifacts_run_id ON run_artifacts(run_id);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) Put(ctx context.Context, runID string, obj Object) error {
	runID, path, err := normalizeKey(runID, obj.Path)
	if err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	content := obj.Content
	if content == nil {
		content = []byte{}
	}
	ct := obj.ContentType
	if ct == "" {
		ct = defaultContentType
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO run_artifacts (run_id, path, content, content_type, size, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (run_id, path)
DO UPDATE SET content=EXCLUDED.content, content_type=EXCLUDED.content_type, size=EXCLUDED.size, updated_at=EXCLUDED.updated_at
`, runID, path, content, ct, int64(len(content)), time.Now())
	return err
}

func (s *PostgresStore) Get(ctx context.Context, runID, path string) (Object, error) {
	runID, path, err := normalizeKey(runID, path)
	if err != nil {
		return Object{}, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return Object{}, err
	}
	obj := Object{Path: path}
	err = s.db.QueryRowContext(ctx,
		`SELECT content, content_type FROM run_artifacts WHERE run_id=$1 AND path=$2`, runID, path,
	).Scan(&obj.Content, &obj.ContentType)
	if errors.Is(err, sql.ErrNoRows) {
		return Object{}, ErrNotFound
	}
	if err != nil {
		return Object{}, err
	}
	return obj, nil
}

func (s *PostgresStore) List(ctx context.Context, runID string) ([]string, error) {
	runID, err := normalizeRun(runID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM run_artifacts WHERE run_id=$1 ORDER BY path`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// GetURL is unsupported; content is served from the table.
func (s *PostgresStore) GetURL(context.Context, string, string) (string, error) {
	return "", nil
}
