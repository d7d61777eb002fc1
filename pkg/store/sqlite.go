package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"notecast/pkg/db"
)

// keyAuthToken is the kv slot holding the backend bearer credential.
const keyAuthToken = "auth_token"

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key)

	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read state %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) SetState(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to write state %q: %w", key, err)
	}
	return nil
}

// --- Token ---

// Token implements podcast.TokenSource via the kv table.
func (s *SQLiteStore) Token(ctx context.Context) (string, error) {
	value, _, err := s.GetState(ctx, keyAuthToken)
	return value, err
}

func (s *SQLiteStore) SetToken(ctx context.Context, token string) error {
	return s.SetState(ctx, keyAuthToken, token)
}

// --- Generations ---

func (s *SQLiteStore) RecordGeneration(ctx context.Context, g *Generation) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO generations (notebook_id, title, description, source_count, duration_seconds)
		 VALUES (?, ?, ?, ?, ?)`,
		g.NotebookID, g.Title, g.Description, g.SourceCount, g.DurationSeconds)
	if err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		g.ID = id
	}
	return nil
}

func (s *SQLiteStore) RecentGenerations(ctx context.Context, limit int) ([]Generation, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, notebook_id, title, description, source_count, duration_seconds, created_at
		 FROM generations ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	var out []Generation
	for rows.Next() {
		var g Generation
		var title, description sql.NullString
		if err := rows.Scan(&g.ID, &g.NotebookID, &title, &description,
			&g.SourceCount, &g.DurationSeconds, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		g.Title = title.String
		g.Description = description.String
		out = append(out, g)
	}
	return out, rows.Err()
}
