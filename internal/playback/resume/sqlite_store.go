// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resume

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/playctl/internal/persistence/sqlite"
)

const schemaVersion = 1

// SqliteStore implements Store using SQLite.
type SqliteStore struct {
	DB *sql.DB
}

// NewSqliteStore opens (and migrates) the resume database at dbPath.
func NewSqliteStore(ctx context.Context, dbPath string) (*SqliteStore, error) {
	db, err := sqlite.Open(ctx, dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}

	s := &SqliteStore{DB: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("resume store: migration failed: %w", err)
	}
	return s, nil
}

func (s *SqliteStore) migrate(ctx context.Context) error {
	current, err := sqlite.UserVersion(ctx, s.DB)
	if err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS resume_cursors (
		source_key TEXT PRIMARY KEY,
		item_index INTEGER NOT NULL,
		position_ms INTEGER NOT NULL,
		has_position BOOLEAN NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_resume_cursors_updated ON resume_cursors(updated_at);
	`
	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SqliteStore) Put(ctx context.Context, key string, entry Entry) error {
	query := `
	INSERT INTO resume_cursors (source_key, item_index, position_ms, has_position, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(source_key) DO UPDATE SET
		item_index = excluded.item_index,
		position_ms = excluded.position_ms,
		has_position = excluded.has_position,
		updated_at = excluded.updated_at
	`
	_, err := s.DB.ExecContext(ctx, query,
		key, entry.Cursor.ItemIndex, entry.Cursor.Position.Milliseconds(), entry.Cursor.HasPosition,
		entry.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *SqliteStore) Get(ctx context.Context, key string) (*Entry, error) {
	query := `SELECT item_index, position_ms, has_position, updated_at FROM resume_cursors WHERE source_key = ?`
	var (
		entry     Entry
		posMs     int64
		updatedAt string
	)
	err := s.DB.QueryRowContext(ctx, query, key).Scan(
		&entry.Cursor.ItemIndex, &posMs, &entry.Cursor.HasPosition, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	entry.Cursor.Position = time.Duration(posMs) * time.Millisecond
	entry.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &entry, nil
}

func (s *SqliteStore) Delete(ctx context.Context, key string) error {
	_, err := s.DB.ExecContext(ctx, "DELETE FROM resume_cursors WHERE source_key = ?", key)
	return err
}

func (s *SqliteStore) Close() error {
	return s.DB.Close()
}
