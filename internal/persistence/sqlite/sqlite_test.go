// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_AppliesPragmas(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "p.sqlite"), DefaultConfig())
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	v, err := UserVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestVerifyIntegrity_Healthy(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "healthy.sqlite")

	db, err := Open(ctx, path, DefaultConfig())
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY, data TEXT)")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, err = db.ExecContext(ctx, "INSERT INTO t (data) VALUES ('x')")
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	issues, err := VerifyIntegrity(ctx, path, VerifyQuick)
	require.NoError(t, err)
	assert.Nil(t, issues)

	issues, err = VerifyIntegrity(ctx, path, VerifyFull)
	require.NoError(t, err)
	assert.Nil(t, issues)
}
