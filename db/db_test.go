// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Open(context.Background(), TypeSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func countRows(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n))
	return n
}

func setupTable(t *testing.T) *sql.DB {
	t.Helper()
	conn := openTestDB(t)
	_, err := conn.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT UNIQUE)`)
	require.NoError(t, err)
	return conn
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	conn := setupTable(t)

	err := WithTx(context.Background(), conn, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('ok')`)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, countRows(t, conn), "must commit on success")
}

func TestWithTx_RollbackOnFnError(t *testing.T) {
	conn := setupTable(t)

	err := WithTx(context.Background(), conn, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('fail')`)
		require.NoError(t, e)
		return errors.New("boom")
	})
	require.Error(t, err)
	require.Equal(t, 0, countRows(t, conn), "must rollback when fn returns error")
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	conn := setupTable(t)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic to propagate")
		}
		require.Equal(t, 0, countRows(t, conn), "must rollback on panic")
	}()

	_ = WithTx(context.Background(), conn, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('panic')`)
		require.NoError(t, e)
		panic("kaput")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	conn := setupTable(t)
	require.NoError(t, conn.Close())

	err := WithTx(context.Background(), conn, nil, func(ctx context.Context, tx DBTX) error {
		return nil
	})
	require.Error(t, err, "begin should fail when DB is closed")
}

func TestMigrate_SQLite(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, conn, TypeSQLite))
	// Second run is a no-op.
	require.NoError(t, Migrate(ctx, conn, TypeSQLite))

	tables := []string{
		"auth_user", "auth_session", "password_reset", "user_profile", "topic",
		"poll_item", "poll_option", "user_vote", "comment_item", "site_setting",
	}
	for _, table := range tables {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = $1`, table).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
	}
}

func TestMigrate_UniqueVotePerPoll(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, conn, TypeSQLite))

	_, err := conn.Exec(`INSERT INTO poll_item (id, title, created_by) VALUES ('p1', 'Poll', 'u1')`)
	require.NoError(t, err)
	_, err = conn.Exec(`INSERT INTO poll_option (id, poll_id, option_text, position) VALUES ('o1', 'p1', 'A', 0)`)
	require.NoError(t, err)

	_, err = conn.Exec(`INSERT INTO user_vote (id, user_id, poll_id, option_id) VALUES ('v1', 'u1', 'p1', 'o1')`)
	require.NoError(t, err)
	_, err = conn.Exec(`INSERT INTO user_vote (id, user_id, poll_id, option_id) VALUES ('v2', 'u1', 'p1', 'o1')`)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestMigrate_UnsupportedType(t *testing.T) {
	conn := openTestDB(t)
	err := Migrate(context.Background(), conn, "mysql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestMigrate_PropagatesGooseError(t *testing.T) {
	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, conn *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("goose failed")
	}
	defer func() { gooseUpContext = orig }()

	conn := openTestDB(t)
	err := Migrate(context.Background(), conn, TypePostgres)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "goose failed")
}

func TestOpen_UnsupportedType(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "whatever")
	require.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare path", "data.db", "file:data.db?" + sqlitePragmas},
		{"file uri", "file:data.db", "file:data.db?" + sqlitePragmas},
		{"caller params kept", "file:data.db?mode=memory", "file:data.db?mode=memory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SQLiteDSN(tt.in))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"postgres unique", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"postgres other", &pgconn.PgError{Code: "23503"}, false},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: user_vote.user_id, user_vote.poll_id (2067)"), true},
		{"other", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}
