// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, conn *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, conn, dir, opts...)
}

// Migrate applies the embedded migrations for the given database type.
// Safe to call on every start; applied versions are skipped.
func Migrate(ctx context.Context, conn *sql.DB, dbType string) error {
	dir, dialect, err := migrationSource(dbType)
	if err != nil {
		return err
	}

	sub, err := fs.Sub(migrations, dir)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	goose.SetBaseFS(sub)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := gooseUpContext(ctx, conn, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func migrationSource(dbType string) (dir, dialect string, err error) {
	switch dbType {
	case TypePostgres:
		return "migrations/postgres", "pgx", nil
	case TypeSQLite:
		return "migrations/sqlite", "sqlite3", nil
	}
	return "", "", fmt.Errorf("unsupported database type %q", dbType)
}
