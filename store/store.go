// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/yourviews/backend"
)

// Store implements backend.Data on a SQL database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ backend.Data = (*Store)(nil)

func New(conn *sql.DB) *Store {
	return &Store{db: conn, now: utcNow}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// dbError maps sql.ErrNoRows to backend.ErrNotFound and wraps the rest.
func dbError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return backend.ErrNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

// placeholders returns "$start, $start+1, ..." for n arguments.
func placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	n := int(ni.Int64)
	return &n
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return backend.ErrNotFound
	}
	return nil
}
