// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/danielhkuo/yourviews/backend"
	"github.com/danielhkuo/yourviews/models"
)

const commentSelect = `SELECT c.id, c.poll_id, c.user_id, COALESCE(pr.user_name, 'Anonymous'),
	c.text, c.created_at, c.updated_at
	FROM comment_item c LEFT JOIN user_profile pr ON pr.user_id = c.user_id`

func (s *Store) ListComments(ctx context.Context, pollID string) ([]models.Comment, error) {
	return s.queryComments(ctx, commentSelect+` WHERE c.poll_id = $1 ORDER BY c.created_at DESC, c.id`, pollID)
}

func (s *Store) ListUserComments(ctx context.Context, userID string) ([]models.Comment, error) {
	return s.queryComments(ctx, commentSelect+` WHERE c.user_id = $1 ORDER BY c.created_at DESC, c.id`, userID)
}

func (s *Store) queryComments(ctx context.Context, query string, args ...any) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, dbError(err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return comments, nil
}

func scanComment(row rowScanner) (models.Comment, error) {
	var (
		c         models.Comment
		updatedAt sql.NullTime
	)
	err := row.Scan(&c.ID, &c.PollID, &c.UserID, &c.UserName, &c.Text, &c.CreatedAt, &updatedAt)
	c.UpdatedAt = timePtr(updatedAt)
	return c, err
}

func (s *Store) AddComment(ctx context.Context, pollID, userID, text string) (*models.Comment, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM poll_item WHERE id = $1`, pollID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, backend.Errorf("add_comment", backend.ErrNotFound, "Poll not found")
		}
		return nil, dbError(err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO comment_item (id, poll_id, user_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, pollID, userID, text, s.now())
	if err != nil {
		return nil, dbError(err)
	}

	c, err := scanComment(s.db.QueryRowContext(ctx, commentSelect+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, dbError(err)
	}
	return &c, nil
}
