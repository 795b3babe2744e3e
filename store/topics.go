// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/danielhkuo/yourviews/models"
)

const topicColumns = `t.id, t.title, t.description, t.category, t.image_url, t.created_at,
	(SELECT COUNT(*) FROM poll_item p WHERE p.topic_id = t.id)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTopic(row rowScanner) (models.Topic, error) {
	var (
		t     models.Topic
		image sql.NullString
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Category, &image, &t.CreatedAt, &t.PollCount)
	t.ImageURL = stringPtr(image)
	return t, err
}

func (s *Store) ListTopics(ctx context.Context) ([]models.Topic, error) {
	query := `SELECT ` + topicColumns + ` FROM topic t ORDER BY t.created_at DESC, t.id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	topics := []models.Topic{}
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, dbError(err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}

	return topics, nil
}

func (s *Store) GetTopic(ctx context.Context, id string) (*models.Topic, error) {
	query := `SELECT ` + topicColumns + ` FROM topic t WHERE t.id = $1`

	t, err := scanTopic(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, dbError(err)
	}

	return &t, nil
}

func (s *Store) CreateTopic(ctx context.Context, t models.Topic) (*models.Topic, error) {
	if strings.TrimSpace(t.Title) == "" {
		return nil, fmt.Errorf("topic title required")
	}

	t.ID = uuid.NewString()
	t.CreatedAt = s.now()
	t.PollCount = 0

	var image sql.NullString
	if t.ImageURL != nil {
		image = nullString(*t.ImageURL)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO topic (id, title, description, category, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.ID, t.Title, t.Description, t.Category, image, t.CreatedAt)
	if err != nil {
		return nil, dbError(err)
	}

	return &t, nil
}

func (s *Store) SetTopicImage(ctx context.Context, id, imageURL string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE topic SET image_url = $1 WHERE id = $2`, nullString(imageURL), id)
	if err != nil {
		return dbError(err)
	}
	return expectAffected(res)
}
