// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/danielhkuo/yourviews/backend"
	"github.com/danielhkuo/yourviews/db"
	"github.com/danielhkuo/yourviews/models"
)

const pollColumns = `p.id, p.topic_id, p.title, p.description, p.created_by, pr.user_name,
	p.is_active, p.created_at, p.updated_at`

const pollFrom = ` FROM poll_item p LEFT JOIN user_profile pr ON pr.user_id = p.created_by`

func scanPoll(row rowScanner) (models.Poll, error) {
	var (
		p           models.Poll
		topicID     sql.NullString
		description sql.NullString
		creatorName sql.NullString
		updatedAt   sql.NullTime
	)
	err := row.Scan(&p.ID, &topicID, &p.Title, &description, &p.CreatedBy, &creatorName,
		&p.IsActive, &p.CreatedAt, &updatedAt)
	p.TopicID = stringPtr(topicID)
	p.Description = stringPtr(description)
	p.CreatedByName = stringPtr(creatorName)
	p.UpdatedAt = timePtr(updatedAt)
	p.Options = []models.Option{}
	return p, err
}

// ListPolls returns polls newest first with their options embedded.
func (s *Store) ListPolls(ctx context.Context, filter backend.PollFilter) ([]models.Poll, error) {
	var (
		where []string
		args  []any
	)
	if filter.TopicID != "" {
		args = append(args, filter.TopicID)
		where = append(where, fmt.Sprintf("p.topic_id = $%d", len(args)))
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		where = append(where, fmt.Sprintf("p.created_by = $%d", len(args)))
	}

	query := `SELECT ` + pollColumns + pollFrom
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY p.created_at DESC, p.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, dbError(err)
		}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}

	if err := s.attachOptions(ctx, polls); err != nil {
		return nil, err
	}

	return polls, nil
}

func (s *Store) GetPoll(ctx context.Context, id string) (*models.Poll, error) {
	query := `SELECT ` + pollColumns + pollFrom + ` WHERE p.id = $1`

	p, err := scanPoll(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, dbError(err)
	}

	polls := []models.Poll{p}
	if err := s.attachOptions(ctx, polls); err != nil {
		return nil, err
	}

	return &polls[0], nil
}

// attachOptions loads the options of all polls in one query.
func (s *Store) attachOptions(ctx context.Context, polls []models.Poll) error {
	if len(polls) == 0 {
		return nil
	}

	index := make(map[string]int, len(polls))
	ids := make([]string, len(polls))
	for i, p := range polls {
		index[p.ID] = i
		ids[i] = p.ID
	}

	query := `SELECT id, poll_id, option_text, vote_count FROM poll_option
		WHERE poll_id IN (` + placeholders(1, len(ids)) + `)
		ORDER BY poll_id, position, created_at`

	rows, err := s.db.QueryContext(ctx, query, stringArgs(ids)...)
	if err != nil {
		return dbError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Option
		if err := rows.Scan(&o.ID, &o.PollID, &o.Text, &o.VoteCount); err != nil {
			return dbError(err)
		}
		i := index[o.PollID]
		polls[i].Options = append(polls[i].Options, o)
	}
	if err := rows.Err(); err != nil {
		return dbError(err)
	}

	return nil
}

// CreatePoll inserts a poll and its options in one transaction.
func (s *Store) CreatePoll(ctx context.Context, np backend.NewPoll) (*models.Poll, error) {
	now := s.now()
	p := models.Poll{
		ID:        uuid.NewString(),
		Title:     np.Title,
		CreatedBy: np.CreatedBy,
		IsActive:  true,
		CreatedAt: now,
		Options:   make([]models.Option, 0, len(np.Options)),
	}
	if np.Description != "" {
		d := np.Description
		p.Description = &d
	}
	if np.TopicID != "" {
		tid := np.TopicID
		p.TopicID = &tid
	}

	err := db.WithTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		if p.TopicID != nil {
			var exists int
			err := tx.QueryRowContext(ctx, `SELECT 1 FROM topic WHERE id = $1`, *p.TopicID).Scan(&exists)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return backend.Errorf("create_poll", backend.ErrNotFound, "Topic not found")
				}
				return dbError(err)
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO poll_item (id, topic_id, title, description, created_by, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, p.ID, nullString(np.TopicID), p.Title, nullString(np.Description), p.CreatedBy, true, now)
		if err != nil {
			return dbError(err)
		}

		for i, text := range np.Options {
			o := models.Option{ID: uuid.NewString(), PollID: p.ID, Text: text}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO poll_option (id, poll_id, option_text, vote_count, position, created_at)
				VALUES ($1, $2, $3, 0, $4, $5)
			`, o.ID, o.PollID, o.Text, i, now)
			if err != nil {
				return dbError(err)
			}
			p.Options = append(p.Options, o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (s *Store) SetPollActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE poll_item SET is_active = $1, updated_at = $2 WHERE id = $3`,
		active, s.now(), id)
	if err != nil {
		return dbError(err)
	}
	return expectAffected(res)
}
