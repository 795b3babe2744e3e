// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"

	"github.com/danielhkuo/yourviews/backend"
	"github.com/danielhkuo/yourviews/models"
)

// ExportRows returns the flat records of a dataset:
// users → []models.UserProfile, polls → []models.PollRecord,
// options → []models.Option, votes → []models.UserVote.
func (s *Store) ExportRows(ctx context.Context, dataset string) (any, error) {
	switch dataset {
	case backend.DatasetUsers:
		return s.ListProfiles(ctx)
	case backend.DatasetPolls:
		return s.exportPolls(ctx)
	case backend.DatasetOptions:
		return s.exportOptions(ctx)
	case backend.DatasetVotes:
		return s.exportVotes(ctx)
	}
	return nil, backend.Errorf("export", backend.ErrUnknownDataset, "Unknown dataset "+dataset)
}

func (s *Store) exportPolls(ctx context.Context) ([]models.PollRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, topic_id, title, description, created_by, is_active, created_at, updated_at
		FROM poll_item ORDER BY created_at, id
	`)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	records := []models.PollRecord{}
	for rows.Next() {
		var (
			r                    models.PollRecord
			topicID, description sql.NullString
			updatedAt            sql.NullTime
		)
		if err := rows.Scan(&r.ID, &topicID, &r.Title, &description, &r.CreatedBy, &r.IsActive, &r.CreatedAt, &updatedAt); err != nil {
			return nil, dbError(err)
		}
		r.TopicID = stringPtr(topicID)
		r.Description = stringPtr(description)
		r.UpdatedAt = timePtr(updatedAt)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return records, nil
}

func (s *Store) exportOptions(ctx context.Context) ([]models.Option, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, poll_id, option_text, vote_count FROM poll_option ORDER BY poll_id, position
	`)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	options := []models.Option{}
	for rows.Next() {
		var o models.Option
		if err := rows.Scan(&o.ID, &o.PollID, &o.Text, &o.VoteCount); err != nil {
			return nil, dbError(err)
		}
		options = append(options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return options, nil
}

func (s *Store) exportVotes(ctx context.Context) ([]models.UserVote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, poll_id, option_id, voted_at FROM user_vote ORDER BY voted_at, id
	`)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	return scanVotes(rows)
}
