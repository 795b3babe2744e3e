// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/danielhkuo/yourviews/backend"
	"github.com/danielhkuo/yourviews/db"
	"github.com/danielhkuo/yourviews/models"
)

const msgAlreadyVoted = "You have already voted on this poll"

// VoteOnPoll inserts the (user, poll) vote row and increments the option
// count in one transaction. The unique constraint on user_vote decides
// which of two concurrent votes wins.
func (s *Store) VoteOnPoll(ctx context.Context, pollID, optionID, userID string) error {
	err := db.WithTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		var active bool
		err := tx.QueryRowContext(ctx, `
			SELECT p.is_active FROM poll_option o
			JOIN poll_item p ON p.id = o.poll_id
			WHERE o.id = $1 AND o.poll_id = $2
		`, optionID, pollID).Scan(&active)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return backend.Errorf("vote_on_poll", backend.ErrInvalidOption, "Option does not belong to this poll")
			}
			return dbError(err)
		}
		if !active {
			return backend.Errorf("vote_on_poll", backend.ErrPollClosed, "This poll is closed")
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_vote (id, user_id, poll_id, option_id, voted_at)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.NewString(), userID, pollID, optionID, s.now())
		if err != nil {
			if db.IsUniqueViolation(err) {
				return backend.Errorf("vote_on_poll", backend.ErrAlreadyVoted, msgAlreadyVoted)
			}
			return dbError(err)
		}

		_, err = tx.ExecContext(ctx, `UPDATE poll_option SET vote_count = vote_count + 1 WHERE id = $1`, optionID)
		if err != nil {
			return dbError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("vote recorded", "poll_id", pollID, "option_id", optionID)
	return nil
}

func (s *Store) HasVoted(ctx context.Context, pollID, userID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_vote WHERE poll_id = $1 AND user_id = $2`,
		pollID, userID).Scan(&n)
	if err != nil {
		return false, dbError(err)
	}
	return n > 0, nil
}

func (s *Store) ListUserVotes(ctx context.Context, userID string) ([]models.UserVote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, poll_id, option_id, voted_at FROM user_vote
		WHERE user_id = $1
		ORDER BY voted_at DESC
	`, userID)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	return scanVotes(rows)
}

func scanVotes(rows *sql.Rows) ([]models.UserVote, error) {
	votes := []models.UserVote{}
	for rows.Next() {
		var v models.UserVote
		if err := rows.Scan(&v.ID, &v.UserID, &v.PollID, &v.OptionID, &v.VotedAt); err != nil {
			return nil, dbError(err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return votes, nil
}
