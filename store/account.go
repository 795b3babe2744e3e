// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/danielhkuo/yourviews/backend"
	"github.com/danielhkuo/yourviews/db"
)

// DeleteUserAccount removes everything owned by the user except the polls
// they created. Option vote counts stay as they are.
func (s *Store) DeleteUserAccount(ctx context.Context, userID string) error {
	err := db.WithTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		statements := []string{
			`DELETE FROM user_vote WHERE user_id = $1`,
			`DELETE FROM comment_item WHERE user_id = $1`,
			`DELETE FROM user_profile WHERE user_id = $1`,
			`DELETE FROM auth_session WHERE user_id = $1`,
			`DELETE FROM password_reset WHERE user_id = $1`,
		}
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt, userID); err != nil {
				return dbError(err)
			}
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM auth_user WHERE id = $1`, userID)
		if err != nil {
			return dbError(err)
		}
		if err := expectAffected(res); err != nil {
			if errors.Is(err, backend.ErrNotFound) {
				return backend.Errorf("delete_user_account", backend.ErrNotFound, "User not found")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("user account deleted", "user_id", userID)
	return nil
}
