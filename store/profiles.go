// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/danielhkuo/yourviews/backend"
	"github.com/danielhkuo/yourviews/db"
	"github.com/danielhkuo/yourviews/models"
)

const profileColumns = `user_id, user_name, is_admin, age, gender, location, education, occupation, created_at, updated_at`

func scanProfile(row rowScanner) (models.UserProfile, error) {
	var (
		p                                       models.UserProfile
		age                                     sql.NullInt64
		gender, location, education, occupation sql.NullString
		updatedAt                               sql.NullTime
	)
	err := row.Scan(&p.UserID, &p.UserName, &p.IsAdmin, &age, &gender, &location,
		&education, &occupation, &p.CreatedAt, &updatedAt)
	p.Age = intPtr(age)
	p.Gender = stringPtr(gender)
	p.Location = stringPtr(location)
	p.Education = stringPtr(education)
	p.Occupation = stringPtr(occupation)
	p.UpdatedAt = timePtr(updatedAt)
	return p, err
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profile WHERE user_id = $1`

	p, err := scanProfile(s.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, dbError(err)
	}
	return &p, nil
}

// EnsureProfile creates the default profile row for a user. Concurrent
// callers are safe: the loser's insert is a no-op.
func (s *Store) EnsureProfile(ctx context.Context, userID, userName string) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO user_profile (user_id, user_name, is_admin, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, userName, false, s.now())
	if err != nil {
		return dbError(err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		slog.Info("profile created", "user_id", userID)
	}
	return nil
}

func (s *Store) UpdateProfile(ctx context.Context, userID string, u backend.ProfileUpdate) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE user_profile
		SET age = $1, gender = $2, location = $3, education = $4, occupation = $5, updated_at = $6
		WHERE user_id = $7
	`, u.Age, u.Gender, u.Location, u.Education, u.Occupation, s.now(), userID)
	if err != nil {
		return dbError(err)
	}
	return expectAffected(res)
}

// UpdateUserName renames the user in both the profile and the auth record.
func (s *Store) UpdateUserName(ctx context.Context, userID, userName string) error {
	return db.WithTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE user_profile SET user_name = $1, updated_at = $2 WHERE user_id = $3`,
			userName, s.now(), userID)
		if err != nil {
			return dbError(err)
		}
		if err := expectAffected(res); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE auth_user SET display_name = $1 WHERE id = $2`, userName, userID)
		if err != nil {
			return dbError(err)
		}
		return nil
	})
}

func (s *Store) SetAdmin(ctx context.Context, userID string, isAdmin bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE user_profile SET is_admin = $1, updated_at = $2 WHERE user_id = $3`,
		isAdmin, s.now(), userID)
	if err != nil {
		return dbError(err)
	}
	return expectAffected(res)
}

func (s *Store) ListProfiles(ctx context.Context) ([]models.UserProfile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM user_profile ORDER BY created_at DESC, user_id`)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	profiles := []models.UserProfile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, dbError(err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return profiles, nil
}
