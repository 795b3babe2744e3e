// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danielhkuo/yourviews/models"
)

const siteSettingsKey = "site"

// GetSettings returns the saved settings, or the defaults when none were saved.
func (s *Store) GetSettings(ctx context.Context) (models.SiteSettings, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM site_setting WHERE key = $1`, siteSettingsKey).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultSiteSettings(), nil
		}
		return models.SiteSettings{}, dbError(err)
	}

	settings := models.DefaultSiteSettings()
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return models.SiteSettings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	return settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings models.SiteSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO site_setting (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, siteSettingsKey, string(raw), s.now())
	if err != nil {
		return dbError(err)
	}
	return nil
}
