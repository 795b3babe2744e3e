// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"log/slog"
)

// Mailer delivers password reset links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, link string) error
}

// LogMailer writes reset links to the log instead of sending email.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(ctx context.Context, email, link string) error {
	slog.Info("password reset link", "email", email, "link", link)
	return nil
}
