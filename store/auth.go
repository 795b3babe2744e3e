// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/yourviews/auth"
	"github.com/danielhkuo/yourviews/backend"
	"github.com/danielhkuo/yourviews/db"
)

const (
	msgInvalidCredentials = "Invalid login credentials"
	msgEmailTaken         = "User already registered"
	msgInvalidSession     = "Invalid or expired session"
	msgInvalidResetToken  = "Password reset link is invalid or has expired"
)

type AuthConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
	ResetTokenTTL  time.Duration
	Mailer         Mailer
}

// AuthService implements backend.Auth with bcrypt passwords, JWT access
// tokens and a session table for revocation.
type AuthService struct {
	db       *sql.DB
	secret   []byte
	tokenTTL time.Duration
	resetTTL time.Duration
	mailer   Mailer
	now      func() time.Time
}

var _ backend.Auth = (*AuthService)(nil)

func NewAuthService(conn *sql.DB, cfg AuthConfig) *AuthService {
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 24 * time.Hour
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = time.Hour
	}
	if cfg.Mailer == nil {
		cfg.Mailer = LogMailer{}
	}
	return &AuthService{
		db:       conn,
		secret:   []byte(cfg.Secret),
		tokenTTL: cfg.AccessTokenTTL,
		resetTTL: cfg.ResetTokenTTL,
		mailer:   cfg.Mailer,
		now:      utcNow,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *AuthService) SignUp(ctx context.Context, email, password, displayName string) (*backend.Session, error) {
	user, err := a.CreateUser(ctx, email, password, displayName)
	if err != nil {
		return nil, err
	}
	return a.newSession(ctx, *user)
}

func (a *AuthService) CreateUser(ctx context.Context, email, password, displayName string) (*backend.User, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, backend.Errorf("sign_up", backend.ErrInvalidCredentials, "Unable to validate email address: invalid format")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, backend.Errorf("sign_up", backend.ErrInvalidCredentials, "Password is required")
	}

	user := backend.User{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: strings.TrimSpace(displayName),
		CreatedAt:   a.now(),
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO auth_user (id, email, password_hash, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, user.Email, hash, user.DisplayName, user.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, backend.Errorf("sign_up", backend.ErrEmailTaken, msgEmailTaken)
		}
		return nil, dbError(err)
	}

	slog.Info("user registered", "user_id", user.ID)
	return &user, nil
}

func (a *AuthService) SignInWithPassword(ctx context.Context, email, password string) (*backend.Session, error) {
	var (
		user backend.User
		hash string
	)
	err := a.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, created_at, password_hash FROM auth_user WHERE email = $1
	`, normalizeEmail(email)).Scan(&user.ID, &user.Email, &user.DisplayName, &user.CreatedAt, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, backend.Errorf("sign_in", backend.ErrInvalidCredentials, msgInvalidCredentials)
		}
		return nil, dbError(err)
	}

	if !auth.CheckPassword(hash, password) {
		return nil, backend.Errorf("sign_in", backend.ErrInvalidCredentials, msgInvalidCredentials)
	}

	return a.newSession(ctx, user)
}

func (a *AuthService) newSession(ctx context.Context, user backend.User) (*backend.Session, error) {
	now := a.now()
	sess := backend.Session{
		ID:        uuid.NewString(),
		ExpiresAt: now.Add(a.tokenTTL),
		User:      user,
	}

	token, err := auth.IssueAccessToken(sess.ID, user.ID, a.secret, sess.ExpiresAt)
	if err != nil {
		return nil, err
	}
	sess.AccessToken = token

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO auth_session (id, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)
	`, sess.ID, user.ID, sess.ExpiresAt, now)
	if err != nil {
		return nil, dbError(err)
	}

	return &sess, nil
}

// SignOut revokes the session behind the token.
func (a *AuthService) SignOut(ctx context.Context, accessToken string) error {
	claims, err := auth.ParseAccessToken(accessToken, a.secret)
	if err != nil {
		return backend.Errorf("sign_out", backend.ErrInvalidToken, msgInvalidSession)
	}

	_, err = a.db.ExecContext(ctx,
		`UPDATE auth_session SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL`,
		a.now(), claims.ID)
	if err != nil {
		return dbError(err)
	}
	return nil
}

func (a *AuthService) GetSession(ctx context.Context, accessToken string) (*backend.Session, error) {
	claims, err := auth.ParseAccessToken(accessToken, a.secret)
	if err != nil {
		return nil, backend.Errorf("get_session", backend.ErrInvalidToken, msgInvalidSession)
	}

	sess := backend.Session{ID: claims.ID, AccessToken: accessToken}
	err = a.db.QueryRowContext(ctx, `
		SELECT s.expires_at, u.id, u.email, u.display_name, u.created_at
		FROM auth_session s JOIN auth_user u ON u.id = s.user_id
		WHERE s.id = $1 AND s.revoked_at IS NULL AND s.expires_at > $2
	`, claims.ID, a.now()).Scan(&sess.ExpiresAt, &sess.User.ID, &sess.User.Email, &sess.User.DisplayName, &sess.User.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, backend.Errorf("get_session", backend.ErrInvalidToken, msgInvalidSession)
		}
		return nil, dbError(err)
	}

	return &sess, nil
}

// ResetPasswordForEmail mails a one-time reset link. Unknown addresses
// succeed silently.
func (a *AuthService) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	email = normalizeEmail(email)

	var userID string
	err := a.db.QueryRowContext(ctx, `SELECT id FROM auth_user WHERE email = $1`, email).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Info("password reset for unknown email")
			return nil
		}
		return dbError(err)
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return err
	}

	now := a.now()
	_, err = a.db.ExecContext(ctx, `
		INSERT INTO password_reset (token_hash, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)
	`, auth.HashToken(token, string(a.secret)), userID, now.Add(a.resetTTL), now)
	if err != nil {
		return dbError(err)
	}

	link, err := resetLink(redirectTo, token)
	if err != nil {
		return err
	}

	if err := a.mailer.SendPasswordReset(ctx, email, link); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}

func resetLink(redirectTo, token string) (string, error) {
	u, err := url.Parse(redirectTo)
	if err != nil {
		return "", fmt.Errorf("invalid reset redirect: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// UpdatePassword consumes a reset token, sets the new password and revokes
// every open session of the user.
func (a *AuthService) UpdatePassword(ctx context.Context, resetToken, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return backend.Errorf("update_password", backend.ErrInvalidCredentials, "Password is required")
	}

	now := a.now()
	return db.WithTx(ctx, a.db, nil, func(ctx context.Context, tx db.DBTX) error {
		var userID string
		err := tx.QueryRowContext(ctx, `
			SELECT user_id FROM password_reset
			WHERE token_hash = $1 AND used_at IS NULL AND expires_at > $2
		`, auth.HashToken(resetToken, string(a.secret)), now).Scan(&userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return backend.Errorf("update_password", backend.ErrInvalidToken, msgInvalidResetToken)
			}
			return dbError(err)
		}

		statements := []struct {
			query string
			args  []any
		}{
			{`UPDATE auth_user SET password_hash = $1 WHERE id = $2`, []any{hash, userID}},
			{`UPDATE password_reset SET used_at = $1 WHERE user_id = $2 AND used_at IS NULL`, []any{now, userID}},
			{`UPDATE auth_session SET revoked_at = $1 WHERE user_id = $2 AND revoked_at IS NULL`, []any{now, userID}},
		}
		for _, st := range statements {
			if _, err := tx.ExecContext(ctx, st.query, st.args...); err != nil {
				return dbError(err)
			}
		}

		slog.Info("password updated", "user_id", userID)
		return nil
	})
}

// LookupEmails resolves user ids to emails with a single query.
func (a *AuthService) LookupEmails(ctx context.Context, userIDs []string) (map[string]string, error) {
	emails := make(map[string]string, len(userIDs))
	if len(userIDs) == 0 {
		return emails, nil
	}

	query := `SELECT id, email FROM auth_user WHERE id IN (` + placeholders(1, len(userIDs)) + `)`
	rows, err := a.db.QueryContext(ctx, query, stringArgs(userIDs)...)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, email string
		if err := rows.Scan(&id, &email); err != nil {
			return nil, dbError(err)
		}
		emails[id] = email
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return emails, nil
}
