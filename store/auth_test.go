// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/yourviews/backend"
	"github.com/danielhkuo/yourviews/testutil"
)

type captureMailer struct {
	mu    sync.Mutex
	links map[string]string
}

func (m *captureMailer) SendPasswordReset(ctx context.Context, email, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links == nil {
		m.links = map[string]string{}
	}
	m.links[email] = link
	return nil
}

func newTestAuth(t *testing.T) (*AuthService, *captureMailer) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	mailer := &captureMailer{}
	return NewAuthService(conn, AuthConfig{
		Secret:         "test-secret",
		AccessTokenTTL: time.Hour,
		ResetTokenTTL:  time.Hour,
		Mailer:         mailer,
	}), mailer
}

func TestAuth_SignUpSignInSignOut(t *testing.T) {
	a, _ := newTestAuth(t)
	ctx := context.Background()

	sess, err := a.SignUp(ctx, " New@Example.com ", "Secret123", "newbie")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", sess.User.Email)
	assert.Equal(t, "newbie", sess.User.DisplayName)
	assert.NotEmpty(t, sess.AccessToken)

	got, err := a.GetSession(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, sess.User.ID, got.User.ID)

	_, err = a.SignUp(ctx, "new@example.com", "Other123", "dup")
	assert.True(t, errors.Is(err, backend.ErrEmailTaken))
	assert.Equal(t, "User already registered", backend.Message(err))

	_, err = a.SignInWithPassword(ctx, "new@example.com", "wrong")
	assert.True(t, errors.Is(err, backend.ErrInvalidCredentials))
	assert.Equal(t, "Invalid login credentials", backend.Message(err))

	_, err = a.SignInWithPassword(ctx, "nobody@example.com", "Secret123")
	assert.True(t, errors.Is(err, backend.ErrInvalidCredentials))

	second, err := a.SignInWithPassword(ctx, "NEW@example.com", "Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, second.ID)

	require.NoError(t, a.SignOut(ctx, sess.AccessToken))
	_, err = a.GetSession(ctx, sess.AccessToken)
	assert.True(t, errors.Is(err, backend.ErrInvalidToken))

	// Other sessions survive
	_, err = a.GetSession(ctx, second.AccessToken)
	require.NoError(t, err)
}

func TestAuth_GetSessionRejectsBadTokens(t *testing.T) {
	a, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := a.GetSession(ctx, "garbage")
	assert.True(t, errors.Is(err, backend.ErrInvalidToken))

	sess, err := a.SignUp(ctx, "u@example.com", "Secret123", "u")
	require.NoError(t, err)

	other := NewAuthService(a.db, AuthConfig{Secret: "other-secret"})
	_, err = other.GetSession(ctx, sess.AccessToken)
	assert.True(t, errors.Is(err, backend.ErrInvalidToken))

	// Session row expired even though the token is still signed validly
	a.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	_, err = a.GetSession(ctx, sess.AccessToken)
	assert.True(t, errors.Is(err, backend.ErrInvalidToken))
}

func TestAuth_PasswordReset(t *testing.T) {
	a, mailer := newTestAuth(t)
	ctx := context.Background()

	sess, err := a.SignUp(ctx, "forgetful@example.com", "OldPass1", "forgetful")
	require.NoError(t, err)

	// Unknown emails succeed without sending anything
	require.NoError(t, a.ResetPasswordForEmail(ctx, "ghost@example.com", "http://localhost/reset-password"))
	assert.Empty(t, mailer.links)

	require.NoError(t, a.ResetPasswordForEmail(ctx, "forgetful@example.com", "http://localhost/reset-password"))
	link := mailer.links["forgetful@example.com"]
	require.NotEmpty(t, link)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/reset-password", u.Path)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)

	err = a.UpdatePassword(ctx, "not-the-token", "NewPass1")
	assert.True(t, errors.Is(err, backend.ErrInvalidToken))

	require.NoError(t, a.UpdatePassword(ctx, token, "NewPass1"))

	// Token is single use
	err = a.UpdatePassword(ctx, token, "NewPass2")
	assert.True(t, errors.Is(err, backend.ErrInvalidToken))

	// Existing sessions are revoked
	_, err = a.GetSession(ctx, sess.AccessToken)
	assert.True(t, errors.Is(err, backend.ErrInvalidToken))

	_, err = a.SignInWithPassword(ctx, "forgetful@example.com", "OldPass1")
	assert.True(t, errors.Is(err, backend.ErrInvalidCredentials))
	_, err = a.SignInWithPassword(ctx, "forgetful@example.com", "NewPass1")
	require.NoError(t, err)
}

func TestAuth_CreateUserAndLookup(t *testing.T) {
	a, _ := newTestAuth(t)
	ctx := context.Background()

	u1, err := a.CreateUser(ctx, "one@example.com", "Secret1", "one")
	require.NoError(t, err)
	u2, err := a.CreateUser(ctx, "two@example.com", "Secret2", "two")
	require.NoError(t, err)

	_, err = a.CreateUser(ctx, "not-an-email", "Secret3", "bad")
	require.Error(t, err)

	emails, err := a.LookupEmails(ctx, []string{u1.ID, u2.ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{u1.ID: "one@example.com", u2.ID: "two@example.com"}, emails)
}
