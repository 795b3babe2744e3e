// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/yourviews/models"
	"github.com/danielhkuo/yourviews/queries"
	"github.com/danielhkuo/yourviews/querycache"
	"github.com/danielhkuo/yourviews/session"
	"github.com/danielhkuo/yourviews/store"
	"github.com/danielhkuo/yourviews/testutil"
)

type testEnv struct {
	conn     *sql.DB
	q        *queries.Fetcher
	cache    *querycache.Cache
	sessions *session.Registry
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	return setupEnvWithMailer(t, nil)
}

func setupEnvWithMailer(t *testing.T, mailer store.Mailer) *testEnv {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	data := store.New(conn)
	authSvc := store.NewAuthService(conn, store.AuthConfig{
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
		ResetTokenTTL:  cfg.ResetTokenTTL,
		Mailer:         mailer,
	})
	cache := querycache.New(querycache.Options{
		StaleTime:  cfg.CacheStaleTime,
		GCTime:     cfg.CacheGCTime,
		Retries:    cfg.CacheRetries,
		RetryDelay: cfg.CacheRetryDelay,
	})
	t.Cleanup(cache.Close)

	return &testEnv{
		conn:     conn,
		q:        queries.New(data, authSvc),
		cache:    cache,
		sessions: session.NewRegistry(authSvc, data, session.RegistryConfig{Secret: cfg.JWTSecret}),
	}
}

// signIn creates a user and returns a registered, logged in store.
func (e *testEnv) signIn(t *testing.T, email, userName string, isAdmin bool) (*session.Store, string) {
	t.Helper()
	userID := testutil.CreateTestUser(t, e.conn, email, userName, isAdmin)
	s := e.sessions.New()
	require.NoError(t, s.Login(context.Background(), email, testutil.TestPassword))
	e.sessions.Register(s)
	return s, userID
}

// call runs h with an optional JSON body, session and path values given as
// name, value pairs.
func call(h http.HandlerFunc, method, target string, body any, s *session.Store, pathValues ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	if s != nil {
		req = req.WithContext(session.WithStore(req.Context(), s))
	}

	w := httptest.NewRecorder()
	h(w, req)
	return w
}

// viewBody is models.View with its data left raw.
type viewBody struct {
	Page             string           `json:"page"`
	Status           string           `json:"status"`
	Data             json.RawMessage  `json:"data"`
	Error            string           `json:"error"`
	Identity         *models.Identity `json:"identity"`
	ShowCookieBanner bool             `json:"show_cookie_banner"`
	Actions          []models.Link    `json:"actions"`
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder, data any) viewBody {
	t.Helper()
	var v viewBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	if data != nil && len(v.Data) > 0 {
		require.NoError(t, json.Unmarshal(v.Data, data))
	}
	return v
}

// actionBody is models.ActionResponse with its data left raw.
type actionBody struct {
	Notification models.Notification `json:"notification"`
	RedirectTo   string              `json:"redirect_to"`
	Data         json.RawMessage     `json:"data"`
}

func decodeAction(t *testing.T, w *httptest.ResponseRecorder, data any) actionBody {
	t.Helper()
	var a actionBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a), "body: %s", w.Body.String())
	if data != nil && len(a.Data) > 0 {
		require.NoError(t, json.Unmarshal(a.Data, data))
	}
	return a
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var e models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e), "body: %s", w.Body.String())
	return e
}
