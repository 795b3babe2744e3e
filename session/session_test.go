// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/yourviews/backend"
	"github.com/danielhkuo/yourviews/models"
	"github.com/danielhkuo/yourviews/store"
	"github.com/danielhkuo/yourviews/testutil"
)

type fixture struct {
	conn     *sql.DB
	data     *store.Store
	auth     *store.AuthService
	registry *Registry
}

func setup(t *testing.T) *fixture {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	data := store.New(conn)
	authSvc := store.NewAuthService(conn, store.AuthConfig{Secret: cfg.JWTSecret, AccessTokenTTL: time.Hour})
	return &fixture{
		conn:     conn,
		data:     data,
		auth:     authSvc,
		registry: NewRegistry(authSvc, data, RegistryConfig{Secret: cfg.JWTSecret, IdleTTL: time.Hour}),
	}
}

func TestLogin_ResolvesIdentity(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.CreateTestUser(t, f.conn, "admin@example.com", "boss", true)

	s := f.registry.New()
	assert.Nil(t, s.Identity())
	assert.False(t, s.Loading())

	require.NoError(t, s.Login(ctx, "admin@example.com", testutil.TestPassword))

	id := s.Identity()
	require.NotNil(t, id)
	assert.Equal(t, "admin@example.com", id.Email)
	assert.Equal(t, "boss", id.UserName)
	assert.True(t, id.IsAdmin)
	assert.True(t, s.IsAdmin())
	require.NotNil(t, id.Profile)
	assert.NotEmpty(t, s.AccessToken())
	assert.NotEmpty(t, s.SessionID())
}

func TestLogin_FailureCarriesBackendMessage(t *testing.T) {
	f := setup(t)
	testutil.CreateTestUser(t, f.conn, "user@example.com", "user", false)

	s := f.registry.New()
	err := s.Login(context.Background(), "user@example.com", "wrong-password")

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "Invalid login credentials", authErr.Message)
	assert.Equal(t, "Invalid login credentials", err.Error())
	assert.True(t, errors.Is(err, backend.ErrInvalidCredentials))
	assert.Nil(t, s.Identity())
}

func TestSignup_CreatesProfileFromDisplayName(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	s := f.registry.New()
	require.NoError(t, s.Signup(ctx, "new@example.com", "Secret123", "newcomer"))

	id := s.Identity()
	require.NotNil(t, id)
	assert.Equal(t, "newcomer", id.UserName)
	assert.False(t, id.IsAdmin)
	assert.Equal(t, 1, testutil.CountRows(t, f.conn, "user_profile", "user_id = $1", id.UserID))

	err := f.registry.New().Signup(ctx, "new@example.com", "Secret123", "again")
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "User already registered", authErr.Message)
}

func TestLogin_MissingProfileUsesEmailPrefix(t *testing.T) {
	f := setup(t)
	userID := testutil.CreateTestAuthUser(t, f.conn, "lonely@example.com", "")

	s := f.registry.New()
	require.NoError(t, s.Login(context.Background(), "lonely@example.com", testutil.TestPassword))

	id := s.Identity()
	require.NotNil(t, id)
	assert.Equal(t, "lonely", id.UserName)
	assert.Equal(t, 1, testutil.CountRows(t, f.conn, "user_profile", "user_id = $1", userID))
}

func TestConcurrentResolution_CreatesOneProfile(t *testing.T) {
	f := setup(t)
	userID := testutil.CreateTestAuthUser(t, f.conn, "tabs@example.com", "tabby")

	const tabs = 4
	var wg sync.WaitGroup
	errs := make([]error, tabs)
	for i := 0; i < tabs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.registry.New().Login(context.Background(), "tabs@example.com", testutil.TestPassword)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, testutil.CountRows(t, f.conn, "user_profile", "user_id = $1", userID))
}

func TestLogout_ClearsIdentity(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.CreateTestUser(t, f.conn, "bye@example.com", "bye", false)

	s := f.registry.New()
	require.NoError(t, s.Login(ctx, "bye@example.com", testutil.TestPassword))
	token := s.AccessToken()

	require.NoError(t, s.Logout(ctx))
	assert.Nil(t, s.Identity())
	assert.Empty(t, s.AccessToken())

	_, err := f.auth.GetSession(ctx, token)
	assert.Error(t, err, "logout must revoke the backend session")
}

func TestAuthClient_Events(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.CreateTestUser(t, f.conn, "events@example.com", "events", false)

	c := NewAuthClient(f.auth)
	var (
		mu     sync.Mutex
		events []Event
	)
	unsubscribe := c.OnAuthStateChange(func(e Event, s *backend.Session) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	_, err := c.SignInWithPassword(ctx, "events@example.com", testutil.TestPassword)
	require.NoError(t, err)
	require.NoError(t, c.Refresh(ctx))
	require.NoError(t, c.SignOut(ctx))

	unsubscribe()
	_, err = c.SignInWithPassword(ctx, "events@example.com", testutil.TestPassword)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Event{EventSignedIn, EventUserUpdated, EventSignedOut}, events)
}

// gatedData blocks GetProfile for one user until released.
type gatedData struct {
	backend.Data
	gateUser string
	gate     chan struct{}
}

func (d *gatedData) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if userID == d.gateUser {
		<-d.gate
	}
	return &models.UserProfile{UserID: userID, UserName: "name-" + userID, IsAdmin: true}, nil
}

type fakeAuth struct {
	backend.Auth
}

func (fakeAuth) SignInWithPassword(ctx context.Context, email, password string) (*backend.Session, error) {
	return &backend.Session{
		ID:          "sess-" + email,
		AccessToken: "token-" + email,
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        backend.User{ID: email, Email: email},
	}, nil
}

func (fakeAuth) SignOut(ctx context.Context, token string) error { return nil }

func TestResolution_OnlyLatestEventApplies(t *testing.T) {
	data := &gatedData{gateUser: "slow", gate: make(chan struct{})}
	s := NewStore(fakeAuth{}, data)
	ctx := context.Background()

	_, err := s.Client().SignInWithPassword(ctx, "slow", "x")
	require.NoError(t, err)
	assert.True(t, s.Loading())
	assert.Nil(t, s.Identity(), "identity is unknown while resolving")

	require.NoError(t, s.Client().SignOut(ctx))

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, s.Wait(waitCtx))
	assert.Nil(t, s.Identity())

	close(data.gate)
	assert.Never(t, func() bool { return s.Identity() != nil }, 50*time.Millisecond, time.Millisecond)
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore(fakeAuth{}, &gatedData{})
	got := make(chan *models.Identity, 2)
	unsubscribe := s.Subscribe(func(id *models.Identity) { got <- id })
	defer unsubscribe()

	require.NoError(t, s.Login(context.Background(), "fast", "x"))

	id := <-got
	require.NotNil(t, id)
	assert.Equal(t, "name-fast", id.UserName)
}

func TestWait_RespectsContext(t *testing.T) {
	data := &gatedData{gateUser: "stuck", gate: make(chan struct{})}
	defer close(data.gate)
	s := NewStore(fakeAuth{}, data)

	_, err := s.Client().SignInWithPassword(context.Background(), "stuck", "x")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)
	assert.True(t, s.Loading())
}

func TestRegistry_MiddlewareRestoresFromCookie(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.CreateTestUser(t, f.conn, "cookie@example.com", "cookie", false)

	s := f.registry.New()
	require.NoError(t, s.Login(ctx, "cookie@example.com", testutil.TestPassword))
	f.registry.Register(s)

	var seen *Store
	handler := f.registry.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: s.AccessToken()})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Same(t, s, seen)

	// A fresh registry (server restart) restores the session from the backend.
	restarted := NewRegistry(f.auth, f.data, RegistryConfig{Secret: testutil.GetTestConfig().JWTSecret})
	handler = restarted.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))
	req = httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: s.AccessToken()})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, seen)
	require.NoError(t, seen.Wait(ctx))
	require.NotNil(t, seen.Identity())
	assert.Equal(t, "cookie", seen.Identity().UserName)
	assert.Equal(t, 1, restarted.Len())
}

func TestRegistry_InvalidCookieIsCleared(t *testing.T) {
	f := setup(t)

	var seen *Store
	handler := f.registry.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-jwt"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.NotNil(t, seen)
	assert.Nil(t, seen.Identity())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].MaxAge < 0)
	assert.Equal(t, 0, f.registry.Len())
}

func TestRegistry_Prune(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.CreateTestUser(t, f.conn, "a@example.com", "alpha", false)
	testutil.CreateTestUser(t, f.conn, "b@example.com", "bravo", false)

	now := time.Now()
	f.registry.now = func() time.Time { return now }

	idle := f.registry.New()
	require.NoError(t, idle.Login(ctx, "a@example.com", testutil.TestPassword))
	f.registry.Register(idle)

	out := f.registry.New()
	require.NoError(t, out.Login(ctx, "b@example.com", testutil.TestPassword))
	f.registry.Register(out)
	require.NoError(t, out.Logout(ctx))

	assert.Equal(t, 1, f.registry.Prune(), "signed-out store is dropped")

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, f.registry.Prune(), "idle store is dropped")
	assert.Equal(t, 0, f.registry.Len())
}

func (f *fixture) login(t *testing.T, email string) *Store {
	t.Helper()
	s := f.registry.New()
	require.NoError(t, s.Login(context.Background(), email, testutil.TestPassword))
	f.registry.Register(s)
	return s
}

func TestRegistry_RefreshUserAppliesRoleChange(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	adminID := testutil.CreateTestUser(t, f.conn, "admin@example.com", "admin", true)
	testutil.CreateTestUser(t, f.conn, "other@example.com", "other", true)

	laptop := f.login(t, "admin@example.com")
	phone := f.login(t, "admin@example.com")
	other := f.login(t, "other@example.com")
	require.True(t, laptop.IsAdmin())

	require.NoError(t, f.data.SetAdmin(ctx, adminID, false))
	assert.True(t, phone.IsAdmin(), "stores keep the resolved role until refreshed")

	assert.Equal(t, 2, f.registry.RefreshUser(ctx, adminID))
	assert.False(t, laptop.IsAdmin())
	assert.False(t, phone.IsAdmin())
	assert.True(t, other.IsAdmin())
	assert.Equal(t, 3, f.registry.Len())
}

func TestRegistry_RefreshUserDropsRevokedSessions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	userID := testutil.CreateTestUser(t, f.conn, "user@example.com", "user", false)

	s := f.login(t, "user@example.com")
	require.NoError(t, f.auth.SignOut(ctx, s.AccessToken()))

	assert.Equal(t, 0, f.registry.RefreshUser(ctx, userID))
	require.NoError(t, s.Wait(ctx))
	assert.Nil(t, s.Identity())
	assert.Equal(t, 0, f.registry.Len())
}

func TestRegistry_RemoveUserEndsEverySession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	userID := testutil.CreateTestUser(t, f.conn, "leaving@example.com", "leaving", false)
	testutil.CreateTestUser(t, f.conn, "staying@example.com", "staying", false)

	first := f.login(t, "leaving@example.com")
	second := f.login(t, "leaving@example.com")
	f.login(t, "staying@example.com")
	token := second.AccessToken()

	require.NoError(t, f.data.DeleteUserAccount(ctx, userID))
	assert.Equal(t, 2, f.registry.RemoveUser(userID))
	assert.Equal(t, 1, f.registry.Len())

	for _, s := range []*Store{first, second} {
		require.NoError(t, s.Wait(ctx))
		assert.Nil(t, s.Identity())
	}

	restored := f.registry.Restore(ctx, token)
	assert.Empty(t, restored.SessionID(), "a deleted user's token must not restore")
}

func TestRegistry_RestoreIgnoresCallerCancellation(t *testing.T) {
	f := setup(t)
	testutil.CreateTestUser(t, f.conn, "cookie@example.com", "cookie", false)
	s := f.login(t, "cookie@example.com")

	restarted := NewRegistry(f.auth, f.data, RegistryConfig{Secret: testutil.GetTestConfig().JWTSecret})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	restored := restarted.Restore(ctx, s.AccessToken())
	assert.Equal(t, s.SessionID(), restored.SessionID())
	assert.Equal(t, 1, restarted.Len())
}
