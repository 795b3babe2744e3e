// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/danielhkuo/yourviews/auth"
	"github.com/danielhkuo/yourviews/backend"
)

// CookieName holds the access token in the browser.
const CookieName = "yv_session"

const restoreTimeout = 10 * time.Second

type RegistryConfig struct {
	Secret  string
	IdleTTL time.Duration
	// Secure marks session cookies Secure.
	Secure bool
}

// Registry finds the Store of a browser session by its session id (the
// access token's jti).
type Registry struct {
	auth    backend.Auth
	data    backend.Data
	secret  []byte
	idleTTL time.Duration
	secure  bool
	now     func() time.Time
	group   singleflight.Group

	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry(authSvc backend.Auth, data backend.Data, cfg RegistryConfig) *Registry {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	return &Registry{
		auth:    authSvc,
		data:    data,
		secret:  []byte(cfg.Secret),
		idleTTL: cfg.IdleTTL,
		secure:  cfg.Secure,
		now:     time.Now,
		stores:  make(map[string]*Store),
	}
}

// New returns a signed-out store that is not registered yet.
func (r *Registry) New() *Store {
	s := NewStore(r.auth, r.data)
	s.now = r.now
	s.lastUsed = r.now()
	return s
}

func (r *Registry) lookup(sessionID, token string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stores[sessionID]
	if !ok || s.AccessToken() != token {
		return nil
	}
	return s
}

// Restore returns the store for an access token. Unknown but valid tokens
// are restored from the backend, which emits INITIAL_SESSION; concurrent
// restores of one session share a single store. Invalid tokens get a
// signed-out store.
func (r *Registry) Restore(ctx context.Context, token string) *Store {
	claims, err := auth.ParseAccessToken(token, r.secret)
	if err != nil {
		return r.New()
	}

	if s := r.lookup(claims.ID, token); s != nil {
		s.touch()
		return s
	}

	v, _, _ := r.group.Do(claims.ID, func() (any, error) {
		if s := r.lookup(claims.ID, token); s != nil {
			return s, nil
		}

		// Joiners share this result, so the first caller's cancellation
		// must not sign them out.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), restoreTimeout)
		defer cancel()

		s := r.New()
		if err := s.client.Restore(rctx, token); err != nil {
			slog.Debug("session restore failed", "session_id", claims.ID, "error", err)
			return s, nil
		}
		r.Register(s)
		return s, nil
	})
	return v.(*Store)
}

// Register indexes a signed-in store by its session id.
func (r *Registry) Register(s *Store) {
	id := s.SessionID()
	if id == "" {
		return
	}

	r.mu.Lock()
	r.stores[id] = s
	r.mu.Unlock()
}

func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	delete(r.stores, sessionID)
	r.mu.Unlock()
}

// storesOf returns the registered stores signed in as userID, keyed by
// session id.
func (r *Registry) storesOf(userID string) map[string]*Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := make(map[string]*Store)
	for id, s := range r.stores {
		if s.UserID() == userID {
			found[id] = s
		}
	}
	return found
}

// RefreshUser re-resolves every live session of userID, so role and name
// changes apply to the user's other browsers. Sessions the backend no
// longer accepts are dropped. It returns the number of sessions refreshed.
func (r *Registry) RefreshUser(ctx context.Context, userID string) int {
	refreshed := 0
	for id, s := range r.storesOf(userID) {
		if err := s.Refresh(ctx); err != nil {
			slog.Warn("session refresh failed", "session_id", id, "user_id", userID, "error", err)
			r.Remove(id)
			s.client.Drop()
			continue
		}
		refreshed++
	}
	return refreshed
}

// RemoveUser signs out every live session of userID locally. The backend
// sessions must already be revoked. It returns the number removed.
func (r *Registry) RemoveUser(userID string) int {
	stores := r.storesOf(userID)
	for id, s := range stores {
		r.Remove(id)
		s.client.Drop()
	}
	if len(stores) > 0 {
		slog.Info("sessions removed", "user_id", userID, "count", len(stores))
	}
	return len(stores)
}

// Prune drops stores that signed out, expired or sat idle past IdleTTL.
func (r *Registry) Prune() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.stores {
		if s.SessionID() != id || !now.Before(s.ExpiresAt()) || now.Sub(s.idleSince()) >= r.idleTTL {
			delete(r.stores, id)
			removed++
		}
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// SetCookie stores the session's access token in the browser.
func (r *Registry) SetCookie(w http.ResponseWriter, s *Store) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.AccessToken(),
		Path:     "/",
		Expires:  s.ExpiresAt(),
		HttpOnly: true,
		Secure:   r.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (r *Registry) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Middleware attaches the request's session store to its context.
func (r *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var s *Store
		if c, err := req.Cookie(CookieName); err == nil && c.Value != "" {
			s = r.Restore(req.Context(), c.Value)
			if s.SessionID() == "" {
				r.ClearCookie(w)
			}
		} else {
			s = r.New()
		}

		next.ServeHTTP(w, req.WithContext(WithStore(req.Context(), s)))
	})
}

type contextKey struct{}

func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the request's store, or nil outside Middleware.
func FromContext(ctx context.Context) *Store {
	s, _ := ctx.Value(contextKey{}).(*Store)
	return s
}
