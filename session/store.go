// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/danielhkuo/yourviews/backend"
	"github.com/danielhkuo/yourviews/models"
)

const resolveTimeout = 10 * time.Second

// Store is the identity of one browser session. Every auth event starts a
// profile resolution; only the latest one is applied.
type Store struct {
	client *AuthClient
	data   backend.Data
	now    func() time.Time

	mu        sync.Mutex
	seq       uint64
	resolving bool
	done      chan struct{}
	identity  *models.Identity
	subs      map[int]func(*models.Identity)
	nextSub   int
	lastUsed  time.Time
}

func NewStore(auth backend.Auth, data backend.Data) *Store {
	s := &Store{
		client:   NewAuthClient(auth),
		data:     data,
		now:      time.Now,
		subs:     make(map[int]func(*models.Identity)),
		lastUsed: time.Now(),
	}
	s.client.OnAuthStateChange(s.onAuthEvent)
	return s
}

// Client exposes the underlying auth client.
func (s *Store) Client() *AuthClient {
	return s.client
}

func (s *Store) onAuthEvent(event Event, sess *backend.Session) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	if !s.resolving {
		s.resolving = true
		s.done = make(chan struct{})
	}
	s.mu.Unlock()

	slog.Debug("auth state changed", "event", string(event), "signed_in", sess != nil)

	go s.resolve(seq, sess)
}

func (s *Store) resolve(seq uint64, sess *backend.Session) {
	var identity *models.Identity
	if sess != nil {
		ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
		identity = s.resolveIdentity(ctx, sess)
		cancel()
	}

	s.mu.Lock()
	if seq != s.seq {
		// A newer event owns the result.
		s.mu.Unlock()
		return
	}
	s.identity = identity
	s.resolving = false
	close(s.done)
	subs := make([]func(*models.Identity), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(identity)
	}
}

// resolveIdentity loads the user's profile, creating a default one when
// the row is missing. A profile that cannot be loaded leaves the user
// signed in without admin rights.
func (s *Store) resolveIdentity(ctx context.Context, sess *backend.Session) *models.Identity {
	u := sess.User
	identity := &models.Identity{
		UserID:   u.ID,
		Email:    u.Email,
		UserName: defaultUserName(u),
	}

	profile, err := s.data.GetProfile(ctx, u.ID)
	if errors.Is(err, backend.ErrNotFound) {
		if err = s.data.EnsureProfile(ctx, u.ID, identity.UserName); err == nil {
			profile, err = s.data.GetProfile(ctx, u.ID)
		}
	}
	if err != nil {
		slog.Warn("profile resolution failed", "user_id", u.ID, "error", err)
		return identity
	}

	identity.UserName = profile.UserName
	identity.IsAdmin = profile.IsAdmin
	identity.Profile = profile
	return identity
}

func defaultUserName(u backend.User) string {
	if name := strings.TrimSpace(u.DisplayName); name != "" {
		return name
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// Identity returns the resolved user, or nil when signed out or still
// resolving.
func (s *Store) Identity() *models.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolving {
		return nil
	}
	return s.identity
}

// Loading reports whether a resolution is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolving
}

func (s *Store) IsAdmin() bool {
	id := s.Identity()
	return id != nil && id.IsAdmin
}

// Wait blocks until no resolution is in flight.
func (s *Store) Wait(ctx context.Context) error {
	for {
		s.mu.Lock()
		if !s.resolving {
			s.mu.Unlock()
			return nil
		}
		done := s.done
		s.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Subscribe registers fn for every applied identity.
func (s *Store) Subscribe(fn func(*models.Identity)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Login signs in and waits for the identity to resolve.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if _, err := s.client.SignInWithPassword(ctx, email, password); err != nil {
		return err
	}
	return s.Wait(ctx)
}

// Signup registers a user, signs them in and waits for the identity.
func (s *Store) Signup(ctx context.Context, email, password, displayName string) error {
	if _, err := s.client.SignUp(ctx, email, password, displayName); err != nil {
		return err
	}
	return s.Wait(ctx)
}

func (s *Store) Logout(ctx context.Context) error {
	err := s.client.SignOut(ctx)
	if werr := s.Wait(ctx); err == nil {
		err = werr
	}
	return err
}

// Refresh re-resolves the identity after the profile changed.
func (s *Store) Refresh(ctx context.Context) error {
	if err := s.client.Refresh(ctx); err != nil {
		return err
	}
	return s.Wait(ctx)
}

// AccessToken returns the current access token, or "".
func (s *Store) AccessToken() string {
	if sess := s.client.Session(); sess != nil {
		return sess.AccessToken
	}
	return ""
}

// SessionID returns the backend session id, or "".
func (s *Store) SessionID() string {
	if sess := s.client.Session(); sess != nil {
		return sess.ID
	}
	return ""
}

// UserID returns the signed-in user's id, or "".
func (s *Store) UserID() string {
	if sess := s.client.Session(); sess != nil {
		return sess.User.ID
	}
	return ""
}

// ExpiresAt returns when the access token expires.
func (s *Store) ExpiresAt() time.Time {
	if sess := s.client.Session(); sess != nil {
		return sess.ExpiresAt
	}
	return time.Time{}
}

func (s *Store) touch() {
	s.mu.Lock()
	s.lastUsed = s.now()
	s.mu.Unlock()
}

func (s *Store) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}
