// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"sync"

	"github.com/danielhkuo/yourviews/backend"
)

// Event is an auth state transition.
type Event string

const (
	EventInitialSession Event = "INITIAL_SESSION"
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventUserUpdated    Event = "USER_UPDATED"
)

// AuthError carries the backend's message for a failed auth operation.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func authError(op string, err error) error {
	return &AuthError{Op: op, Message: backend.Message(err), Err: err}
}

// AuthClient holds one browser's backend session and tells listeners
// about every change to it.
type AuthClient struct {
	auth backend.Auth

	mu        sync.Mutex
	session   *backend.Session
	listeners map[int]func(Event, *backend.Session)
	nextID    int
}

func NewAuthClient(auth backend.Auth) *AuthClient {
	return &AuthClient{
		auth:      auth,
		listeners: make(map[int]func(Event, *backend.Session)),
	}
}

// Session returns the current backend session or nil.
func (c *AuthClient) Session() *backend.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// OnAuthStateChange registers fn for every auth event. Events are
// delivered synchronously on the goroutine that caused them.
func (c *AuthClient) OnAuthStateChange(fn func(Event, *backend.Session)) (unsubscribe func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *AuthClient) emit(event Event, s *backend.Session) {
	c.mu.Lock()
	c.session = s
	listeners := make([]func(Event, *backend.Session), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(event, s)
	}
}

// Restore validates an access token from a previous visit and emits
// INITIAL_SESSION with the session, or with nil when the token is no
// longer valid.
func (c *AuthClient) Restore(ctx context.Context, accessToken string) error {
	s, err := c.auth.GetSession(ctx, accessToken)
	if err != nil {
		c.emit(EventInitialSession, nil)
		return authError("restore", err)
	}
	c.emit(EventInitialSession, s)
	return nil
}

func (c *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*backend.Session, error) {
	s, err := c.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, authError("login", err)
	}
	c.emit(EventSignedIn, s)
	return s, nil
}

func (c *AuthClient) SignUp(ctx context.Context, email, password, displayName string) (*backend.Session, error) {
	s, err := c.auth.SignUp(ctx, email, password, displayName)
	if err != nil {
		return nil, authError("signup", err)
	}
	c.emit(EventSignedIn, s)
	return s, nil
}

// SignOut revokes the session. Listeners see SIGNED_OUT even when the
// backend call fails, since the browser drops its token either way.
func (c *AuthClient) SignOut(ctx context.Context) error {
	s := c.Session()

	var err error
	if s != nil {
		err = c.auth.SignOut(ctx, s.AccessToken)
	}
	c.emit(EventSignedOut, nil)

	if err != nil {
		return authError("logout", err)
	}
	return nil
}

// Refresh re-reads the session user and emits USER_UPDATED.
func (c *AuthClient) Refresh(ctx context.Context) error {
	s := c.Session()
	if s == nil {
		return nil
	}

	fresh, err := c.auth.GetSession(ctx, s.AccessToken)
	if err != nil {
		return authError("refresh", err)
	}
	c.emit(EventUserUpdated, fresh)
	return nil
}

// Drop forgets a session the backend already revoked and emits
// SIGNED_OUT without calling the backend.
func (c *AuthClient) Drop() {
	c.emit(EventSignedOut, nil)
}
