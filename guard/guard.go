// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package guard

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danielhkuo/yourviews/middleware"
	"github.com/danielhkuo/yourviews/models"
	"github.com/danielhkuo/yourviews/session"
)

// Access is the requirement a route places on the session.
type Access int

const (
	Public Access = iota
	Authenticated
	Admin
)

// State is the outcome of checking a session against a route.
type State string

const (
	StateResolving     State = "resolving-session"
	StateAuthorized    State = "authorized"
	StateRedirectLogin State = "redirect-to-login"
	StateRedirectHome  State = "redirect-to-home"
)

const (
	defaultResolveWait = 2 * time.Second
	loginPath          = "/login"
)

type Guard struct {
	wait time.Duration
}

// New returns a guard that waits up to resolveWait for a session's
// identity before answering with a loading view.
func New(resolveWait time.Duration) *Guard {
	if resolveWait <= 0 {
		resolveWait = defaultResolveWait
	}
	return &Guard{wait: resolveWait}
}

// Check decides what a session may do on a route. A nil store is a
// signed-out visitor.
func (g *Guard) Check(ctx context.Context, s *session.Store, access Access) State {
	if access == Public {
		return StateAuthorized
	}
	if s == nil {
		return StateRedirectLogin
	}

	if s.Loading() {
		waitCtx, cancel := context.WithTimeout(ctx, g.wait)
		err := s.Wait(waitCtx)
		cancel()
		if err != nil {
			return StateResolving
		}
	}

	id := s.Identity()
	switch {
	case id == nil:
		return StateRedirectLogin
	case access == Admin && !id.IsAdmin:
		return StateRedirectHome
	}
	return StateAuthorized
}

// Page guards a page route. Signed-out visitors go to the login page with
// the original location in "from"; non-admins are sent home.
func (g *Guard) Page(access Access, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch g.Check(r.Context(), session.FromContext(r.Context()), access) {
		case StateResolving:
			middleware.JSONResponse(w, http.StatusAccepted, models.View{
				Page:   r.URL.Path,
				Status: models.ViewLoading,
			})
		case StateRedirectLogin:
			http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusFound)
		case StateRedirectHome:
			http.Redirect(w, r, "/", http.StatusFound)
		default:
			next(w, r)
		}
	}
}

// API guards a JSON action with status codes instead of redirects.
func (g *Guard) API(access Access, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch g.Check(r.Context(), session.FromContext(r.Context()), access) {
		case StateResolving:
			w.Header().Set("Retry-After", "1")
			middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Session is still loading")
		case StateRedirectLogin:
			middleware.ErrorResponse(w, http.StatusUnauthorized, "You must be signed in")
		case StateRedirectHome:
			middleware.ErrorResponse(w, http.StatusForbidden, "Administrator access required")
		default:
			next(w, r)
		}
	}
}

// LoginURL returns the login page carrying from as the return location.
func LoginURL(from string) string {
	if from == "" || from == "/" {
		return loginPath
	}
	return loginPath + "?" + url.Values{"from": {from}}.Encode()
}

// SafeRedirect returns from when it is a path on this site and "/"
// otherwise.
func SafeRedirect(from string) string {
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, `/\`) {
		return "/"
	}
	u, err := url.Parse(from)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	// Never bounce back into the login page itself.
	if u.Path == loginPath {
		return "/"
	}
	return from
}
