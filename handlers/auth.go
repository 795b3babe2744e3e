// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/yourviews/guard"
	"github.com/danielhkuo/yourviews/middleware"
	"github.com/danielhkuo/yourviews/models"
	"github.com/danielhkuo/yourviews/queries"
	"github.com/danielhkuo/yourviews/querycache"
	"github.com/danielhkuo/yourviews/session"
)

// AuthHandler signs visitors in and out and runs password recovery.
type AuthHandler struct {
	loader
	sessions *session.Registry
	siteURL  string
}

func NewAuthHandler(q *queries.Fetcher, cache *querycache.Cache, sessions *session.Registry, siteURL string) *AuthHandler {
	return &AuthHandler{
		loader:   loader{q: q, cache: cache},
		sessions: sessions,
		siteURL:  strings.TrimRight(siteURL, "/"),
	}
}

// Session handles GET /api/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	loading := s != nil && s.Loading()
	middleware.JSONResponse(w, http.StatusOK, map[string]any{
		"identity": identity(r),
		"loading":  loading,
	})
}

// Login handles POST /api/auth/login?from=
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !parseBody(w, r, &req) {
		return
	}
	if err := queries.ValidateLogin(req); err != nil {
		actionError(w, "Login failed", err)
		return
	}

	s := h.sessions.New()
	if err := s.Login(r.Context(), strings.TrimSpace(req.Email), req.Password); err != nil {
		actionError(w, "Login failed", err)
		return
	}
	h.endPrevious(r, s)
	h.sessions.Register(s)
	h.sessions.SetCookie(w, s)

	redirectAction(w, http.StatusOK, "Login successful", "Welcome back to YourViews!",
		guard.SafeRedirect(r.URL.Query().Get("from")), s.Identity())
}

// endPrevious signs out the session the request came with once next has
// replaced it.
func (h *AuthHandler) endPrevious(r *http.Request, next *session.Store) {
	prev := session.FromContext(r.Context())
	if prev == nil || prev == next {
		return
	}
	sessionID := prev.SessionID()
	if sessionID == "" || sessionID == next.SessionID() {
		return
	}
	if err := prev.Logout(r.Context()); err != nil {
		slog.Warn("sign out of replaced session failed", "session_id", sessionID, "error", err)
	}
	h.sessions.Remove(sessionID)
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !parseBody(w, r, &req) {
		return
	}
	if err := queries.ValidateRegister(req); err != nil {
		actionError(w, "Registration failed", err)
		return
	}

	settings, err := h.settings(r.Context())
	if err != nil {
		actionError(w, "Registration failed", err)
		return
	}
	if !settings.AllowRegistration {
		middleware.NotifyError(w, http.StatusForbidden, "Registration failed", "Registration is currently closed.")
		return
	}

	s := h.sessions.New()
	if err := s.Signup(r.Context(), strings.TrimSpace(req.Email), req.Password, strings.TrimSpace(req.Username)); err != nil {
		actionError(w, "Registration failed", err)
		return
	}
	h.endPrevious(r, s)
	h.sessions.Register(s)
	h.sessions.SetCookie(w, s)
	h.cache.Invalidate(queries.UsersKey())

	redirectAction(w, http.StatusCreated, "Registration successful!", "Please check your email for a confirmation link.",
		"/register-success", s.Identity())
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if s := session.FromContext(r.Context()); s != nil {
		sessionID := s.SessionID()
		if err := s.Logout(r.Context()); err != nil {
			// The local session is gone either way.
			slog.Warn("sign out failed", "session_id", sessionID, "error", err)
		}
		h.sessions.Remove(sessionID)
	}
	h.sessions.ClearCookie(w)

	redirectAction(w, http.StatusOK, "Signed out", "", "/", nil)
}

// ForgotPassword handles POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if !parseBody(w, r, &req) {
		return
	}

	if err := h.q.RequestPasswordReset(r.Context(), req, h.siteURL+"/reset-password"); err != nil {
		actionError(w, "Error sending reset link", err)
		return
	}

	middleware.Notify(w, http.StatusOK, "Password reset link sent", "Please check your email for a link to reset your password.", nil)
}

// ResetPassword handles POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if !parseBody(w, r, &req) {
		return
	}

	if err := h.q.ResetPassword(r.Context(), req); err != nil {
		actionError(w, "Password reset failed", err)
		return
	}

	redirectAction(w, http.StatusOK, "Password updated", "You can now sign in with your new password.", "/login", nil)
}

// Consent handles POST /api/consent
func (h *AuthHandler) Consent(w http.ResponseWriter, r *http.Request) {
	middleware.SetConsent(w)
	middleware.Notify(w, http.StatusOK, "Cookie preferences saved", "", nil)
}
