// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/yourviews/middleware"
	"github.com/danielhkuo/yourviews/models"
	"github.com/danielhkuo/yourviews/queries"
	"github.com/danielhkuo/yourviews/querycache"
	"github.com/danielhkuo/yourviews/session"
)

// ProfileHandler edits and deletes the signed-in user's own account.
type ProfileHandler struct {
	loader
	sessions *session.Registry
}

func NewProfileHandler(q *queries.Fetcher, cache *querycache.Cache, sessions *session.Registry) *ProfileHandler {
	return &ProfileHandler{loader: loader{q: q, cache: cache}, sessions: sessions}
}

// UpdateProfile handles PUT /api/profile
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)

	var req models.UpdateProfileRequest
	if !parseBody(w, r, &req) {
		return
	}

	err := h.cache.Mutate(r.Context(), func(ctx context.Context) error {
		return h.q.UpdateProfile(ctx, userID, req)
	}, queries.ProfileKeys(userID)...)
	if err != nil {
		actionError(w, "Failed to update profile", err)
		return
	}

	h.respondWithProfile(w, r, "Profile updated", "Your profile information has been updated successfully.")
}

// UpdateAccount handles PUT /api/account
func (h *ProfileHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)

	var req models.UpdateAccountRequest
	if !parseBody(w, r, &req) {
		return
	}

	err := h.cache.Mutate(r.Context(), func(ctx context.Context) error {
		return h.q.UpdateAccount(ctx, userID, req)
	}, queries.ProfileKeys(userID)...)
	if err != nil {
		actionError(w, "Failed to update account", err)
		return
	}

	h.respondWithProfile(w, r, "Account updated", "Your account details have been saved.")
}

// respondWithProfile re-resolves the session identity so the new name
// shows everywhere, then answers with the fresh profile.
func (h *ProfileHandler) respondWithProfile(w http.ResponseWriter, r *http.Request, title, description string) {
	if s := session.FromContext(r.Context()); s != nil {
		if err := s.Refresh(r.Context()); err != nil {
			slog.Warn("identity refresh failed", "error", err)
		}
	}

	profile, err := h.profile(r.Context(), currentUserID(r))
	if err != nil {
		actionError(w, "Failed to load profile", err)
		return
	}
	middleware.Notify(w, http.StatusOK, title, description, profile)
}

// DeleteAccount handles DELETE /api/account
func (h *ProfileHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)

	err := h.cache.Mutate(r.Context(), func(ctx context.Context) error {
		return h.q.DeleteAccount(ctx, userID)
	}, append(queries.ProfileKeys(userID), queries.ActivityKey(userID))...)
	if err != nil {
		actionError(w, "Failed to delete account", err)
		return
	}

	// The backend already revoked every session of the user.
	h.sessions.RemoveUser(userID)
	h.sessions.ClearCookie(w)

	redirectAction(w, http.StatusOK, "Account deleted", "Your account and data have been removed.", "/", nil)
}
