// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielhkuo/yourviews/backend"
	"github.com/danielhkuo/yourviews/export"
	"github.com/danielhkuo/yourviews/media"
	"github.com/danielhkuo/yourviews/middleware"
	"github.com/danielhkuo/yourviews/models"
	"github.com/danielhkuo/yourviews/queries"
	"github.com/danielhkuo/yourviews/querycache"
	"github.com/danielhkuo/yourviews/session"
)

// AdminHandler serves the administrator actions.
type AdminHandler struct {
	loader
	sessions *session.Registry
	uploader *media.Uploader
}

func NewAdminHandler(q *queries.Fetcher, cache *querycache.Cache, sessions *session.Registry, uploader *media.Uploader) *AdminHandler {
	return &AdminHandler{loader: loader{q: q, cache: cache}, sessions: sessions, uploader: uploader}
}

// AddUser handles POST /api/admin/users
func (h *AdminHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req models.AddUserRequest
	if !parseBody(w, r, &req) {
		return
	}

	var user *backend.User
	err := h.cache.Mutate(r.Context(), func(ctx context.Context) error {
		var err error
		user, err = h.q.AddUser(ctx, req)
		return err
	}, queries.UsersKey(), querycache.Key{"analytics"})
	if err != nil {
		actionError(w, "Error adding user", err)
		return
	}

	middleware.Notify(w, http.StatusCreated, "User added", "User "+user.Email+" has been created.",
		map[string]string{"id": user.ID, "email": user.Email})
}

// SetAdmin handles PUT /api/admin/users/{id}/admin
func (h *AdminHandler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	var req models.SetAdminRequest
	if !parseBody(w, r, &req) {
		return
	}

	if userID == currentUserID(r) && !req.IsAdmin {
		middleware.NotifyError(w, http.StatusBadRequest, "Error updating user", "You cannot remove your own administrator access.")
		return
	}

	err := h.cache.Mutate(r.Context(), func(ctx context.Context) error {
		return h.q.SetUserAdmin(ctx, userID, req.IsAdmin)
	}, queries.ProfileKeys(userID)...)
	if err != nil {
		actionError(w, "Error updating user", err)
		return
	}
	// Live sessions of the user pick up the new role.
	h.sessions.RefreshUser(r.Context(), userID)

	description := "User is no longer an administrator."
	if req.IsAdmin {
		description = "User is now an administrator."
	}
	middleware.Notify(w, http.StatusOK, "User updated", description, map[string]any{"id": userID, "is_admin": req.IsAdmin})
}

// SaveSettings handles PUT /api/admin/settings
func (h *AdminHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var s models.SiteSettings
	if !parseBody(w, r, &s) {
		return
	}

	err := h.cache.Mutate(r.Context(), func(ctx context.Context) error {
		return h.q.SaveSettings(ctx, s)
	}, queries.SettingsKey())
	if err != nil {
		actionError(w, "Error saving settings", err)
		return
	}

	middleware.Notify(w, http.StatusOK, "Settings Saved", "Your settings have been updated successfully.", s)
}

// Export handles GET /api/admin/export/{file}, where file is
// "<dataset>.csv" or "<dataset>.json".
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	dataset, format, ok := strings.Cut(r.PathValue("file"), ".")
	if !ok || (format != export.FormatCSV && format != export.FormatJSON) {
		middleware.NotifyError(w, http.StatusBadRequest, "Export failed", "Use a .csv or .json file name.")
		return
	}

	rows, err := h.q.ExportDataset(r.Context(), dataset)
	if err != nil {
		actionError(w, "Export failed", err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, rows); err != nil {
		if !errors.Is(err, export.ErrNoData) {
			slog.Error("export failed", "dataset", dataset, "format", format, "error", err)
		}
		actionError(w, "Export failed", err)
		return
	}

	slog.Info("dataset exported", "dataset", dataset, "format", format, "bytes", buf.Len())

	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(dataset, format)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed to write export", "dataset", dataset, "error", err)
	}
}

// CreateTopic handles POST /api/admin/topics
func (h *AdminHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTopicRequest
	if !parseBody(w, r, &req) {
		return
	}

	var topic *models.Topic
	err := h.cache.Mutate(r.Context(), func(ctx context.Context) error {
		var err error
		topic, err = h.q.CreateTopic(ctx, req.Title, req.Description, req.Category)
		return err
	}, queries.TopicWriteKeys("")...)
	if err != nil {
		actionError(w, "Error creating topic", err)
		return
	}

	redirectAction(w, http.StatusCreated, "Topic created", "", "/topics/"+topic.ID, topic)
}

// TopicImage handles POST /api/admin/topics/{id}/image. It answers with a
// presigned upload URL and stores the resulting public image URL on the
// topic.
func (h *AdminHandler) TopicImage(w http.ResponseWriter, r *http.Request) {
	topicID := r.PathValue("id")

	var req models.TopicImageRequest
	if !parseBody(w, r, &req) {
		return
	}

	if _, err := h.topic(r.Context(), topicID); err != nil {
		actionError(w, "Upload failed", err)
		return
	}

	uploadURL, imageURL, err := h.uploader.PresignTopicImage(r.Context(), topicID, req.ContentType)
	if err != nil {
		if !errors.Is(err, media.ErrDisabled) && !errors.Is(err, media.ErrUnsupportedType) {
			slog.Error("presign failed", "topic_id", topicID, "error", err)
		}
		actionError(w, "Upload failed", err)
		return
	}

	err = h.cache.Mutate(r.Context(), func(ctx context.Context) error {
		return h.q.SetTopicImage(ctx, topicID, imageURL)
	}, queries.TopicWriteKeys(topicID)...)
	if err != nil {
		actionError(w, "Upload failed", err)
		return
	}

	middleware.Notify(w, http.StatusOK, "Upload ready", "Upload the image to the returned URL.", models.TopicImageResponse{
		UploadURL: uploadURL,
		ImageURL:  imageURL,
	})
}
