// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"

	"github.com/danielhkuo/yourviews/middleware"
	"github.com/danielhkuo/yourviews/models"
	"github.com/danielhkuo/yourviews/queries"
	"github.com/danielhkuo/yourviews/querycache"
)

// PollHandler creates polls and opens or closes them.
type PollHandler struct {
	loader
}

func NewPollHandler(q *queries.Fetcher, cache *querycache.Cache) *PollHandler {
	return &PollHandler{loader{q: q, cache: cache}}
}

// CreatePoll handles POST /api/polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if !parseBody(w, r, &req) {
		return
	}

	userID := currentUserID(r)
	var poll *models.Poll
	err := h.cache.Mutate(r.Context(), func(ctx context.Context) error {
		var err error
		poll, err = h.q.CreatePoll(ctx, req, userID)
		return err
	}, queries.PollWriteKeys("", userID)...)
	if err != nil {
		actionError(w, "Failed to create poll", err)
		return
	}

	redirectAction(w, http.StatusCreated, "Poll created", "Your poll is now live.", "/polls/"+poll.ID, poll)
}

// SetActive handles PUT /api/admin/polls/{id}/active
func (h *PollHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")

	var req models.SetPollActiveRequest
	if !parseBody(w, r, &req) {
		return
	}

	err := h.cache.Mutate(r.Context(), func(ctx context.Context) error {
		return h.q.SetPollActive(ctx, pollID, req.IsActive)
	}, queries.PollWriteKeys(pollID, "")...)
	if err != nil {
		actionError(w, "Failed to update poll", err)
		return
	}

	title := "Poll closed"
	if req.IsActive {
		title = "Poll reopened"
	}
	middleware.Notify(w, http.StatusOK, title, "", map[string]any{"id": pollID, "is_active": req.IsActive})
}

// Results handles GET /api/polls/{id}/results
func (h *PollHandler) Results(w http.ResponseWriter, r *http.Request) {
	poll, err := h.poll(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, errorStatus(err), errorMessage(err))
		return
	}
	middleware.JSONResponse(w, http.StatusOK, poll)
}
