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

// VotingHandler records votes and comments.
type VotingHandler struct {
	loader
}

func NewVotingHandler(q *queries.Fetcher, cache *querycache.Cache) *VotingHandler {
	return &VotingHandler{loader{q: q, cache: cache}}
}

// Vote handles POST /api/polls/{id}/vote
func (h *VotingHandler) Vote(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	userID := currentUserID(r)
	if userID == "" {
		middleware.NotifyError(w, http.StatusUnauthorized, "Not logged in", "Please log in to cast your vote.")
		return
	}

	var req models.VoteRequest
	if !parseBody(w, r, &req) {
		return
	}

	err := h.cache.Mutate(r.Context(), func(ctx context.Context) error {
		return h.q.SubmitVote(ctx, pollID, req.OptionID, userID)
	}, queries.VoteKeys(pollID, userID)...)
	if err != nil {
		actionError(w, "Failed to submit vote", err)
		return
	}

	// The poll key was just invalidated, so this read waits for fresh counts.
	poll, err := h.poll(r.Context(), pollID)
	if err != nil {
		actionError(w, "Failed to load results", err)
		return
	}

	middleware.Notify(w, http.StatusOK, "Vote submitted!", "Your vote has been recorded.", models.PollDetail{
		Poll:        *poll,
		HasVoted:    true,
		ShowResults: true,
	})
}

// AddComment handles POST /api/polls/{id}/comments
func (h *VotingHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	userID := currentUserID(r)

	var req models.CommentRequest
	if !parseBody(w, r, &req) {
		return
	}

	var comment *models.Comment
	err := h.cache.Mutate(r.Context(), func(ctx context.Context) error {
		var err error
		comment, err = h.q.AddComment(ctx, pollID, userID, req)
		return err
	}, queries.CommentsKey(pollID), queries.ActivityKey(userID))
	if err != nil {
		actionError(w, "Failed to post comment", err)
		return
	}

	middleware.Notify(w, http.StatusCreated, "Comment posted", "", comment)
}
