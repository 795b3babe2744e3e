// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/yourviews/models"
	"github.com/danielhkuo/yourviews/testutil"
)

func TestVote(t *testing.T) {
	env := setupEnv(t)
	h := NewVotingHandler(env.q, env.cache)

	s, userID := env.signIn(t, "voter@example.com", "voter", false)
	pollID, opts := testutil.CreateTestPoll(t, env.conn, "", userID, "Best season?", "Summer", "Winter")
	_, otherOpts := testutil.CreateTestPoll(t, env.conn, "", userID, "Other", "X", "Y")

	t.Run("signed out", func(t *testing.T) {
		w := call(h.Vote, "POST", "/api/polls/"+pollID+"/vote", models.VoteRequest{OptionID: opts[0]}, env.sessions.New(), "id", pollID)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
		}
		resp := decodeError(t, w)
		require.NotNil(t, resp.Notification)
		assert.Equal(t, "Not logged in", resp.Notification.Title)
		assert.Equal(t, models.VariantDestructive, resp.Notification.Variant)
	})

	t.Run("missing option", func(t *testing.T) {
		w := call(h.Vote, "POST", "/api/polls/"+pollID+"/vote", models.VoteRequest{}, s, "id", pollID)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
		assert.Contains(t, decodeError(t, w).Fields, "option_id")
	})

	t.Run("option of another poll", func(t *testing.T) {
		w := call(h.Vote, "POST", "/api/polls/"+pollID+"/vote", models.VoteRequest{OptionID: otherOpts[0]}, s, "id", pollID)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected status %d, got %d: %s", http.StatusBadRequest, w.Code, w.Body.String())
		}
	})

	t.Run("first vote", func(t *testing.T) {
		w := call(h.Vote, "POST", "/api/polls/"+pollID+"/vote", models.VoteRequest{OptionID: opts[1]}, s, "id", pollID)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var detail models.PollDetail
		a := decodeAction(t, w, &detail)
		assert.Equal(t, "Vote submitted!", a.Notification.Title)
		assert.True(t, detail.HasVoted)
		assert.True(t, detail.ShowResults)
		assert.Equal(t, 0, detail.Poll.Options[0].VoteCount)
		assert.Equal(t, 1, detail.Poll.Options[1].VoteCount)
		assert.Equal(t, 1, detail.Poll.TotalVotes)
	})

	t.Run("second vote is rejected", func(t *testing.T) {
		w := call(h.Vote, "POST", "/api/polls/"+pollID+"/vote", models.VoteRequest{OptionID: opts[0]}, s, "id", pollID)
		if w.Code != http.StatusConflict {
			t.Fatalf("Expected status %d, got %d", http.StatusConflict, w.Code)
		}
		resp := decodeError(t, w)
		require.NotNil(t, resp.Notification)
		assert.Equal(t, "You have already voted on this poll", resp.Notification.Description)

		poll, err := env.q.FetchPoll(t.Context(), pollID)
		require.NoError(t, err)
		assert.Equal(t, 1, poll.TotalVotes)
	})
}

func TestVote_ClosedPoll(t *testing.T) {
	env := setupEnv(t)
	h := NewVotingHandler(env.q, env.cache)

	s, userID := env.signIn(t, "voter@example.com", "voter", false)
	pollID, opts := testutil.CreateTestPoll(t, env.conn, "", userID, "Closed", "A", "B")
	require.NoError(t, env.q.SetPollActive(t.Context(), pollID, false))

	w := call(h.Vote, "POST", "/api/polls/"+pollID+"/vote", models.VoteRequest{OptionID: opts[0]}, s, "id", pollID)

	if w.Code != http.StatusConflict {
		t.Fatalf("Expected status %d, got %d", http.StatusConflict, w.Code)
	}
	assert.Equal(t, "This poll is closed", decodeError(t, w).Notification.Description)
}

// Two requests from one user racing on the same poll record one vote.
func TestVote_ConcurrentDoubleVote(t *testing.T) {
	env := setupEnv(t)
	h := NewVotingHandler(env.q, env.cache)

	s, userID := env.signIn(t, "racer@example.com", "racer", false)
	pollID, opts := testutil.CreateTestPoll(t, env.conn, "", userID, "Race", "A", "B")

	var (
		ok, conflict atomic.Int32
		wg           sync.WaitGroup
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(option string) {
			defer wg.Done()
			w := call(h.Vote, "POST", "/api/polls/"+pollID+"/vote", models.VoteRequest{OptionID: option}, s, "id", pollID)
			switch w.Code {
			case http.StatusOK:
				ok.Add(1)
			case http.StatusConflict:
				conflict.Add(1)
			}
		}(opts[i])
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(1), conflict.Load())

	var votes, total int
	require.NoError(t, env.conn.QueryRow(`SELECT COUNT(*) FROM user_vote WHERE poll_id = $1`, pollID).Scan(&votes))
	require.NoError(t, env.conn.QueryRow(`SELECT SUM(vote_count) FROM poll_option WHERE poll_id = $1`, pollID).Scan(&total))
	assert.Equal(t, 1, votes)
	assert.Equal(t, 1, total)
}

func TestAddComment(t *testing.T) {
	env := setupEnv(t)
	h := NewVotingHandler(env.q, env.cache)
	pages := NewPageHandler(env.q, env.cache)

	s, userID := env.signIn(t, "talker@example.com", "talker", false)
	pollID, _ := testutil.CreateTestPoll(t, env.conn, "", userID, "Discuss", "A", "B")

	// Warm the cache so the comment has to invalidate it.
	var detail models.PollDetail
	decodeView(t, call(pages.Poll, "GET", "/polls/"+pollID, nil, s, "id", pollID), &detail)
	assert.Empty(t, detail.Comments)

	w := call(h.AddComment, "POST", "/api/polls/"+pollID+"/comments", models.CommentRequest{Text: "  "}, s, "id", pollID)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	assert.Equal(t, "Comment cannot be empty", decodeError(t, w).Fields["text"])

	w = call(h.AddComment, "POST", "/api/polls/"+pollID+"/comments", models.CommentRequest{Text: "Great question"}, s, "id", pollID)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	var comment models.Comment
	decodeAction(t, w, &comment)
	assert.Equal(t, "Great question", comment.Text)
	assert.Equal(t, userID, comment.UserID)

	detail = models.PollDetail{}
	decodeView(t, call(pages.Poll, "GET", "/polls/"+pollID, nil, s, "id", pollID), &detail)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "talker", detail.Comments[0].UserName)
}

func TestCreatePoll(t *testing.T) {
	env := setupEnv(t)
	h := NewPollHandler(env.q, env.cache)
	pages := NewPageHandler(env.q, env.cache)

	s, userID := env.signIn(t, "author@example.com", "author", false)

	// Cached before the poll exists.
	var before models.PollsData
	decodeView(t, call(pages.Polls, "GET", "/polls", nil, nil), &before)
	assert.Empty(t, before.Polls)

	tests := []struct {
		name   string
		req    models.CreatePollRequest
		status int
	}{
		{"missing title", models.CreatePollRequest{Options: []string{"A", "B"}}, http.StatusBadRequest},
		{"one option", models.CreatePollRequest{Title: "Q", Options: []string{"A", " "}}, http.StatusBadRequest},
		{"valid", models.CreatePollRequest{Title: "Lunch?", Options: []string{"Soup", "Salad"}}, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(h.CreatePoll, "POST", "/api/polls", tt.req, s)
			if w.Code != tt.status {
				t.Fatalf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if tt.status != http.StatusCreated {
				return
			}

			var poll models.Poll
			a := decodeAction(t, w, &poll)
			assert.Equal(t, "/polls/"+poll.ID, a.RedirectTo)
			assert.Equal(t, userID, poll.CreatedBy)
			assert.Len(t, poll.Options, 2)
		})
	}

	var after models.PollsData
	decodeView(t, call(pages.Polls, "GET", "/polls", nil, nil), &after)
	require.Len(t, after.Polls, 1)
	assert.Equal(t, "Lunch?", after.Polls[0].Title)
}

func TestResults(t *testing.T) {
	env := setupEnv(t)
	h := NewPollHandler(env.q, env.cache)

	userID := testutil.CreateTestUser(t, env.conn, "author@example.com", "author", false)
	pollID, _ := testutil.CreateTestPoll(t, env.conn, "", userID, "Q", "A", "B")

	w := call(h.Results, "GET", "/api/polls/"+pollID+"/results", nil, nil, "id", pollID)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	w = call(h.Results, "GET", "/api/polls/missing/results", nil, nil, "id", "missing")
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}
