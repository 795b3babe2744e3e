// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/yourviews/models"
	"github.com/danielhkuo/yourviews/queries"
	"github.com/danielhkuo/yourviews/querycache"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = livePongWait * 9 / 10
)

// LiveMessage is pushed to live result subscribers.
type LiveMessage struct {
	Type  string       `json:"type"` // "poll" or "error"
	Poll  *models.Poll `json:"poll,omitempty"`
	Error string       `json:"error,omitempty"`
}

// ResultsHandler streams poll results over WebSocket.
type ResultsHandler struct {
	loader
	upgrader websocket.Upgrader
}

// NewResultsHandler accepts WebSocket connections from allowedOrigin, or
// from any origin when it is empty.
func NewResultsHandler(q *queries.Fetcher, cache *querycache.Cache, allowedOrigin string) *ResultsHandler {
	h := &ResultsHandler{loader: loader{q: q, cache: cache}}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowedOrigin == "" || origin == "" || origin == allowedOrigin
		},
	}
	return h
}

// Live handles GET /api/polls/{id}/live. Every applied result for the poll
// is sent as a LiveMessage until the client disconnects.
func (h *ResultsHandler) Live(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request.
		slog.Debug("websocket upgrade failed", "poll_id", pollID, "error", err)
		return
	}
	defer conn.Close()

	// Only the newest snapshot matters; a slow client skips intermediate ones.
	updates := make(chan querycache.Snapshot, 1)
	unsubscribe := h.cache.Subscribe(queries.PollKey(pollID), h.pollFetch(pollID), func(s querycache.Snapshot) {
		for {
			select {
			case updates <- s:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(livePongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(livePongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	slog.Info("live results subscribed", "poll_id", pollID)

	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			slog.Info("live results closed", "poll_id", pollID)
			return
		case <-r.Context().Done():
			return
		case s := <-updates:
			msg, ok := liveMessage(s)
			if !ok {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				slog.Debug("live write failed", "poll_id", pollID, "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func liveMessage(s querycache.Snapshot) (LiveMessage, bool) {
	switch s.Status {
	case querycache.StatusSuccess:
		poll, ok := s.Data.(*models.Poll)
		if !ok || poll == nil {
			return LiveMessage{}, false
		}
		return LiveMessage{Type: "poll", Poll: poll}, true
	case querycache.StatusError:
		return LiveMessage{Type: "error", Error: errorMessage(s.Err)}, true
	}
	return LiveMessage{}, false
}
