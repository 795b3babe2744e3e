// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/yourviews/guard"
	"github.com/danielhkuo/yourviews/models"
	"github.com/danielhkuo/yourviews/queries"
	"github.com/danielhkuo/yourviews/querycache"
)

var (
	linkTopics = models.Link{Name: "Browse All Topics", Href: "/topics"}
	linkPolls  = models.Link{Name: "Browse All Polls", Href: "/polls"}
	linkHome   = models.Link{Name: "Return to Home", Href: "/"}
)

// PageHandler renders the view model of every page.
type PageHandler struct {
	loader
}

func NewPageHandler(q *queries.Fetcher, cache *querycache.Cache) *PageHandler {
	return &PageHandler{loader{q: q, cache: cache}}
}

// Home handles GET /
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	featured, err := h.featuredPoll(r.Context())
	if err != nil {
		renderError(w, r, "home", err, linkHome)
		return
	}
	topics, err := h.topics(r.Context())
	if err != nil {
		renderError(w, r, "home", err, linkHome)
		return
	}
	if len(topics) > featuredTopicsMax {
		topics = topics[:featuredTopicsMax]
	}

	render(w, r, http.StatusOK, models.View{
		Page: "home",
		Data: models.HomeData{FeaturedPoll: featured, FeaturedTopics: topics},
	})
}

// Topics handles GET /topics?q=&category=
func (h *PageHandler) Topics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.topics(r.Context())
	if err != nil {
		renderError(w, r, "topics", err, linkHome)
		return
	}

	query := r.URL.Query().Get("q")
	category := r.URL.Query().Get("category")
	if category == "" {
		category = allCategories
	}

	filtered := filterTopics(topics, query, category)
	view := models.View{
		Page: "topics",
		Data: models.TopicsData{
			Topics:     filtered,
			Categories: topicCategories(topics),
			Query:      query,
			Category:   category,
		},
	}
	if len(filtered) == 0 {
		view.Status = models.ViewEmpty
		view.Actions = []models.Link{{Name: "reset_filters", Href: "/topics"}}
	}
	render(w, r, http.StatusOK, view)
}

// Topic handles GET /topics/{id}
func (h *PageHandler) Topic(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	topic, err := h.topic(r.Context(), id)
	if err != nil {
		renderError(w, r, "topic", err, linkTopics)
		return
	}
	polls, err := h.topicPolls(r.Context(), id)
	if err != nil {
		renderError(w, r, "topic", err, linkTopics)
		return
	}

	view := models.View{Page: "topic", Data: models.TopicDetail{Topic: *topic, Polls: polls}}
	if len(polls) == 0 {
		view.Status = models.ViewEmpty
	}
	render(w, r, http.StatusOK, view)
}

// Polls handles GET /polls?q=&sort=
func (h *PageHandler) Polls(w http.ResponseWriter, r *http.Request) {
	polls, err := h.polls(r.Context())
	if err != nil {
		renderError(w, r, "polls", err, linkHome)
		return
	}

	query := r.URL.Query().Get("q")
	order := parseSort(r.URL.Query().Get("sort"))
	filtered := filterPolls(polls, query, order)

	view := models.View{
		Page: "polls",
		Data: models.PollsData{Polls: filtered, Query: query, Sort: order},
	}
	if len(filtered) == 0 {
		view.Status = models.ViewEmpty
		view.Actions = []models.Link{{Name: "reset_filters", Href: "/polls"}}
	}
	render(w, r, http.StatusOK, view)
}

// Poll handles GET /polls/{id}. Voters and closed polls see results;
// everyone else sees the ballot.
func (h *PageHandler) Poll(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx := r.Context()

	poll, err := h.poll(ctx, id)
	if err != nil {
		renderError(w, r, "poll", err, linkPolls)
		return
	}
	voted, err := h.hasVoted(ctx, id, currentUserID(r))
	if err != nil {
		renderError(w, r, "poll", err, linkPolls)
		return
	}
	comments, err := h.comments(ctx, id)
	if err != nil {
		renderError(w, r, "poll", err, linkPolls)
		return
	}

	render(w, r, http.StatusOK, models.View{
		Page: "poll",
		Data: models.PollDetail{
			Poll:        *poll,
			HasVoted:    voted,
			ShowResults: voted || !poll.IsActive,
			Comments:    comments,
		},
	})
}

// Profile handles GET /profile?tab=
func (h *PageHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	if id == nil {
		http.Redirect(w, r, guard.LoginURL(r.URL.RequestURI()), http.StatusFound)
		return
	}

	profile, err := h.profile(r.Context(), id.UserID)
	if err != nil {
		renderError(w, r, "profile", err, linkHome)
		return
	}
	activity, err := h.activity(r.Context(), id.UserID)
	if err != nil {
		renderError(w, r, "profile", err, linkHome)
		return
	}

	render(w, r, http.StatusOK, models.View{
		Page: "profile",
		Data: models.ProfileData{Profile: *profile, Email: id.Email, Activity: *activity},
	})
}

// Login handles GET /login?from=
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, models.View{
		Page: "login",
		Data: map[string]string{"from": guard.SafeRedirect(r.URL.Query().Get("from"))},
	})
}

// ResetPassword handles GET /reset-password?token=
func (h *PageHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		render(w, r, http.StatusBadRequest, models.View{
			Page:    "reset-password",
			Status:  models.ViewError,
			Error:   "Password reset link is invalid or has expired",
			Actions: []models.Link{{Name: "Request a new link", Href: "/forgot-password"}},
		})
		return
	}
	render(w, r, http.StatusOK, models.View{
		Page: "reset-password",
		Data: map[string]string{"token": token},
	})
}

// Static returns a handler for a page without data.
func (h *PageHandler) Static(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, http.StatusOK, models.View{Page: page})
	}
}

// NotFound handles every unknown path.
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusNotFound, models.View{
		Page:    "not-found",
		Status:  models.ViewNotFound,
		Error:   "Oops! Page not found",
		Actions: []models.Link{linkHome},
	})
}

// Admin pages

// Dashboard handles GET /admin
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.dashboard(r.Context())
	if err != nil {
		renderError(w, r, "admin", err, linkHome)
		return
	}
	render(w, r, http.StatusOK, models.View{Page: "admin", Data: d})
}

// AdminPolls handles GET /admin/polls?q=
func (h *PageHandler) AdminPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := h.polls(r.Context())
	if err != nil {
		renderError(w, r, "admin-polls", err, linkHome)
		return
	}
	query := r.URL.Query().Get("q")
	render(w, r, http.StatusOK, models.View{
		Page: "admin-polls",
		Data: models.PollsData{Polls: filterPolls(polls, query, models.SortNewest), Query: query, Sort: models.SortNewest},
	})
}

// AdminUsers handles GET /admin/users
func (h *PageHandler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users(r.Context())
	if err != nil {
		renderError(w, r, "admin-users", err, linkHome)
		return
	}
	render(w, r, http.StatusOK, models.View{Page: "admin-users", Data: users})
}

// AdminAnalytics handles GET /admin/analytics?range=week|month|year|all
func (h *PageHandler) AdminAnalytics(w http.ResponseWriter, r *http.Request) {
	rng, ok := models.ParseRange(r.URL.Query().Get("range"))
	if !ok {
		render(w, r, http.StatusBadRequest, models.View{
			Page:   "admin-analytics",
			Status: models.ViewError,
			Error:  "Unknown time range",
		})
		return
	}

	a, err := h.analytics(r.Context(), rng)
	if err != nil {
		renderError(w, r, "admin-analytics", err, linkHome)
		return
	}
	render(w, r, http.StatusOK, models.View{Page: "admin-analytics", Data: a})
}

// AdminSettings handles GET /admin/settings
func (h *PageHandler) AdminSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings(r.Context())
	if err != nil {
		renderError(w, r, "admin-settings", err, linkHome)
		return
	}
	render(w, r, http.StatusOK, models.View{Page: "admin-settings", Data: s})
}
