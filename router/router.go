// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/yourviews/cliparse"
	"github.com/danielhkuo/yourviews/guard"
	"github.com/danielhkuo/yourviews/handlers"
	"github.com/danielhkuo/yourviews/media"
	"github.com/danielhkuo/yourviews/middleware"
	"github.com/danielhkuo/yourviews/queries"
	"github.com/danielhkuo/yourviews/querycache"
	"github.com/danielhkuo/yourviews/session"
)

// Deps are the long-lived services the handlers share.
type Deps struct {
	Config   cliparse.Config
	Fetcher  *queries.Fetcher
	Cache    *querycache.Cache
	Sessions *session.Registry
	Uploader *media.Uploader
}

func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()
	g := guard.New(d.Config.SessionResolveWait)

	// Initialize handlers
	pageHandler := handlers.NewPageHandler(d.Fetcher, d.Cache)
	pollHandler := handlers.NewPollHandler(d.Fetcher, d.Cache)
	votingHandler := handlers.NewVotingHandler(d.Fetcher, d.Cache)
	resultsHandler := handlers.NewResultsHandler(d.Fetcher, d.Cache, d.Config.AllowedOrigin)
	authHandler := handlers.NewAuthHandler(d.Fetcher, d.Cache, d.Sessions, d.Config.SiteURL)
	profileHandler := handlers.NewProfileHandler(d.Fetcher, d.Cache, d.Sessions)
	adminHandler := handlers.NewAdminHandler(d.Fetcher, d.Cache, d.Sessions, d.Uploader)

	page := func(pattern string, access guard.Access, h http.HandlerFunc) {
		mux.HandleFunc(pattern, middleware.WithLogging(g.Page(access, h)))
	}
	api := func(pattern string, access guard.Access, h http.HandlerFunc) {
		mux.HandleFunc(pattern, middleware.WithLogging(g.API(access, h)))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Public pages
	page("GET /{$}", guard.Public, pageHandler.Home)
	page("GET /topics", guard.Public, pageHandler.Topics)
	page("GET /topics/{id}", guard.Public, pageHandler.Topic)
	page("GET /polls", guard.Public, pageHandler.Polls)
	page("GET /polls/{id}", guard.Public, pageHandler.Poll)
	page("GET /login", guard.Public, pageHandler.Login)
	page("GET /reset-password", guard.Public, pageHandler.ResetPassword)
	for _, name := range []string{"about", "register", "register-success", "forgot-password", "terms", "privacy"} {
		page("GET /"+name, guard.Public, pageHandler.Static(name))
	}

	// Signed-in pages
	page("GET /profile", guard.Authenticated, pageHandler.Profile)

	// Admin pages
	page("GET /admin", guard.Admin, pageHandler.Dashboard)
	page("GET /admin/polls", guard.Admin, pageHandler.AdminPolls)
	page("GET /admin/users", guard.Admin, pageHandler.AdminUsers)
	page("GET /admin/analytics", guard.Admin, pageHandler.AdminAnalytics)
	page("GET /admin/settings", guard.Admin, pageHandler.AdminSettings)

	// Session and auth actions
	api("GET /api/session", guard.Public, authHandler.Session)
	api("POST /api/auth/login", guard.Public, authHandler.Login)
	api("POST /api/auth/register", guard.Public, authHandler.Register)
	api("POST /api/auth/logout", guard.Public, authHandler.Logout)
	api("POST /api/auth/forgot-password", guard.Public, authHandler.ForgotPassword)
	api("POST /api/auth/reset-password", guard.Public, authHandler.ResetPassword)
	api("POST /api/consent", guard.Public, authHandler.Consent)

	// Polls
	api("GET /api/polls/{id}/results", guard.Public, pollHandler.Results)
	api("GET /api/polls/{id}/live", guard.Public, resultsHandler.Live)
	api("POST /api/polls", guard.Authenticated, pollHandler.CreatePoll)
	api("POST /api/polls/{id}/vote", guard.Authenticated, votingHandler.Vote)
	api("POST /api/polls/{id}/comments", guard.Authenticated, votingHandler.AddComment)

	// Own profile and account
	api("PUT /api/profile", guard.Authenticated, profileHandler.UpdateProfile)
	api("PUT /api/account", guard.Authenticated, profileHandler.UpdateAccount)
	api("DELETE /api/account", guard.Authenticated, profileHandler.DeleteAccount)

	// Administration
	api("POST /api/admin/users", guard.Admin, adminHandler.AddUser)
	api("PUT /api/admin/users/{id}/admin", guard.Admin, adminHandler.SetAdmin)
	api("PUT /api/admin/polls/{id}/active", guard.Admin, pollHandler.SetActive)
	api("PUT /api/admin/settings", guard.Admin, adminHandler.SaveSettings)
	api("GET /api/admin/export/{file}", guard.Admin, adminHandler.Export)
	api("POST /api/admin/topics", guard.Admin, adminHandler.CreateTopic)
	api("POST /api/admin/topics/{id}/image", guard.Admin, adminHandler.TopicImage)

	// Everything else
	mux.HandleFunc("/", middleware.WithLogging(pageHandler.NotFound))

	return middleware.CORS(d.Config.AllowedOrigin)(d.Sessions.Middleware(mux))
}
