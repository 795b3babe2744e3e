// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP handlers for the YourViews pages and
actions.

# Handler Types

Each handler is a struct built over the query fetcher and the shared query
cache:

  - PageHandler: view models for every page (home, topics, polls, profile, admin)

  - PollHandler: poll creation, open/close and results

  - VotingHandler: votes and comments

  - ResultsHandler: live results over WebSocket

  - AuthHandler: login, registration, logout, password recovery, consent

  - ProfileHandler: profile and account edits, account deletion

  - AdminHandler: user management, settings, topics, exports

    pages := handlers.NewPageHandler(fetcher, cache)

# Pages

Page handlers answer with a models.View envelope. A missing row renders a
not_found view with a link back to a list; an empty list renders an empty
view, with a reset_filters action when filters produced it.

# Actions

Every action answers with a notification. Reads go through the cache;
writes run through Cache.Mutate with the keys they make stale:

	POST /api/polls/{id}/vote      → Vote (409 on a second vote)
	POST /api/polls/{id}/comments  → AddComment
	GET  /api/polls/{id}/live      → Live (WebSocket)
	GET  /api/admin/export/{file}  → Export (users.csv, polls.json, ...)

Invalid forms answer 400 with field errors before the backend is called.
*/
package handlers
