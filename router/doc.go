// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for YourViews.

# Route Registration

NewRouter builds the full handler from the shared services:

	h := router.NewRouter(router.Deps{
		Config:   cfg,
		Fetcher:  fetcher,
		Cache:    cache,
		Sessions: registry,
		Uploader: uploader,
	})

The result is wrapped in CORS and the session middleware, so every
handler finds its session store with session.FromContext.

# Pages

Pages answer with a JSON view (models.View). Guarded pages redirect:
signed-out visitors go to /login?from=<path>, non-admins go to /.

Public:

	GET /                  - Featured poll and topics
	GET /topics            - Topic list (?q=, ?category=)
	GET /topics/{id}       - Topic with its polls
	GET /polls             - Poll list (?q=, ?sort=newest|oldest|most_voted)
	GET /polls/{id}        - Ballot or results, with comments
	GET /login             - Login form (?from=)
	GET /reset-password    - Reset form (?token=)
	GET /about, /register, /register-success, /forgot-password, /terms, /privacy

Signed in:

	GET /profile

Admin:

	GET /admin, /admin/polls, /admin/users, /admin/analytics, /admin/settings

Anything else renders the not-found view.

# Actions

Actions answer with status codes instead of redirects: 401 signed out,
403 not an admin, 503 while the session is still resolving.

	GET    /api/session
	POST   /api/auth/login | register | logout | forgot-password | reset-password
	POST   /api/consent
	GET    /api/polls/{id}/results
	GET    /api/polls/{id}/live          - WebSocket result stream
	POST   /api/polls                    - signed in
	POST   /api/polls/{id}/vote          - signed in
	POST   /api/polls/{id}/comments      - signed in
	PUT    /api/profile, PUT /api/account, DELETE /api/account
	POST   /api/admin/users
	PUT    /api/admin/users/{id}/admin
	PUT    /api/admin/polls/{id}/active
	PUT    /api/admin/settings
	GET    /api/admin/export/{dataset}.{csv|json}
	POST   /api/admin/topics
	POST   /api/admin/topics/{id}/image

GET /health is unguarded and unlogged.
*/
package router
