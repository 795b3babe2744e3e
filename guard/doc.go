// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package guard decides whether a request may reach a route.

A route is Public, Authenticated or Admin. For a guarded route the
session is checked in this order:

	resolving-session → wait up to the resolve window, then 202 loading view
	no identity       → 302 /login?from=<path+query>
	not an admin      → 302 /   (Admin routes only)
	otherwise         → handler runs

Page wraps page routes with the redirects above. API wraps JSON actions
and answers 401, 403 or 503 (still resolving) instead.

SafeRedirect keeps post-login redirects on this site.
*/
package guard
