// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session holds the signed-in identity of each browser session.

There is no process-wide "current user". Every browser gets its own Store,
found through the Registry by the session id in its access-token cookie.

# Auth events

AuthClient wraps backend.Auth and emits INITIAL_SESSION, SIGNED_IN,
SIGNED_OUT and USER_UPDATED to OnAuthStateChange listeners. A Store
listens and, for every event, resolves the user's profile in the
background:

	GetProfile(user)
	  -> not found: EnsureProfile(user, display name or email prefix)
	  -> GetProfile(user)

EnsureProfile is an upsert that ignores conflicts, so two tabs resolving
the same new user create one row. Each event bumps a sequence number and
only the newest resolution is applied.

While a resolution is in flight Loading is true and Identity is nil;
callers treat the user as unknown, not as signed out. Wait blocks until
the identity settles.

# Errors

Login, Signup and Logout fail with *AuthError whose Message is the
backend's text, shown to the user as is.

# Registry

Middleware reads the yv_session cookie, verifies the JWT, and attaches
the matching Store to the request context (FromContext). Tokens unknown
to this process are restored from the backend. Invalid tokens are
cleared. Prune drops signed-out, expired and idle stores.
*/
package session
