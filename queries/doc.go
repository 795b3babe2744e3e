// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package queries is the data-fetch layer: one Fetcher method per use case.

Each method calls the backend contract, wraps failures with %w so the
backend message and sentinel survive, and validates what comes back
before returning it:

  - ids are present
  - counts are not negative
  - every option points back at its poll

Poll totals are recomputed here as the sum of option vote counts.

# Forms

Write methods check their input first and return *ValidationError with
field-level messages, without touching the backend. The Validate*
functions are exported for forms handled elsewhere (login, register).

# Keys

keys.go names the cache key of every read and the sets of keys each
write makes stale, for example:

	cache.Mutate(ctx, vote, queries.VoteKeys(pollID, userID)...)
*/
package queries
