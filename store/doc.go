// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store is the SQL implementation of the backend contract.

Store implements backend.Data and AuthService implements backend.Auth. Both
work on PostgreSQL (pgx) and SQLite (modernc) with the same queries;
placeholders are always $N.

# Votes

VoteOnPoll runs in one transaction:

	INSERT INTO user_vote ...                         -- UNIQUE (user_id, poll_id)
	UPDATE poll_option SET vote_count = vote_count + 1

A unique violation on the insert becomes backend.ErrAlreadyVoted, so two
concurrent votes by the same user increment the count once.

# Profiles

EnsureProfile inserts with ON CONFLICT (user_id) DO NOTHING, so concurrent
session resolutions create exactly one row.

# Auth

Passwords are bcrypt hashes. Access tokens are JWTs whose jti names a row
in auth_session; signing out or resetting a password revokes rows there.
Reset tokens are stored as HMAC hashes and delivered through a Mailer.

# Errors

sql.ErrNoRows becomes backend.ErrNotFound. Other driver errors are wrapped
as "db error: ...". Failures with a user-facing message are *backend.Error.
*/
package store
