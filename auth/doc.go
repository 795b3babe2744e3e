// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides password hashing and token utilities.

# Passwords

Passwords are stored as bcrypt hashes:

	hash, err := auth.HashPassword(password)
	ok := auth.CheckPassword(hash, password)

# Access Tokens

Access tokens are HS256 JWTs. The jti claim is the session ID and the
sub/uid claims carry the user ID:

	token, err := auth.IssueAccessToken(sessionID, userID, secret, expiresAt)
	claims, err := auth.ParseAccessToken(token, secret)

Parsing rejects expired tokens, foreign signatures and tokens without a
session ID with ErrInvalidToken. Revocation is checked by the caller
against the session table.

# Reset Tokens

Password reset links carry a random 24-byte (192-bit) secret:

	token, err := auth.GenerateToken()
	stored := auth.HashToken(token, secret)

Only the HMAC-SHA256 hash is persisted.

# ID Generation

Random hex IDs:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
