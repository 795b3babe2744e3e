// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Values are resolved in three layers, later layers winning:

 1. a .env file (godotenv; never overrides variables already set)
 2. environment variables and envDefault tags (caarlos0/env)
 3. CLI flags

# Config Fields

  - Port: server listen port (default: 3318)
  - DatabaseURL: PostgreSQL URL or SQLite path (required)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - JWTSecret: access token signing secret (required)
  - AccessTokenTTL, ResetTokenTTL: token lifetimes
  - SessionResolveWait: how long a guarded request waits for a session
  - SessionIdleTTL: idle sessions are dropped from memory after this
  - CacheStaleTime, CacheGCTime, CacheRetries, CacheRetryDelay: query cache
  - SiteURL: base for links in emails
  - AllowedOrigin: CORS origin (empty echoes the request origin)
  - S3: bucket, region, endpoint, credentials for topic images

# CLI Flags

	-env-file    Path to a .env file (default .env, optional)
	-p           Server port
	-d           Database URL
	-t           Database type
	-jwt-secret  JWT signing secret
	-site-url    Public site URL
	-s3-bucket   S3 bucket

# Environment Variables

	PORT, DATABASE_URL, DATABASE_TYPE, JWT_SECRET,
	ACCESS_TOKEN_TTL, RESET_TOKEN_TTL,
	SESSION_RESOLVE_WAIT, SESSION_IDLE_TTL,
	CACHE_STALE_TIME, CACHE_GC_TIME, CACHE_RETRIES, CACHE_RETRY_DELAY,
	SITE_URL, ALLOWED_ORIGIN,
	S3_BUCKET, S3_REGION, S3_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY, S3_PUBLIC_URL

# Validation

ParseFlags returns an error if:

  - DATABASE_URL is missing
  - JWT_SECRET is missing
  - DATABASE_TYPE is not sqlite or postgres
  - a duration or number fails to parse
*/
package cliparse
