// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the YourViews server.

YourViews is a community polling site: visitors browse topics and polls,
signed-in users vote once per poll and comment, and administrators manage
users, polls, topics and site settings.

# Starting the Server

With no configuration the server uses a local SQLite file:

	JWT_SECRET=change-me DATABASE_URL=yourviews.db go run .

Or with flags against PostgreSQL:

	go run . -p 3318 -t postgres -d "postgres://..." --jwt-secret change-me

Variables from a .env file in the working directory are loaded first and
never override the real environment.

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - JWT_SECRET (--jwt-secret): Secret for signing access tokens

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - SITE_URL, ALLOWED_ORIGIN: public address and CORS origin
  - ACCESS_TOKEN_TTL, RESET_TOKEN_TTL: token lifetimes
  - SESSION_RESOLVE_WAIT, SESSION_IDLE_TTL: session store timing
  - CACHE_STALE_TIME, CACHE_GC_TIME, CACHE_RETRIES, CACHE_RETRY_DELAY
  - S3_BUCKET, S3_REGION, S3_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY,
    S3_PUBLIC_URL: topic image uploads (disabled without a bucket)

# Architecture

  - handlers: pages and actions
  - router: route table and guards
  - guard: access checks for pages and actions
  - session: per-browser session stores and their registry
  - queries: read and write operations over the backend
  - querycache: keyed query cache with subscriptions
  - store: SQL implementation of the backend
  - backend: backend interfaces and errors
  - db: connections, migrations and transactions
  - auth: password hashing and tokens
  - export: CSV and JSON exports
  - media: presigned S3 uploads
  - jobs: scheduled maintenance
  - middleware: CORS, logging, JSON helpers
  - models: request, response and view types
  - cliparse: configuration parsing

The yourviews-admin command under cmd/ manages users and topics from a
terminal.
*/
package main
