// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens database connections and applies the schema.

# Connections

Open supports PostgreSQL (pgx stdlib driver) and SQLite (modernc):

	conn, err := db.Open(ctx, db.TypeSQLite, "yourviews.db")

SQLite paths get foreign keys, a busy timeout, WAL and immediate write
locks so concurrent vote transactions serialize instead of failing.

# Migrations

Migrate applies the goose migrations embedded for the dialect:

	if err := db.Migrate(ctx, conn, cfg.DatabaseType); err != nil {
		log.Fatal(err)
	}

# Tables

  - auth_user, auth_session, password_reset: authentication
  - user_profile: one row per auth user
  - topic, poll_item, poll_option: poll catalogue
  - user_vote: one vote per user per poll
  - comment_item: poll comments
  - site_setting: admin settings as JSON values

# Relationships

	topic 1──* poll_item
	poll_item 1──* poll_option
	poll_item 1──* user_vote
	poll_item 1──* comment_item
	auth_user 1──1 user_profile

# Transactions

WithTx runs a function with a DBTX bound to a transaction and commits or
rolls back based on its result.
*/
package db
