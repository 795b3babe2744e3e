// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Command yourviews-admin manages YourViews users and topics from a
terminal, against the same database the server uses.

It reads the server's configuration (environment, .env and flags), so
the first administrator can be set up before anyone signs in:

	yourviews-admin create-user -admin ada@example.com ada
	yourviews-admin promote grace@example.com
	yourviews-admin -t postgres -d "postgres://..." users
	yourviews-admin create-topic

Passwords are read from the terminal without echo.
*/
package main
