// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the tagquest API server.

tagquest is the backend for a campus scavenger hunt. Teams log in from
several phones, find physical tags inside geofences, and upload solves.
The server keeps the earliest solve per team and challenge, serves a live
leaderboard, pushes admin messages to devices, and lets organizers manage
teams and challenges.

# Starting the Server

With SQLite (the default) only a session secret is needed:

	ADMIN_SESSION_SECRET=change-me go run .

Or against PostgreSQL with flags:

	go run . -p 3318 -t postgres -d "postgres://..." --session-secret change-me

A .env file in the working directory is loaded before flags are parsed.

# Configuration

Required settings:

  - ADMIN_SESSION_SECRET (--session-secret): HMAC key for admin session cookies
  - DATABASE_URL (-d): required when DATABASE_TYPE is postgres

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - ADMIN_USERNAME / ADMIN_PASSWORD: seed an admin account at startup
  - DEFAULT_MAX_MEMBERS (--max-members): device limit for new teams
  - LOG_FORMAT (--log-format): pretty or json

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (devices, solves, messages, admin, catalog)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers, device and admin auth
  - scoring: Solve reconciliation, final submission, leaderboard
  - messaging: Message fanout and exactly-once delivery
  - models: Request/response types
  - auth: Password hashing, device tokens, admin sessions
  - db: Connection, schema, transactions
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
