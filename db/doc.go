// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles connections, schema creation and transactions.

# Connecting

Open picks the driver from the configured database type:

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

SQLite (modernc.org/sqlite, the default) is opened with foreign keys on, a
busy timeout, WAL journaling and immediate transactions. PostgreSQL uses
github.com/lib/pq. All queries use $N placeholders, which both drivers accept.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn, cfg.DatabaseType); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - teams: Team name, password hash, device limit
  - users: One row per logged-in device, with its bearer token
  - challenges: Points, geofence and NFC key hash
  - solves: Per-device solve rows; one logical solve per team and challenge
  - messages: Admin messages (team_id NULL = broadcast)
  - message_delivery: One row per message and recipient device
  - admins: Admin accounts

# Relationships

	teams 1──* users
	users 1──* solves *──1 challenges
	teams 1──* messages (targeted only)
	messages 1──* message_delivery *──1 users

All foreign keys use ON DELETE CASCADE.

# Transactions

WithTx wraps a closure in a transaction and always releases it:

	err := db.WithTx(ctx, conn, func(tx *sql.Tx) error {
		if err := db.LockTeam(ctx, tx, teamID); err != nil {
			return err
		}
		// ...
		return nil
	})

LockTeam serializes writers that touch the same team.

# Partial Updates

UpdateBuilder turns a request with optional fields into one UPDATE:

	b := db.NewUpdate("teams")
	db.SetIf(b, "name", req.Name)
	query, args := b.Build("id", teamID)
*/
package db
