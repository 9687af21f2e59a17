// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"

	"github.com/danielhkuo/tagquest/cliparse"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, dbType string) error {
	_, err := db.Exec(Schema(dbType))
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Schema renders the DDL for the given database type. Only the
// auto-increment primary key differs between SQLite and PostgreSQL.
func Schema(dbType string) string {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if dbType == cliparse.DatabasePostgres {
		pk = "BIGSERIAL PRIMARY KEY"
	}
	return fmt.Sprintf(schema, pk)
}

// All timestamps are unix milliseconds. Flags are 0/1 integers.
const schema = `
-- Teams
CREATE TABLE IF NOT EXISTS teams (
    id %[1]s,
    name TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    max_members INTEGER NOT NULL DEFAULT 4 CHECK (max_members > 0),
    created_at BIGINT NOT NULL
);

-- Users (one row per logged-in device)
CREATE TABLE IF NOT EXISTS users (
    id %[1]s,
    team_id BIGINT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
    username TEXT NOT NULL UNIQUE,
    device_token TEXT NOT NULL UNIQUE,
    last_active BIGINT NOT NULL,
    made_final_submission INTEGER NOT NULL DEFAULT 0,
    created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_users_team_id ON users(team_id);

-- Challenges
CREATE TABLE IF NOT EXISTS challenges (
    id %[1]s,
    name TEXT NOT NULL,
    short_name TEXT NOT NULL,
    points INTEGER NOT NULL CHECK (points > 0),
    top_left_lat DOUBLE PRECISION NOT NULL,
    top_left_lng DOUBLE PRECISION NOT NULL,
    bottom_right_lat DOUBLE PRECISION NOT NULL,
    bottom_right_lng DOUBLE PRECISION NOT NULL,
    key_hash TEXT NOT NULL
);

-- Solves
CREATE TABLE IF NOT EXISTS solves (
    id %[1]s,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    challenge_id BIGINT NOT NULL REFERENCES challenges(id) ON DELETE CASCADE,
    solved_at BIGINT NOT NULL,
    UNIQUE (user_id, challenge_id)
);

CREATE INDEX IF NOT EXISTS idx_solves_challenge_id ON solves(challenge_id);

-- Messages (team_id NULL = broadcast)
CREATE TABLE IF NOT EXISTS messages (
    id %[1]s,
    team_id BIGINT REFERENCES teams(id) ON DELETE CASCADE,
    content TEXT NOT NULL,
    created_at BIGINT NOT NULL
);

-- Message Delivery
CREATE TABLE IF NOT EXISTS message_delivery (
    message_id BIGINT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    delivered INTEGER NOT NULL DEFAULT 0,
    delivered_at BIGINT,
    PRIMARY KEY (message_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_message_delivery_pending ON message_delivery(user_id, delivered);

-- Admins
CREATE TABLE IF NOT EXISTS admins (
    id %[1]s,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at BIGINT NOT NULL
);
`
