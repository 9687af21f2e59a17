// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - DatabaseURL: SQLite file path or PostgreSQL connection string
  - SessionSecret: HMAC secret for admin session cookies (required)
  - AdminUsername / AdminPassword: Optional seed admin account
  - DefaultMaxMembers: Device limit for teams created without one (default: 4)
  - LogFormat: pretty (colored console) or json

# CLI Flags

	-p               Server port
	-t               Database type
	-d               Database URL
	--max-members    Default device limit per team
	--log-format     Log format
	--session-secret Admin session secret
	--admin-user     Seed admin username
	--admin-password Seed admin password

# Environment Variables

Flags fall back to environment variables:

	PORT                 → -p
	DATABASE_TYPE        → -t
	DATABASE_URL         → -d
	DEFAULT_MAX_MEMBERS  → --max-members
	LOG_FORMAT           → --log-format
	ADMIN_SESSION_SECRET → --session-secret
	ADMIN_USERNAME       → --admin-user
	ADMIN_PASSWORD       → --admin-password

CLI flags take precedence over environment variables. main loads a .env file
into the environment before calling ParseFlags.

# Validation

ParseFlags returns an error if:

  - ADMIN_SESSION_SECRET is missing
  - DATABASE_TYPE is postgres and DATABASE_URL is missing
  - only one of ADMIN_USERNAME / ADMIN_PASSWORD is set
*/
package cliparse
