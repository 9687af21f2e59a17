// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
)

const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"

	LogFormatPretty = "pretty"
	LogFormatJSON   = "json"

	// MaxTeamMembers is the largest device limit a team can have
	MaxTeamMembers = 100
)

type Config struct {
	Port              int
	DatabaseURL       string
	DatabaseType      string
	SessionSecret     string
	AdminUsername     string
	AdminPassword     string
	DefaultMaxMembers int
	LogFormat         string
}

// ParseFlags validates flags and fills the rest from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("tagquest", flag.ContinueOnError)

	// Network and storage (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL or SQLite file path")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.IntVar(&cfg.DefaultMaxMembers, "max-members", 0, "Default device limit for new teams")
	fs.StringVar(&cfg.LogFormat, "log-format", "", "Log format (pretty or json)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSecret, "session-secret", "", "Admin session signing secret (prefer env)")
	fs.StringVar(&cfg.AdminUsername, "admin-user", "", "Seed admin username")
	fs.StringVar(&cfg.AdminPassword, "admin-password", "", "Seed admin password (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = DatabaseSQLite
		}
	}
	if cfg.DatabaseType != DatabaseSQLite && cfg.DatabaseType != DatabasePostgres {
		return Config{}, errors.New("DATABASE_TYPE must be sqlite or postgres")
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == DatabasePostgres {
			return Config{}, errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = "tagquest.db"
	}

	if cfg.DefaultMaxMembers == 0 {
		if s := os.Getenv("DEFAULT_MAX_MEMBERS"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > MaxTeamMembers {
				return Config{}, errors.New("invalid DEFAULT_MAX_MEMBERS env variable")
			}
			cfg.DefaultMaxMembers = n
		} else {
			cfg.DefaultMaxMembers = 4
		}
	}
	if cfg.DefaultMaxMembers < 1 || cfg.DefaultMaxMembers > MaxTeamMembers {
		return Config{}, fmt.Errorf("max-members must be between 1 and %d", MaxTeamMembers)
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = os.Getenv("LOG_FORMAT")
		if cfg.LogFormat == "" {
			cfg.LogFormat = LogFormatPretty
		}
	}

	// Seed admin is optional, but both halves must be present
	if cfg.AdminUsername == "" {
		cfg.AdminUsername = os.Getenv("ADMIN_USERNAME")
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	}
	if (cfg.AdminUsername == "") != (cfg.AdminPassword == "") {
		return Config{}, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}

	// Secrets - MUST be provided
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = os.Getenv("ADMIN_SESSION_SECRET")
	}
	if cfg.SessionSecret == "" {
		return Config{}, errors.New("ADMIN_SESSION_SECRET required")
	}

	return cfg, nil
}
