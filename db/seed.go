// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/tagquest/auth"
)

// EnsureAdmin creates the admin account, or resets its password if the
// username already exists. A blank username is a no-op.
func EnsureAdmin(ctx context.Context, conn *sql.DB, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	var existingID int64
	err = conn.QueryRowContext(ctx, `SELECT id FROM admins WHERE username = $1`, username).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		_, err = conn.ExecContext(ctx, `
			INSERT INTO admins (username, password_hash, created_at)
			VALUES ($1, $2, $3)
		`, username, hash, time.Now().UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}
		slog.Info("admin account created", "username", username)
	case err != nil:
		return fmt.Errorf("failed to query admin: %w", err)
	default:
		_, err = conn.ExecContext(ctx, `UPDATE admins SET password_hash = $1 WHERE id = $2`, hash, existingID)
		if err != nil {
			return fmt.Errorf("failed to update admin: %w", err)
		}
		slog.Info("admin account updated", "username", username, "admin_id", existingID)
	}

	return nil
}
