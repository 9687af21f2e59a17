// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/tagquest/db"
)

// IsFinalized reports whether the device has made its final submission
func IsFinalized(ctx context.Context, q db.Querier, userID int64) (bool, error) {
	var finalized bool
	err := q.QueryRowContext(ctx, `
		SELECT made_final_submission FROM users WHERE id = $1
	`, userID).Scan(&finalized)
	if err == sql.ErrNoRows {
		return false, ErrUserNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to query final submission flag: %w", err)
	}
	return finalized, nil
}

// Finalize closes the device for further solve submissions. Finalizing an
// already-finalized device is a no-op. The flag is never cleared.
func Finalize(ctx context.Context, q db.Querier, userID int64) error {
	res, err := q.ExecContext(ctx, `
		UPDATE users SET made_final_submission = 1 WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to finalize user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finalize user: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ForceFinalize is the admin override for devices that are lost or offline
// at the end of the contest. It works in any state and returns whether the
// device was still open.
func ForceFinalize(ctx context.Context, conn *sql.DB, userID int64) (bool, error) {
	var wasOpen bool

	err := db.WithTx(ctx, conn, func(tx *sql.Tx) error {
		finalized, err := IsFinalized(ctx, tx, userID)
		if err != nil {
			return err
		}
		wasOpen = !finalized
		return Finalize(ctx, tx, userID)
	})
	if err != nil {
		return false, err
	}

	slog.Info("device force-finalized", "user_id", userID, "was_open", wasOpen)
	return wasOpen, nil
}
