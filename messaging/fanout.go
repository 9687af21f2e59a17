// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package messaging

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielhkuo/tagquest/db"
	"github.com/danielhkuo/tagquest/models"
)

// MaxContentLength bounds a single message body in characters
const MaxContentLength = 2000

var (
	ErrTeamNotFound   = errors.New("team not found")
	ErrEmptyContent   = errors.New("message content is required")
	ErrContentTooLong = fmt.Errorf("message content exceeds %d characters", MaxContentLength)
)

func defaultNow() int64 { return time.Now().UnixMilli() }

var nowMillis = defaultNow

type SendResult struct {
	MessageID  int64
	Recipients int
}

// Send stores a message and creates one pending delivery row for every
// device it targets. Devices that log in after the send are not included.
func Send(ctx context.Context, conn *sql.DB, target models.MessageTarget, content string) (SendResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return SendResult{}, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return SendResult{}, ErrContentTooLong
	}

	var res SendResult
	err := db.WithTx(ctx, conn, func(tx *sql.Tx) error {
		var teamID sql.NullInt64
		if !target.Broadcast {
			var exists bool
			err := tx.QueryRowContext(ctx, `
				SELECT EXISTS(SELECT 1 FROM teams WHERE id = $1)
			`, target.TeamID).Scan(&exists)
			if err != nil {
				return fmt.Errorf("failed to check team: %w", err)
			}
			if !exists {
				return ErrTeamNotFound
			}
			teamID = sql.NullInt64{Int64: target.TeamID, Valid: true}
		}

		err := tx.QueryRowContext(ctx, `
			INSERT INTO messages (team_id, content, created_at)
			VALUES ($1, $2, $3)
			RETURNING id
		`, teamID, content, nowMillis()).Scan(&res.MessageID)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}

		var fanout sql.Result
		if target.Broadcast {
			fanout, err = tx.ExecContext(ctx, `
				INSERT INTO message_delivery (message_id, user_id, delivered)
				SELECT $1, id, 0 FROM users
			`, res.MessageID)
		} else {
			fanout, err = tx.ExecContext(ctx, `
				INSERT INTO message_delivery (message_id, user_id, delivered)
				SELECT $1, id, 0 FROM users WHERE team_id = $2
			`, res.MessageID, target.TeamID)
		}
		if err != nil {
			return fmt.Errorf("failed to create delivery rows: %w", err)
		}

		n, err := fanout.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to count delivery rows: %w", err)
		}
		res.Recipients = int(n)
		return nil
	})
	if err != nil {
		return SendResult{}, err
	}

	slog.Info("message sent",
		"message_id", res.MessageID,
		"broadcast", target.Broadcast,
		"team_id", target.TeamID,
		"recipients", res.Recipients,
	)
	return res, nil
}
