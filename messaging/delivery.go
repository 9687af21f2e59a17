// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package messaging

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/danielhkuo/tagquest/db"
	"github.com/danielhkuo/tagquest/models"
)

// FetchAndMarkDelivered returns every message still pending for the user and
// marks it delivered in the same transaction. The UPDATE ... RETURNING claim
// means two concurrent fetches from one device can never both receive the
// same message.
func FetchAndMarkDelivered(ctx context.Context, conn *sql.DB, userID int64) ([]models.Message, int64, error) {
	messages := []models.Message{}
	now := nowMillis()

	err := db.WithTx(ctx, conn, func(tx *sql.Tx) error {
		ids, err := claimPending(ctx, tx, userID, now)
		if err != nil {
			return err
		}

		if len(ids) > 0 {
			messages, err = loadMessages(ctx, tx, ids)
			if err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `UPDATE users SET last_active = $1 WHERE id = $2`, now, userID)
		if err != nil {
			return fmt.Errorf("failed to update last_active: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return messages, now, nil
}

func claimPending(ctx context.Context, tx *sql.Tx, userID, now int64) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, `
		UPDATE message_delivery
		SET delivered = 1, delivered_at = $1
		WHERE user_id = $2 AND delivered = 0
		RETURNING message_id
	`, now, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim deliveries: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read deliveries: %w", err)
	}
	return ids, nil
}

// loadMessages reads the claimed messages oldest first
func loadMessages(ctx context.Context, tx *sql.Tx, ids []int64) ([]models.Message, error) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, team_id, content, created_at
		FROM messages
		WHERE id IN (%s)
		ORDER BY created_at ASC, id ASC
	`, strings.Join(placeholders, ", "))

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0, len(ids))
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (models.Message, error) {
	var (
		m      models.Message
		teamID sql.NullInt64
	)
	if err := row.Scan(&m.ID, &teamID, &m.Content, &m.CreatedAt); err != nil {
		return models.Message{}, fmt.Errorf("failed to scan message: %w", err)
	}
	if teamID.Valid {
		id := teamID.Int64
		m.TeamID = &id
	}
	return m, nil
}

// History lists every sent message newest first with delivery progress
func History(ctx context.Context, conn *sql.DB) ([]models.MessageHistoryEntry, error) {
	rows, err := conn.QueryContext(ctx, `
		SELECT m.id, m.team_id, m.content, m.created_at,
		       COALESCE(SUM(d.delivered), 0) AS delivered,
		       COUNT(d.user_id) AS total
		FROM messages m
		LEFT JOIN message_delivery d ON d.message_id = m.id
		GROUP BY m.id, m.team_id, m.content, m.created_at
		ORDER BY m.created_at DESC, m.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query message history: %w", err)
	}
	defer rows.Close()

	entries := []models.MessageHistoryEntry{}
	for rows.Next() {
		var (
			e      models.MessageHistoryEntry
			teamID sql.NullInt64
		)
		err := rows.Scan(&e.ID, &teamID, &e.Content, &e.CreatedAt, &e.Delivered, &e.Total)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message history: %w", err)
		}
		if teamID.Valid {
			id := teamID.Int64
			e.TeamID = &id
			e.Target = models.MessageTarget{TeamID: id}
		} else {
			e.Target = models.MessageTarget{Broadcast: true}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read message history: %w", err)
	}
	return entries, nil
}
