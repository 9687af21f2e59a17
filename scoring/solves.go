// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/tagquest/db"
	"github.com/danielhkuo/tagquest/models"
)

// nowMillis is the server clock in unix milliseconds
var nowMillis = func() int64 { return time.Now().UnixMilli() }

// ReconcileResult summarizes what a batch did to the team's solve set
type ReconcileResult struct {
	Inserted   int
	Updated    int
	Ignored    int
	Finalized  bool
	ServerTime int64
}

// ReconcileSolves applies a batch of solve claims from one device to its
// team's shared solve set. For each challenge the earliest solved_at wins
// and is credited to whichever device reported it. The batch is all or
// nothing: a finalized device, a malformed claim or a storage failure
// leaves the database untouched. Claims naming an unknown challenge are
// counted as ignored.
func ReconcileSolves(ctx context.Context, conn *sql.DB, device models.Device, claims []models.SolveClaim, isFinal bool) (ReconcileResult, error) {
	var res ReconcileResult

	err := db.WithTx(ctx, conn, func(tx *sql.Tx) error {
		// Serialize all reconciliation for this team
		if err := db.LockTeam(ctx, tx, device.TeamID); err != nil {
			if err == sql.ErrNoRows {
				return ErrUserNotFound
			}
			return err
		}

		// Re-read inside the lock so a concurrent finalize is observed
		finalized, err := IsFinalized(ctx, tx, device.ID)
		if err != nil {
			return err
		}
		if finalized {
			return ErrAlreadyFinalized
		}

		if err := validateClaims(claims); err != nil {
			return err
		}

		known, err := knownChallenges(ctx, tx)
		if err != nil {
			return err
		}

		teammates, err := teammateIDs(ctx, tx, device.TeamID)
		if err != nil {
			return err
		}
		if !teammates[device.ID] {
			return ErrUserNotFound
		}

		for _, claim := range claims {
			// Claims for deleted challenges are dropped, not rejected
			if !known[claim.ChallengeID] {
				slog.Warn("ignoring solve for unknown challenge",
					"user_id", device.ID, "challenge_id", claim.ChallengeID)
				res.Ignored++
				continue
			}

			outcome, err := applyClaim(ctx, tx, device, claim)
			if err != nil {
				return err
			}
			switch outcome {
			case claimInserted:
				res.Inserted++
			case claimUpdated:
				res.Updated++
			default:
				res.Ignored++
			}
		}

		res.ServerTime = nowMillis()
		if err := touchLastActive(ctx, tx, device.ID, res.ServerTime); err != nil {
			return err
		}

		if isFinal {
			if err := Finalize(ctx, tx, device.ID); err != nil {
				return err
			}
			res.Finalized = true
		}
		return nil
	})
	if err != nil {
		return ReconcileResult{}, err
	}

	return res, nil
}

type claimOutcome int

const (
	claimIgnored claimOutcome = iota
	claimInserted
	claimUpdated
)

// applyClaim reconciles one claim against the team's existing solve for
// the same challenge.
func applyClaim(ctx context.Context, tx *sql.Tx, device models.Device, claim models.SolveClaim) (claimOutcome, error) {
	var (
		solveID       int64
		solverID      int64
		existingSolve int64
	)
	err := tx.QueryRowContext(ctx, `
		SELECT s.id, s.user_id, s.solved_at
		FROM solves s
		JOIN users u ON u.id = s.user_id
		WHERE u.team_id = $1 AND s.challenge_id = $2
		ORDER BY s.solved_at ASC, s.id ASC
		LIMIT 1
	`, device.TeamID, claim.ChallengeID).Scan(&solveID, &solverID, &existingSolve)

	if err == sql.ErrNoRows {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO solves (user_id, challenge_id, solved_at)
			VALUES ($1, $2, $3)
		`, device.ID, claim.ChallengeID, claim.SolvedAt)
		if err != nil {
			return claimIgnored, fmt.Errorf("failed to insert solve: %w", err)
		}
		return claimInserted, nil
	}
	if err != nil {
		return claimIgnored, fmt.Errorf("failed to query team solve: %w", err)
	}
	if existingSolve <= claim.SolvedAt {
		return claimIgnored, nil
	}

	// Earlier claim: move the timestamp back and credit this device. Any
	// stray later row the device holds for the challenge would collide on
	// (user_id, challenge_id), so it goes first.
	if solverID != device.ID {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM solves WHERE user_id = $1 AND challenge_id = $2 AND id <> $3
		`, device.ID, claim.ChallengeID, solveID)
		if err != nil {
			return claimIgnored, fmt.Errorf("failed to clear duplicate solve: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE solves SET solved_at = $1, user_id = $2 WHERE id = $3
	`, claim.SolvedAt, device.ID, solveID)
	if err != nil {
		return claimIgnored, fmt.Errorf("failed to update solve: %w", err)
	}
	return claimUpdated, nil
}

// validateClaims rejects malformed claims before any write happens
func validateClaims(claims []models.SolveClaim) error {
	for i, claim := range claims {
		if claim.SolvedAt <= 0 {
			return &ValidationError{Index: i, Reason: "solvedAt must be a positive unix millisecond timestamp"}
		}
	}
	return nil
}

// knownChallenges returns the ids of every challenge in the catalog
func knownChallenges(ctx context.Context, q db.Querier) (map[int64]bool, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM challenges`)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenges: %w", err)
	}
	defer rows.Close()

	known := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		known[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read challenges: %w", err)
	}
	return known, nil
}

// teammateIDs returns every user id on the team, the caller included
func teammateIDs(ctx context.Context, q db.Querier, teamID int64) (map[int64]bool, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM users WHERE team_id = $1`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teammates: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan teammate: %w", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read teammates: %w", err)
	}
	return ids, nil
}

func touchLastActive(ctx context.Context, q db.Querier, userID, now int64) error {
	_, err := q.ExecContext(ctx, `UPDATE users SET last_active = $1 WHERE id = $2`, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update last_active: %w", err)
	}
	return nil
}
