// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/danielhkuo/tagquest/models"
)

// Aggregator computes the public leaderboard. Concurrent callers share a
// single in-flight computation.
type Aggregator struct {
	db    *sql.DB
	group singleflight.Group
}

func NewAggregator(db *sql.DB) *Aggregator {
	return &Aggregator{db: db}
}

// Leaderboard returns the shared result of one computation. Callers must
// not modify it. One caller disconnecting does not cancel the query for
// the others.
func (a *Aggregator) Leaderboard(ctx context.Context) (models.Leaderboard, error) {
	v, err, _ := a.group.Do("leaderboard", func() (interface{}, error) {
		return ComputeLeaderboard(context.WithoutCancel(ctx), a.db)
	})
	if err != nil {
		return models.Leaderboard{}, err
	}
	return v.(models.Leaderboard), nil
}

// ComputeLeaderboard reads the challenge catalog, per-team totals and first
// solve times, and the global competition-ended flag. It runs without a
// transaction; a slightly stale view is acceptable.
func ComputeLeaderboard(ctx context.Context, conn *sql.DB) (models.Leaderboard, error) {
	challenges, err := challengeCatalog(ctx, conn)
	if err != nil {
		return models.Leaderboard{}, err
	}

	teams, err := teamTotals(ctx, conn)
	if err != nil {
		return models.Leaderboard{}, err
	}

	if err := attachFirstSolves(ctx, conn, teams); err != nil {
		return models.Leaderboard{}, err
	}

	var open int
	err = conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users WHERE made_final_submission = 0
	`).Scan(&open)
	if err != nil {
		return models.Leaderboard{}, fmt.Errorf("failed to count open devices: %w", err)
	}

	return models.Leaderboard{
		Challenges:       challenges,
		TeamSolves:       teams,
		CompetitionEnded: open == 0,
	}, nil
}

func challengeCatalog(ctx context.Context, conn *sql.DB) ([]models.ChallengeSummary, error) {
	rows, err := conn.QueryContext(ctx, `
		SELECT id, name, short_name, points FROM challenges ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenges: %w", err)
	}
	defer rows.Close()

	challenges := []models.ChallengeSummary{}
	for rows.Next() {
		var c models.ChallengeSummary
		if err := rows.Scan(&c.ID, &c.Name, &c.ShortName, &c.Points); err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

// teamTotals sums points over distinct (team, challenge) pairs so a team is
// credited once per challenge however many rows its devices hold. Ties keep
// team creation order.
func teamTotals(ctx context.Context, conn *sql.DB) ([]models.TeamSolves, error) {
	rows, err := conn.QueryContext(ctx, `
		SELECT t.id, t.name, COALESCE(SUM(c.points), 0) AS total_points
		FROM teams t
		LEFT JOIN (
			SELECT DISTINCT u.team_id, s.challenge_id
			FROM solves s
			JOIN users u ON u.id = s.user_id
		) ts ON ts.team_id = t.id
		LEFT JOIN challenges c ON c.id = ts.challenge_id
		GROUP BY t.id, t.name
		ORDER BY total_points DESC, t.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query team totals: %w", err)
	}
	defer rows.Close()

	teams := []models.TeamSolves{}
	for rows.Next() {
		ts := models.TeamSolves{Solves: []models.FirstSolve{}}
		if err := rows.Scan(&ts.TeamID, &ts.TeamName, &ts.TotalPoints); err != nil {
			return nil, fmt.Errorf("failed to scan team total: %w", err)
		}
		teams = append(teams, ts)
	}
	return teams, rows.Err()
}

// attachFirstSolves fills in MIN(solved_at) per team and challenge
func attachFirstSolves(ctx context.Context, conn *sql.DB, teams []models.TeamSolves) error {
	index := make(map[int64]int, len(teams))
	for i, ts := range teams {
		index[ts.TeamID] = i
	}

	rows, err := conn.QueryContext(ctx, `
		SELECT u.team_id, s.challenge_id, MIN(s.solved_at)
		FROM solves s
		JOIN users u ON u.id = s.user_id
		GROUP BY u.team_id, s.challenge_id
		ORDER BY u.team_id, s.challenge_id
	`)
	if err != nil {
		return fmt.Errorf("failed to query first solves: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var teamID int64
		var fs models.FirstSolve
		if err := rows.Scan(&teamID, &fs.ChallengeID, &fs.FirstSolvedAt); err != nil {
			return fmt.Errorf("failed to scan first solve: %w", err)
		}
		if i, ok := index[teamID]; ok {
			teams[i].Solves = append(teams[i].Solves, fs)
		}
	}
	return rows.Err()
}
