// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/danielhkuo/tagquest/middleware"
	"github.com/danielhkuo/tagquest/models"
	"github.com/danielhkuo/tagquest/scoring"
)

const (
	leaderboardSheet = "Leaderboard"
	challengesSheet  = "Challenges"
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type LeaderboardHandler struct {
	db  *sql.DB
	agg *scoring.Aggregator
}

func NewLeaderboardHandler(db *sql.DB, agg *scoring.Aggregator) *LeaderboardHandler {
	return &LeaderboardHandler{db: db, agg: agg}
}

// GetLeaderboard handles GET /api/leaderboard
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.agg.Leaderboard(r.Context())
	if err != nil {
		internalError(w, "failed to compute leaderboard", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, board)
}

// ExportLeaderboard handles GET /api/admin/leaderboard/export
// Streams the current standings as an xlsx workbook
func (h *LeaderboardHandler) ExportLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := scoring.ComputeLeaderboard(r.Context(), h.db)
	if err != nil {
		internalError(w, "failed to compute leaderboard", err)
		return
	}

	now := time.Now()
	f, err := buildLeaderboardWorkbook(board, now)
	if err != nil {
		internalError(w, "failed to build leaderboard workbook", err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("leaderboard-%s.xlsx", now.UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	if err := f.Write(w); err != nil {
		slog.Error("failed to write leaderboard workbook", "error", err)
		return
	}

	slog.Info("leaderboard exported", "teams", len(board.TeamSolves), "challenges", len(board.Challenges))
}

// buildLeaderboardWorkbook lays out one row per team with a column per
// challenge holding the team's first solve time, plus a challenge sheet
func buildLeaderboardWorkbook(board models.Leaderboard, generated time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := writeLeaderboardSheets(f, board, generated); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to build workbook: %w", err)
	}
	return f, nil
}

func writeLeaderboardSheets(f *excelize.File, board models.Leaderboard, generated time.Time) error {
	if err := f.SetSheetName("Sheet1", leaderboardSheet); err != nil {
		return err
	}

	headers := []interface{}{"Rank", "Team", "Points", "Solved"}
	for _, c := range board.Challenges {
		headers = append(headers, fmt.Sprintf("%s (%d)", c.ShortName, c.Points))
	}
	if err := f.SetSheetRow(leaderboardSheet, "A1", &headers); err != nil {
		return err
	}

	for i, ts := range board.TeamSolves {
		firstSolve := make(map[int64]int64, len(ts.Solves))
		for _, s := range ts.Solves {
			firstSolve[s.ChallengeID] = s.FirstSolvedAt
		}

		row := []interface{}{i + 1, ts.TeamName, ts.TotalPoints, len(ts.Solves)}
		for _, c := range board.Challenges {
			if at, ok := firstSolve[c.ID]; ok {
				row = append(row, time.UnixMilli(at).UTC().Format("2006-01-02 15:04:05"))
			} else {
				row = append(row, "")
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(leaderboardSheet, cell, &row); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2F5597"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(leaderboardSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(leaderboardSheet, "B", "B", 24); err != nil {
		return err
	}
	if len(board.Challenges) > 0 {
		// Challenge columns start after Rank, Team, Points, Solved
		if err := f.SetColWidth(leaderboardSheet, "E", lastCol, 20); err != nil {
			return err
		}
	}

	footer, err := excelize.CoordinatesToCellName(1, len(board.TeamSolves)+3)
	if err != nil {
		return err
	}
	status := "in progress"
	if board.CompetitionEnded {
		status = "ended"
	}
	err = f.SetCellValue(leaderboardSheet, footer, fmt.Sprintf("Generated %s UTC, competition %s",
		generated.UTC().Format("2006-01-02 15:04:05"), status))
	if err != nil {
		return err
	}

	return writeChallengeSheet(f, board, headerStyle)
}

func writeChallengeSheet(f *excelize.File, board models.Leaderboard, headerStyle int) error {
	if _, err := f.NewSheet(challengesSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(challengesSheet, "A1", &[]interface{}{"ID", "Name", "Short Name", "Points", "Teams Solved"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(challengesSheet, "A1", "E1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(challengesSheet, "B", "B", 30); err != nil {
		return err
	}

	solvedBy := make(map[int64]int)
	for _, ts := range board.TeamSolves {
		for _, s := range ts.Solves {
			solvedBy[s.ChallengeID]++
		}
	}
	for i, c := range board.Challenges {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(challengesSheet, cell, &[]interface{}{c.ID, c.Name, c.ShortName, c.Points, solvedBy[c.ID]}); err != nil {
			return err
		}
	}
	return nil
}
