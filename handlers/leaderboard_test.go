// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/danielhkuo/tagquest/models"
	"github.com/danielhkuo/tagquest/scoring"
	"github.com/danielhkuo/tagquest/testutil"
)

func seedLeaderboard(t *testing.T) (*LeaderboardHandler, int64, int64) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	alpha := testutil.CreateTestTeam(t, db, "Alpha", "pw", 4)
	beta := testutil.CreateTestTeam(t, db, "Beta", "pw", 4)
	a1 := testutil.CreateTestDevice(t, db, alpha, "a-1")
	b1 := testutil.CreateTestDevice(t, db, beta, "b-1")
	c1 := testutil.CreateTestChallenge(t, db, "Fountain", 100)
	c2 := testutil.CreateTestChallenge(t, db, "Bridge", 150)

	if _, err := scoring.ReconcileSolves(ctx, db, a1, []models.SolveClaim{
		{ChallengeID: c1, SolvedAt: 1000},
		{ChallengeID: c2, SolvedAt: 2000},
	}, false); err != nil {
		t.Fatalf("Failed to seed alpha: %v", err)
	}
	if _, err := scoring.ReconcileSolves(ctx, db, b1, []models.SolveClaim{
		{ChallengeID: c2, SolvedAt: 1500},
	}, true); err != nil {
		t.Fatalf("Failed to seed beta: %v", err)
	}

	return NewLeaderboardHandler(db, scoring.NewAggregator(db)), alpha, beta
}

func TestGetLeaderboard(t *testing.T) {
	handler, alpha, beta := seedLeaderboard(t)

	w := httptest.NewRecorder()
	handler.GetLeaderboard(w, testutil.MakeRequest("GET", "/api/leaderboard", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var board models.Leaderboard
	testutil.AssertJSON(t, w, &board)

	if len(board.Challenges) != 2 {
		t.Errorf("Expected 2 challenges, got %d", len(board.Challenges))
	}
	if len(board.TeamSolves) != 2 {
		t.Fatalf("Expected 2 teams, got %d", len(board.TeamSolves))
	}
	if board.TeamSolves[0].TeamID != alpha || board.TeamSolves[0].TotalPoints != 250 {
		t.Errorf("Expected Alpha first with 250, got %+v", board.TeamSolves[0])
	}
	if board.TeamSolves[1].TeamID != beta || board.TeamSolves[1].TotalPoints != 150 {
		t.Errorf("Expected Beta second with 150, got %+v", board.TeamSolves[1])
	}
	if board.CompetitionEnded {
		t.Error("Alpha's device is still open")
	}
}

func TestGetLeaderboardJSONShape(t *testing.T) {
	handler, _, _ := seedLeaderboard(t)

	w := httptest.NewRecorder()
	handler.GetLeaderboard(w, testutil.MakeRequest("GET", "/api/leaderboard", nil, nil))

	body := w.Body.String()
	for _, key := range []string{`"challenges"`, `"teamSolves"`, `"competitionEnded"`, `"totalPoints"`, `"firstSolvedAt"`} {
		if !strings.Contains(body, key) {
			t.Errorf("Expected %s in response body", key)
		}
	}
}

func TestExportLeaderboard(t *testing.T) {
	handler, _, _ := seedLeaderboard(t)

	w := httptest.NewRecorder()
	handler.ExportLeaderboard(w, testutil.MakeRequest("GET", "/api/admin/leaderboard/export", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("Expected xlsx content type, got '%s'", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "leaderboard-") {
		t.Errorf("Expected attachment filename, got '%s'", cd)
	}

	f, err := excelize.OpenReader(w.Body)
	if err != nil {
		t.Fatalf("Response should be a readable workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(leaderboardSheet)
	if err != nil {
		t.Fatalf("Failed to read leaderboard sheet: %v", err)
	}
	if len(rows) < 3 {
		t.Fatalf("Expected header and two team rows, got %d rows", len(rows))
	}
	if rows[0][0] != "Rank" || rows[0][4] != "F (100)" {
		t.Errorf("Unexpected header row: %v", rows[0])
	}
	if rows[1][1] != "Alpha" || rows[1][2] != "250" {
		t.Errorf("Unexpected first row: %v", rows[1])
	}
	if rows[2][1] != "Beta" || rows[2][4] != "" {
		t.Errorf("Beta has not solved the fountain, got %v", rows[2])
	}

	challenges, err := f.GetRows(challengesSheet)
	if err != nil {
		t.Fatalf("Failed to read challenges sheet: %v", err)
	}
	if len(challenges) != 3 {
		t.Errorf("Expected header and two challenges, got %d rows", len(challenges))
	}
}

func TestBuildLeaderboardWorkbookEmpty(t *testing.T) {
	f, err := buildLeaderboardWorkbook(models.Leaderboard{CompetitionEnded: true}, time.Now())
	if err != nil {
		t.Fatalf("Empty leaderboard should still build: %v", err)
	}
	defer f.Close()

	rows, _ := f.GetRows(leaderboardSheet)
	if len(rows) == 0 || rows[0][0] != "Rank" {
		t.Errorf("Expected header row, got %v", rows)
	}
}

func TestBuildLeaderboardWorkbookTooWide(t *testing.T) {
	// Four fixed columns plus one per challenge overflow the sheet
	board := models.Leaderboard{Challenges: make([]models.ChallengeSummary, excelize.MaxColumns)}
	for i := range board.Challenges {
		board.Challenges[i] = models.ChallengeSummary{ID: int64(i + 1), ShortName: "c", Points: 1}
	}

	f, err := buildLeaderboardWorkbook(board, time.Now())
	if err == nil {
		f.Close()
		t.Fatal("Expected an error for a workbook wider than the sheet limit")
	}
	if !errors.Is(err, excelize.ErrColumnNumber) {
		t.Errorf("Expected ErrColumnNumber, got %v", err)
	}
}
