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
	"unicode/utf8"

	"github.com/danielhkuo/tagquest/models"
	"github.com/danielhkuo/tagquest/testutil"
)

func loginDevice(t *testing.T, h *DeviceHandler, team, password, deviceName string) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.MakeRequest("POST", "/api/team/login", models.TeamLoginRequest{
		Username:   team,
		Password:   password,
		DeviceName: deviceName,
	}, nil)
	w := httptest.NewRecorder()
	h.Login(w, req)
	return w
}

func TestLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewDeviceHandler(db, testutil.GetTestConfig())

	teamID := testutil.CreateTestTeam(t, db, "Tech Wizards", "secret", 4)
	c1 := testutil.CreateTestChallenge(t, db, "Fountain", 100)
	testutil.CreateTestChallenge(t, db, "Bridge", 150)

	w := loginDevice(t, handler, "Tech Wizards", "secret", "")
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.TeamLoginResponse
	testutil.AssertJSON(t, w, &resp)

	if resp.DeviceToken == "" {
		t.Error("Expected a device token")
	}
	if resp.TeamID != teamID {
		t.Errorf("Expected team id %d, got %d", teamID, resp.TeamID)
	}
	if resp.Username != "Tech Wizards-device-1" {
		t.Errorf("Expected generated device name, got '%s'", resp.Username)
	}
	if resp.ServerTime == 0 {
		t.Error("Expected server time")
	}

	if len(resp.Challenges) != 2 {
		t.Fatalf("Expected 2 challenges, got %d", len(resp.Challenges))
	}
	first := resp.Challenges[0]
	if first.ID != c1 || first.KeyHash != "key-Fountain" || !first.Geofence.Valid() {
		t.Errorf("Unexpected catalog entry: %+v", first)
	}

	device, err := AuthenticateDevice(context.Background(), db, resp.DeviceToken)
	if err != nil {
		t.Fatalf("Issued token should authenticate: %v", err)
	}
	if device.TeamID != teamID || device.MadeFinalSubmission {
		t.Errorf("Unexpected device row: %+v", device)
	}
}

func TestLoginDeviceNames(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewDeviceHandler(db, testutil.GetTestConfig())
	testutil.CreateTestTeam(t, db, "Owls", "pw", 4)

	var resp models.TeamLoginResponse

	w := loginDevice(t, handler, "Owls", "pw", "  Alice's Phone ")
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &resp)
	if resp.Username != "Alice's Phone" {
		t.Errorf("Expected requested device name, got '%s'", resp.Username)
	}

	// Same name again gets a suffix
	w = loginDevice(t, handler, "Owls", "pw", "Alice's Phone")
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &resp)
	if !strings.HasPrefix(resp.Username, "Alice's Phone-") || resp.Username == "Alice's Phone" {
		t.Errorf("Expected suffixed device name, got '%s'", resp.Username)
	}

	w = loginDevice(t, handler, "Owls", "pw", "")
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &resp)
	if resp.Username != "Owls-device-3" {
		t.Errorf("Expected 'Owls-device-3', got '%s'", resp.Username)
	}

	// Long multi-byte names are cut on a character boundary
	w = loginDevice(t, handler, "Owls", "pw", strings.Repeat("日", 70))
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &resp)
	if resp.Username != strings.Repeat("日", maxDeviceNameLength) {
		t.Errorf("Expected %d characters, got %q", maxDeviceNameLength, resp.Username)
	}

	var stored string
	db.QueryRow(`SELECT username FROM users WHERE device_token = $1`, resp.DeviceToken).Scan(&stored)
	if !utf8.ValidString(stored) || stored != resp.Username {
		t.Errorf("Stored name %q does not match response %q", stored, resp.Username)
	}
}

func TestTruncateRunes(t *testing.T) {
	testCases := []struct {
		in       string
		n        int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"abcdef", 3, "abc"},
		{"日本語テキスト", 3, "日本語"},
		{"ab日本", 3, "ab日"},
	}

	for _, tc := range testCases {
		if got := truncateRunes(tc.in, tc.n); got != tc.expected {
			t.Errorf("truncateRunes(%q, %d) = %q, expected %q", tc.in, tc.n, got, tc.expected)
		}
	}
}

func TestLoginRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewDeviceHandler(db, testutil.GetTestConfig())
	testutil.CreateTestTeam(t, db, "Foxes", "right", 4)

	testCases := []struct {
		name     string
		team     string
		password string
		status   int
		reason   string
	}{
		{"wrong password", "Foxes", "wrong", http.StatusUnauthorized, models.ReasonWrongCreds},
		{"unknown team", "Wolves", "right", http.StatusUnauthorized, models.ReasonWrongCreds},
		{"missing password", "Foxes", "", http.StatusBadRequest, models.ReasonValidation},
		{"missing team", "  ", "right", http.StatusBadRequest, models.ReasonValidation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := loginDevice(t, handler, tc.team, tc.password, "")
			testutil.AssertStatus(t, w, tc.status)
			testutil.AssertReason(t, w, tc.reason)
		})
	}

	if n := testutil.CountRows(t, db, `SELECT COUNT(*) FROM users`); n != 0 {
		t.Errorf("Rejected logins must not create devices, found %d", n)
	}
}

func TestLoginInvalidJSON(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewDeviceHandler(db, testutil.GetTestConfig())

	req := httptest.NewRequest("POST", "/api/team/login", strings.NewReader("{nope"))
	w := httptest.NewRecorder()
	handler.Login(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
	testutil.AssertReason(t, w, models.ReasonValidation)
}

func TestLoginAccountLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewDeviceHandler(db, testutil.GetTestConfig())
	teamID := testutil.CreateTestTeam(t, db, "Pair", "pw", 2)

	for i := 0; i < 2; i++ {
		w := loginDevice(t, handler, "Pair", "pw", "")
		testutil.AssertStatus(t, w, http.StatusOK)
	}

	w := loginDevice(t, handler, "Pair", "pw", "")
	testutil.AssertStatus(t, w, http.StatusForbidden)
	testutil.AssertReason(t, w, models.ReasonAccountLimitReached)

	if n := testutil.CountRows(t, db, `SELECT COUNT(*) FROM users WHERE team_id = $1`, teamID); n != 2 {
		t.Errorf("Expected 2 devices, got %d", n)
	}
}

func TestAuthenticateDevice(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	teamID := testutil.CreateTestTeam(t, db, "A", "pw", 4)
	d1 := testutil.CreateTestDevice(t, db, teamID, "a-1")

	device, err := AuthenticateDevice(ctx, db, d1.DeviceToken)
	if err != nil {
		t.Fatalf("AuthenticateDevice failed: %v", err)
	}
	if device.ID != d1.ID || device.Username != "a-1" {
		t.Errorf("Unexpected device: %+v", device)
	}

	for _, token := range []string{"", "not-a-token"} {
		if _, err := AuthenticateDevice(ctx, db, token); !errors.Is(err, ErrUnknownDevice) {
			t.Errorf("Expected ErrUnknownDevice for %q, got %v", token, err)
		}
	}
}
