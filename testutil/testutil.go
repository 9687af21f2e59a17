// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/tagquest/auth"
	"github.com/danielhkuo/tagquest/cliparse"
	"github.com/danielhkuo/tagquest/db"
	"github.com/danielhkuo/tagquest/models"
)

// TestSessionSecret signs admin sessions in tests
const TestSessionSecret = "test-session-secret"

// SetupTestDB creates a fresh SQLite database file with the full schema.
// The file lives in t.TempDir() and the handle is closed on cleanup.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tagquest_test.db")
	conn, err := db.Open(cliparse.DatabaseSQLite, path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn, cliparse.DatabaseSQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:              3318,
		DatabaseType:      cliparse.DatabaseSQLite,
		DatabaseURL:       "tagquest_test.db",
		SessionSecret:     TestSessionSecret,
		DefaultMaxMembers: 4,
		LogFormat:         cliparse.LogFormatJSON,
	}
}

// CreateTestTeam inserts a team with the given password and device limit
func CreateTestTeam(t *testing.T, conn *sql.DB, name, password string, maxMembers int) int64 {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	var teamID int64
	err = conn.QueryRow(`
		INSERT INTO teams (name, password_hash, max_members, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, name, hash, maxMembers, time.Now().UnixMilli()).Scan(&teamID)
	if err != nil {
		t.Fatalf("Failed to create test team: %v", err)
	}

	return teamID
}

// CreateTestDevice adds a logged-in device to a team
func CreateTestDevice(t *testing.T, conn *sql.DB, teamID int64, username string) models.Device {
	t.Helper()

	device := models.Device{
		TeamID:      teamID,
		Username:    username,
		DeviceToken: auth.GenerateDeviceToken(),
		LastActive:  time.Now().UnixMilli(),
	}
	err := conn.QueryRow(`
		INSERT INTO users (team_id, username, device_token, last_active, created_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id
	`, teamID, username, device.DeviceToken, device.LastActive).Scan(&device.ID)
	if err != nil {
		t.Fatalf("Failed to create test device: %v", err)
	}

	return device
}

// CreateTestChallenge inserts a challenge worth the given points
func CreateTestChallenge(t *testing.T, conn *sql.DB, name string, points int) int64 {
	t.Helper()

	var challengeID int64
	err := conn.QueryRow(`
		INSERT INTO challenges (name, short_name, points, top_left_lat, top_left_lng,
		                        bottom_right_lat, bottom_right_lng, key_hash)
		VALUES ($1, $2, $3, 40.01, -75.01, 40.00, -75.00, $4)
		RETURNING id
	`, name, name[:1], points, fmt.Sprintf("key-%s", name)).Scan(&challengeID)
	if err != nil {
		t.Fatalf("Failed to create test challenge: %v", err)
	}

	return challengeID
}

// CreateTestAdmin inserts an admin account and returns its id
func CreateTestAdmin(t *testing.T, conn *sql.DB, username, password string) int64 {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	var adminID int64
	err = conn.QueryRow(`
		INSERT INTO admins (username, password_hash, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, username, hash, time.Now().UnixMilli()).Scan(&adminID)
	if err != nil {
		t.Fatalf("Failed to create test admin: %v", err)
	}

	return adminID
}

// AdminCookie returns a valid admin session cookie signed with TestSessionSecret
func AdminCookie(t *testing.T, adminID int64) *http.Cookie {
	t.Helper()

	token, err := auth.IssueAdminSession(adminID, "admin", TestSessionSecret, time.Now())
	if err != nil {
		t.Fatalf("Failed to issue admin session: %v", err)
	}
	return &http.Cookie{Name: auth.SessionCookieName, Value: token}
}

// CountRows runs a COUNT(*) query and returns the result
func CountRows(t *testing.T, conn *sql.DB, query string, args ...any) int {
	t.Helper()

	var n int
	if err := conn.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// BearerHeader builds the Authorization header map for a device token
func BearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// AssertReason checks the machine-readable reason of an error response
func AssertReason(t *testing.T, w *httptest.ResponseRecorder, reason string) {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode error response: %v (body %s)", err, w.Body.String())
	}
	if resp.Reason != reason {
		t.Errorf("Expected reason %s, got %q (body %s)", reason, resp.Reason, w.Body.String())
	}
}
