// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielhkuo/tagquest/auth"
	"github.com/danielhkuo/tagquest/cliparse"
	store "github.com/danielhkuo/tagquest/db"
	"github.com/danielhkuo/tagquest/middleware"
	"github.com/danielhkuo/tagquest/models"
)

var ErrUnknownDevice = errors.New("unknown device token")

const maxDeviceNameLength = 64

// AuthenticateDevice resolves a device token to its user row
func AuthenticateDevice(ctx context.Context, db *sql.DB, token string) (models.Device, error) {
	if token == "" {
		return models.Device{}, ErrUnknownDevice
	}

	var d models.Device
	err := db.QueryRowContext(ctx, `
		SELECT id, team_id, username, device_token, last_active, made_final_submission
		FROM users
		WHERE device_token = $1
	`, token).Scan(&d.ID, &d.TeamID, &d.Username, &d.DeviceToken, &d.LastActive, &d.MadeFinalSubmission)

	if err == sql.ErrNoRows {
		return models.Device{}, ErrUnknownDevice
	}
	if err != nil {
		return models.Device{}, fmt.Errorf("failed to query device: %w", err)
	}
	return d, nil
}

// requireDevice authenticates the request or writes the error response.
// The second return is false when the handler should stop.
func requireDevice(w http.ResponseWriter, r *http.Request, db *sql.DB, token string) (models.Device, bool) {
	device, err := AuthenticateDevice(r.Context(), db, token)
	if errors.Is(err, ErrUnknownDevice) {
		middleware.ReasonResponse(w, http.StatusUnauthorized, models.ReasonUnauthenticated, "Invalid or missing device token")
		return models.Device{}, false
	}
	if err != nil {
		slog.Error("failed to authenticate device", "error", err)
		middleware.ReasonResponse(w, http.StatusInternalServerError, models.ReasonInternal, "Database error")
		return models.Device{}, false
	}
	return device, true
}

// deviceNameTaken reports whether a username is already in use
func deviceNameTaken(ctx context.Context, q store.Querier, username string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)
	`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

type DeviceHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewDeviceHandler(db *sql.DB, cfg cliparse.Config) *DeviceHandler {
	return &DeviceHandler{db: db, cfg: cfg}
}

var errTeamFull = errors.New("team is full")

// Login handles POST /api/team/login
// Creates a device for the team and returns its token with the challenge catalog
func (h *DeviceHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.TeamLoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, "Invalid JSON")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, "username and password are required")
		return
	}

	ctx := r.Context()

	var (
		teamID       int64
		teamName     string
		passwordHash string
	)
	err := h.db.QueryRowContext(ctx, `
		SELECT id, name, password_hash FROM teams WHERE name = $1
	`, req.Username).Scan(&teamID, &teamName, &passwordHash)
	if err != nil && err != sql.ErrNoRows {
		slog.Error("failed to query team", "error", err)
		middleware.ReasonResponse(w, http.StatusInternalServerError, models.ReasonInternal, "Database error")
		return
	}
	if err == sql.ErrNoRows || !auth.CheckPassword(passwordHash, req.Password) {
		slog.Warn("team login rejected", "team", req.Username, "remote", middleware.GetClientIP(r))
		middleware.ReasonResponse(w, http.StatusUnauthorized, models.ReasonWrongCreds, "Invalid team name or password")
		return
	}

	device := models.Device{
		TeamID:      teamID,
		DeviceToken: auth.GenerateDeviceToken(),
		LastActive:  time.Now().UnixMilli(),
	}

	err = store.WithTx(ctx, h.db, func(tx *sql.Tx) error {
		// Member count and insert must not interleave with another login
		if err := store.LockTeam(ctx, tx, teamID); err != nil {
			return err
		}

		var members, maxMembers int
		err := tx.QueryRowContext(ctx, `
			SELECT (SELECT COUNT(*) FROM users WHERE team_id = $1), max_members
			FROM teams WHERE id = $1
		`, teamID).Scan(&members, &maxMembers)
		if err != nil {
			return fmt.Errorf("failed to count team members: %w", err)
		}
		if members >= maxMembers {
			return errTeamFull
		}

		device.Username, err = pickDeviceName(ctx, tx, teamName, req.DeviceName, members+1, device.DeviceToken)
		if err != nil {
			return err
		}

		return tx.QueryRowContext(ctx, `
			INSERT INTO users (team_id, username, device_token, last_active, made_final_submission, created_at)
			VALUES ($1, $2, $3, $4, 0, $4)
			RETURNING id
		`, teamID, device.Username, device.DeviceToken, device.LastActive).Scan(&device.ID)
	})
	if errors.Is(err, errTeamFull) {
		middleware.ReasonResponse(w, http.StatusForbidden, models.ReasonAccountLimitReached, "Team has reached its device limit")
		return
	}
	if err != nil {
		slog.Error("failed to create device", "team_id", teamID, "error", err)
		middleware.ReasonResponse(w, http.StatusInternalServerError, models.ReasonInternal, "Failed to create device")
		return
	}

	challenges, err := loadChallenges(ctx, h.db)
	if err != nil {
		slog.Error("failed to load challenges", "error", err)
		middleware.ReasonResponse(w, http.StatusInternalServerError, models.ReasonInternal, "Database error")
		return
	}

	slog.Info("device logged in", "team_id", teamID, "user_id", device.ID, "username", device.Username)

	middleware.JSONResponse(w, http.StatusOK, models.TeamLoginResponse{
		DeviceToken: device.DeviceToken,
		Username:    device.Username,
		TeamID:      teamID,
		Challenges:  challenges,
		ServerTime:  time.Now().UnixMilli(),
	})
}

// pickDeviceName uses the requested device name, or "<team>-device-<n>",
// adding a token suffix if the name is already taken
func pickDeviceName(ctx context.Context, q store.Querier, teamName, requested string, n int, token string) (string, error) {
	name := strings.TrimSpace(requested)
	if name == "" {
		name = fmt.Sprintf("%s-device-%d", teamName, n)
	}
	name = truncateRunes(name, maxDeviceNameLength)

	taken, err := deviceNameTaken(ctx, q, name)
	if err != nil || !taken {
		return name, err
	}
	return name + "-" + token[:8], nil
}

// truncateRunes cuts s to at most n characters without splitting one
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
