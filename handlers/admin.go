// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/tagquest/auth"
	"github.com/danielhkuo/tagquest/cliparse"
	"github.com/danielhkuo/tagquest/middleware"
	"github.com/danielhkuo/tagquest/models"
	"github.com/danielhkuo/tagquest/scoring"
)

type AdminHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewAdminHandler(db *sql.DB, cfg cliparse.Config) *AdminHandler {
	return &AdminHandler{db: db, cfg: cfg}
}

// Login handles POST /api/admin/login
// Sets the admin_session cookie on success
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.AdminLoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, "Invalid JSON")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, "username and password are required")
		return
	}

	var (
		adminID      int64
		passwordHash string
	)
	err := h.db.QueryRowContext(r.Context(), `
		SELECT id, password_hash FROM admins WHERE username = $1
	`, req.Username).Scan(&adminID, &passwordHash)
	if err != nil && err != sql.ErrNoRows {
		internalError(w, "failed to query admin", err)
		return
	}
	if err == sql.ErrNoRows || !auth.CheckPassword(passwordHash, req.Password) {
		slog.Warn("admin login rejected", "username", req.Username, "remote", middleware.GetClientIP(r))
		middleware.ReasonResponse(w, http.StatusUnauthorized, models.ReasonWrongCreds, "Invalid username or password")
		return
	}

	now := time.Now()
	token, err := auth.IssueAdminSession(adminID, req.Username, h.cfg.SessionSecret, now)
	if err != nil {
		internalError(w, "failed to issue admin session", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(auth.SessionTTL),
		MaxAge:   int(auth.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	slog.Info("admin logged in", "admin_id", adminID, "username", req.Username)

	middleware.JSONResponse(w, http.StatusOK, models.AdminLoginResponse{
		Success:  true,
		Username: req.Username,
	})
}

// Logout handles POST /api/admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// ListUsers handles GET /api/admin/users
// Lists every device with its team and finalization state
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT u.id, u.team_id, t.name, u.username, u.last_active, u.made_final_submission
		FROM users u
		JOIN teams t ON t.id = u.team_id
		ORDER BY t.name, u.username
	`)
	if err != nil {
		internalError(w, "failed to query users", err)
		return
	}
	defer rows.Close()

	devices := []models.AdminDevice{}
	for rows.Next() {
		var d models.AdminDevice
		err := rows.Scan(&d.ID, &d.TeamID, &d.TeamName, &d.Username, &d.LastActive, &d.MadeFinalSubmission)
		if err != nil {
			internalError(w, "failed to scan user", err)
			return
		}
		d.LastActiveAgo = humanize.Time(time.UnixMilli(d.LastActive))
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		internalError(w, "failed to read users", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, devices)
}

// ForceSubmit handles POST /api/admin/users/{id}/force-submit
// Finalizes a device that cannot submit on its own
func (h *AdminHandler) ForceSubmit(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r)
	if !ok {
		return
	}

	wasOpen, err := scoring.ForceFinalize(r.Context(), h.db, userID)
	if errors.Is(err, scoring.ErrUserNotFound) {
		middleware.ReasonResponse(w, http.StatusNotFound, models.ReasonNotFound, "User not found")
		return
	}
	if err != nil {
		internalError(w, "failed to force-finalize user", err, "user_id", userID)
		return
	}

	if claims, ok := middleware.AdminFromContext(r.Context()); ok {
		slog.Info("force-submit by admin", "admin", claims.Username, "user_id", userID)
	}

	middleware.JSONResponse(w, http.StatusOK, models.ForceSubmitResponse{
		Success: true,
		WasOpen: wasOpen,
	})
}
