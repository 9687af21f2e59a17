// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/tagquest/auth"
	"github.com/danielhkuo/tagquest/cliparse"
	store "github.com/danielhkuo/tagquest/db"
	"github.com/danielhkuo/tagquest/middleware"
	"github.com/danielhkuo/tagquest/models"
)

// CatalogHandler manages teams and challenges from the admin portal
type CatalogHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewCatalogHandler(db *sql.DB, cfg cliparse.Config) *CatalogHandler {
	return &CatalogHandler{db: db, cfg: cfg}
}

const teamColumns = `
	SELECT t.id, t.name, t.max_members, t.created_at,
	       (SELECT COUNT(*) FROM users u WHERE u.team_id = t.id) AS member_count
	FROM teams t
`

func scanTeam(row rowScanner) (models.Team, error) {
	var t models.Team
	err := row.Scan(&t.ID, &t.Name, &t.MaxMembers, &t.CreatedAt, &t.MemberCount)
	return t, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func getTeam(ctx context.Context, q store.Querier, id int64) (models.Team, error) {
	return scanTeam(q.QueryRowContext(ctx, teamColumns+` WHERE t.id = $1`, id))
}

func teamNameTaken(ctx context.Context, q store.Querier, name string, exceptID int64) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM teams WHERE name = $1 AND id <> $2)
	`, name, exceptID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check team name: %w", err)
	}
	return exists, nil
}

// ListTeams handles GET /api/admin/teams
func (h *CatalogHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), teamColumns+` ORDER BY t.id`)
	if err != nil {
		internalError(w, "failed to query teams", err)
		return
	}
	defer rows.Close()

	teams := []models.Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			internalError(w, "failed to scan team", err)
			return
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		internalError(w, "failed to read teams", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, teams)
}

// GetTeam handles GET /api/admin/teams/{id}
func (h *CatalogHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	team, err := getTeam(r.Context(), h.db, id)
	if err == sql.ErrNoRows {
		middleware.ReasonResponse(w, http.StatusNotFound, models.ReasonNotFound, "Team not found")
		return
	}
	if err != nil {
		internalError(w, "failed to query team", err, "team_id", id)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, team)
}

// CreateTeam handles POST /api/admin/teams
// maxMembers defaults to the server's configured limit when omitted
func (h *CatalogHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTeamRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, "Invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, "name is required")
		return
	}
	if req.Password == "" {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, "password is required")
		return
	}
	if req.MaxMembers == 0 {
		req.MaxMembers = h.cfg.DefaultMaxMembers
	}
	if req.MaxMembers < 1 || req.MaxMembers > cliparse.MaxTeamMembers {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation,
			fmt.Sprintf("maxMembers must be between 1 and %d", cliparse.MaxTeamMembers))
		return
	}

	ctx := r.Context()

	taken, err := teamNameTaken(ctx, h.db, req.Name, 0)
	if err != nil {
		internalError(w, "failed to check team name", err)
		return
	}
	if taken {
		middleware.ReasonResponse(w, http.StatusConflict, models.ReasonConflict, "A team with that name already exists")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		internalError(w, "failed to hash team password", err)
		return
	}

	var id int64
	err = h.db.QueryRowContext(ctx, `
		INSERT INTO teams (name, password_hash, max_members, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, req.Name, hash, req.MaxMembers, time.Now().UnixMilli()).Scan(&id)
	if store.IsUniqueViolation(err) {
		// Lost a race with a concurrent create of the same name
		middleware.ReasonResponse(w, http.StatusConflict, models.ReasonConflict, "A team with that name already exists")
		return
	}
	if err != nil {
		internalError(w, "failed to insert team", err)
		return
	}

	team, err := getTeam(ctx, h.db, id)
	if err != nil {
		internalError(w, "failed to reload team", err, "team_id", id)
		return
	}

	slog.Info("team created", "team_id", id, "name", req.Name, "max_members", req.MaxMembers)
	middleware.JSONResponse(w, http.StatusCreated, team)
}

// UpdateTeam handles PUT /api/admin/teams/{id}
// Only fields present in the body are changed
func (h *CatalogHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req models.UpdateTeamRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, "Invalid JSON")
		return
	}

	ctx := r.Context()
	update := store.NewUpdate("teams")

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, "name cannot be empty")
			return
		}
		taken, err := teamNameTaken(ctx, h.db, name, id)
		if err != nil {
			internalError(w, "failed to check team name", err)
			return
		}
		if taken {
			middleware.ReasonResponse(w, http.StatusConflict, models.ReasonConflict, "A team with that name already exists")
			return
		}
		update.Set("name", name)
	}
	if req.Password != nil {
		if *req.Password == "" {
			middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, "password cannot be empty")
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			internalError(w, "failed to hash team password", err)
			return
		}
		update.Set("password_hash", hash)
	}
	if req.MaxMembers != nil && (*req.MaxMembers < 1 || *req.MaxMembers > cliparse.MaxTeamMembers) {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation,
			fmt.Sprintf("maxMembers must be between 1 and %d", cliparse.MaxTeamMembers))
		return
	}
	store.SetIf(update, "max_members", req.MaxMembers)

	if update.Empty() {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, "no fields to update")
		return
	}

	query, args := update.Build("id", id)
	res, err := h.db.ExecContext(ctx, query, args...)
	if store.IsUniqueViolation(err) {
		middleware.ReasonResponse(w, http.StatusConflict, models.ReasonConflict, "A team with that name already exists")
		return
	}
	if err != nil {
		internalError(w, "failed to update team", err, "team_id", id)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ReasonResponse(w, http.StatusNotFound, models.ReasonNotFound, "Team not found")
		return
	}

	team, err := getTeam(ctx, h.db, id)
	if err != nil {
		internalError(w, "failed to reload team", err, "team_id", id)
		return
	}

	slog.Info("team updated", "team_id", id)
	middleware.JSONResponse(w, http.StatusOK, team)
}

// DeleteTeam handles DELETE /api/admin/teams/{id}
// Cascades to the team's devices, solves and messages
func (h *CatalogHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	res, err := h.db.ExecContext(r.Context(), `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		internalError(w, "failed to delete team", err, "team_id", id)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ReasonResponse(w, http.StatusNotFound, models.ReasonNotFound, "Team not found")
		return
	}

	slog.Info("team deleted", "team_id", id)
	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
}
