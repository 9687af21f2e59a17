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

	store "github.com/danielhkuo/tagquest/db"
	"github.com/danielhkuo/tagquest/middleware"
	"github.com/danielhkuo/tagquest/models"
)

const challengeColumns = `
	SELECT id, name, short_name, points,
	       top_left_lat, top_left_lng, bottom_right_lat, bottom_right_lng, key_hash
	FROM challenges
`

func scanChallenge(row rowScanner) (models.Challenge, error) {
	var c models.Challenge
	err := row.Scan(&c.ID, &c.Name, &c.ShortName, &c.Points,
		&c.Geofence.TopLeftLat, &c.Geofence.TopLeftLng,
		&c.Geofence.BottomRightLat, &c.Geofence.BottomRightLng, &c.KeyHash)
	return c, err
}

// loadChallenges returns the full catalog, geofences and key hashes
// included, ordered by id
func loadChallenges(ctx context.Context, q store.Querier) ([]models.Challenge, error) {
	rows, err := q.QueryContext(ctx, challengeColumns+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenges: %w", err)
	}
	defer rows.Close()

	challenges := []models.Challenge{}
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read challenges: %w", err)
	}
	return challenges, nil
}

// validateChallengeFields checks the values a create or update would write.
// nil pointers are skipped.
func validateChallengeFields(name, shortName *string, points *int, geofence *models.Geofence, keyHash *string) string {
	if name != nil && strings.TrimSpace(*name) == "" {
		return "name cannot be empty"
	}
	if shortName != nil && strings.TrimSpace(*shortName) == "" {
		return "shortName cannot be empty"
	}
	if points != nil && *points <= 0 {
		return "points must be positive"
	}
	if geofence != nil && !geofence.Valid() {
		return "geofence must have its top-left corner north-west of its bottom-right corner"
	}
	if keyHash != nil && strings.TrimSpace(*keyHash) == "" {
		return "keyHash cannot be empty"
	}
	return ""
}

// ListChallenges handles GET /api/admin/challenges
func (h *CatalogHandler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	challenges, err := loadChallenges(r.Context(), h.db)
	if err != nil {
		internalError(w, "failed to load challenges", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, challenges)
}

// GetChallenge handles GET /api/admin/challenges/{id}
func (h *CatalogHandler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	c, err := scanChallenge(h.db.QueryRowContext(r.Context(), challengeColumns+` WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		middleware.ReasonResponse(w, http.StatusNotFound, models.ReasonNotFound, "Challenge not found")
		return
	}
	if err != nil {
		internalError(w, "failed to query challenge", err, "challenge_id", id)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, c)
}

// CreateChallenge handles POST /api/admin/challenges
func (h *CatalogHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	var req models.CreateChallengeRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, "Invalid JSON")
		return
	}

	if req.Geofence == nil {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, "geofence is required")
		return
	}
	if msg := validateChallengeFields(&req.Name, &req.ShortName, &req.Points, req.Geofence, &req.KeyHash); msg != "" {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, msg)
		return
	}

	c := models.Challenge{
		Name:      strings.TrimSpace(req.Name),
		ShortName: strings.TrimSpace(req.ShortName),
		Points:    req.Points,
		Geofence:  *req.Geofence,
		KeyHash:   strings.TrimSpace(req.KeyHash),
	}

	err := h.db.QueryRowContext(r.Context(), `
		INSERT INTO challenges (name, short_name, points, top_left_lat, top_left_lng,
		                        bottom_right_lat, bottom_right_lng, key_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, c.Name, c.ShortName, c.Points,
		c.Geofence.TopLeftLat, c.Geofence.TopLeftLng,
		c.Geofence.BottomRightLat, c.Geofence.BottomRightLng, c.KeyHash).Scan(&c.ID)
	if err != nil {
		internalError(w, "failed to insert challenge", err)
		return
	}

	slog.Info("challenge created", "challenge_id", c.ID, "name", c.Name, "points", c.Points)
	middleware.JSONResponse(w, http.StatusCreated, c)
}

// UpdateChallenge handles PUT /api/admin/challenges/{id}
// Only fields present in the body are changed; a geofence replaces all four
// corners at once
func (h *CatalogHandler) UpdateChallenge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req models.UpdateChallengeRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, "Invalid JSON")
		return
	}
	if msg := validateChallengeFields(req.Name, req.ShortName, req.Points, req.Geofence, req.KeyHash); msg != "" {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, msg)
		return
	}

	update := store.NewUpdate("challenges")
	store.SetIf(update, "name", trimmed(req.Name))
	store.SetIf(update, "short_name", trimmed(req.ShortName))
	store.SetIf(update, "points", req.Points)
	store.SetIf(update, "key_hash", trimmed(req.KeyHash))
	if g := req.Geofence; g != nil {
		update.Set("top_left_lat", g.TopLeftLat).
			Set("top_left_lng", g.TopLeftLng).
			Set("bottom_right_lat", g.BottomRightLat).
			Set("bottom_right_lng", g.BottomRightLng)
	}

	if update.Empty() {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, "no fields to update")
		return
	}

	ctx := r.Context()
	query, args := update.Build("id", id)
	res, err := h.db.ExecContext(ctx, query, args...)
	if err != nil {
		internalError(w, "failed to update challenge", err, "challenge_id", id)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ReasonResponse(w, http.StatusNotFound, models.ReasonNotFound, "Challenge not found")
		return
	}

	c, err := scanChallenge(h.db.QueryRowContext(ctx, challengeColumns+` WHERE id = $1`, id))
	if err != nil {
		internalError(w, "failed to reload challenge", err, "challenge_id", id)
		return
	}

	slog.Info("challenge updated", "challenge_id", id)
	middleware.JSONResponse(w, http.StatusOK, c)
}

// DeleteChallenge handles DELETE /api/admin/challenges/{id}
// Solves of the challenge are removed with it
func (h *CatalogHandler) DeleteChallenge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	res, err := h.db.ExecContext(r.Context(), `DELETE FROM challenges WHERE id = $1`, id)
	if err != nil {
		internalError(w, "failed to delete challenge", err, "challenge_id", id)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ReasonResponse(w, http.StatusNotFound, models.ReasonNotFound, "Challenge not found")
		return
	}

	slog.Info("challenge deleted", "challenge_id", id)
	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
