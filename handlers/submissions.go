// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/danielhkuo/tagquest/middleware"
	"github.com/danielhkuo/tagquest/models"
	"github.com/danielhkuo/tagquest/scoring"
)

// maxClaimsPerBatch bounds one upload; a device never holds more claims
// than there are challenges
const maxClaimsPerBatch = 1000

// UpdateLeaderboard handles POST /api/update-leaderboard
// Merges the device's solve claims into its team's solve set
func (h *DeviceHandler) UpdateLeaderboard(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateLeaderboardRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, "Invalid JSON")
		return
	}

	token := req.DeviceToken
	if token == "" {
		token = middleware.DeviceToken(r)
	}
	device, ok := requireDevice(w, r, h.db, token)
	if !ok {
		return
	}

	// Fast path; ReconcileSolves re-checks under the team lock
	if device.MadeFinalSubmission {
		middleware.ReasonResponse(w, http.StatusForbidden, models.ReasonAlreadyFinalized, "Final submission already made")
		return
	}

	if len(req.Solves) > maxClaimsPerBatch {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation,
			fmt.Sprintf("at most %d solves per batch", maxClaimsPerBatch))
		return
	}

	res, err := scoring.ReconcileSolves(r.Context(), h.db, device, req.Solves, req.IsFinalSubmission)

	var verr *scoring.ValidationError
	switch {
	case err == nil:
	case errors.Is(err, scoring.ErrAlreadyFinalized):
		middleware.ReasonResponse(w, http.StatusForbidden, models.ReasonAlreadyFinalized, "Final submission already made")
		return
	case errors.Is(err, scoring.ErrUserNotFound):
		middleware.ReasonResponse(w, http.StatusUnauthorized, models.ReasonUnauthenticated, "Device no longer exists")
		return
	case errors.As(err, &verr):
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, verr.Error())
		return
	default:
		internalError(w, "failed to reconcile solves", err, "user_id", device.ID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.UpdateLeaderboardResponse{
		Success:    true,
		Inserted:   res.Inserted,
		Updated:    res.Updated,
		Ignored:    res.Ignored,
		ServerTime: res.ServerTime,
	})
}
