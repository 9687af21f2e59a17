// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"

	"github.com/danielhkuo/tagquest/messaging"
	"github.com/danielhkuo/tagquest/middleware"
	"github.com/danielhkuo/tagquest/models"
)

// GetMessages handles GET /api/messages
// Returns the device's undelivered messages and marks them delivered
func (h *DeviceHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	device, ok := requireDevice(w, r, h.db, middleware.DeviceToken(r))
	if !ok {
		return
	}

	msgs, serverTime, err := messaging.FetchAndMarkDelivered(r.Context(), h.db, device.ID)
	if err != nil {
		internalError(w, "failed to fetch messages", err, "user_id", device.ID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessagesResponse{
		Messages:   msgs,
		ServerTime: serverTime,
	})
}

// SendMessage handles POST /api/admin/send-message
func (h *AdminHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, `teamId must be "all" or a team id`)
		return
	}
	if req.TeamID == nil {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, "teamId is required")
		return
	}

	res, err := messaging.Send(r.Context(), h.db, *req.TeamID, req.Content)
	switch {
	case err == nil:
	case errors.Is(err, messaging.ErrTeamNotFound):
		middleware.ReasonResponse(w, http.StatusNotFound, models.ReasonNotFound, "Team not found")
		return
	case errors.Is(err, messaging.ErrEmptyContent), errors.Is(err, messaging.ErrContentTooLong):
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, err.Error())
		return
	default:
		internalError(w, "failed to send message", err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.SendMessageResponse{
		Success:    true,
		MessageID:  res.MessageID,
		Recipients: res.Recipients,
	})
}

// ListMessages handles GET /api/admin/messages
func (h *AdminHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	history, err := messaging.History(r.Context(), h.db)
	if err != nil {
		internalError(w, "failed to load message history", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, history)
}
