// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielhkuo/tagquest/middleware"
	"github.com/danielhkuo/tagquest/models"
)

// pathID parses the {id} path segment, writing a 400 if it is not a
// positive integer
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// internalError logs the cause and writes a generic 500
func internalError(w http.ResponseWriter, msg string, err error, args ...any) {
	slog.Error(msg, append(args, "error", err)...)
	middleware.ReasonResponse(w, http.StatusInternalServerError, models.ReasonInternal, "Internal server error")
}
