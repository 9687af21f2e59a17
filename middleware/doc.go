// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /api/leaderboard", middleware.WithLogging(handler))

Logs completion with method, path, status and duration_ms. 4xx responses log
at warn level and 5xx at error level.

# CORS Middleware

Enable cross-origin requests for the admin portal:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, DELETE, OPTIONS with headers
Content-Type, Authorization, X-Device-Token.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.ReasonResponse(w, http.StatusForbidden, models.ReasonAlreadyFinalized, "message")

Mobile clients branch on the reason field, so any error a device can act on
goes through ReasonResponse.

Parse JSON request bodies (capped at MaxBodyBytes):

	var req models.TeamLoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ReasonResponse(w, http.StatusBadRequest, models.ReasonValidation, "Invalid JSON")
		return
	}

# Authentication

Devices present the token issued at team login:

	token := middleware.DeviceToken(r)

The token is read from "Authorization: Bearer", then X-Device-Token, then
the deviceToken query parameter.

Admin routes are wrapped with RequireAdmin, which accepts the admin_session
cookie or a bearer header and stores the session claims on the request
context:

	mux.HandleFunc("GET /api/admin/users", middleware.RequireAdmin(secret, h.ListUsers))
	claims, ok := middleware.AdminFromContext(r.Context())

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)
*/
package middleware
