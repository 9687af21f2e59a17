// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielhkuo/tagquest/auth"
	"github.com/danielhkuo/tagquest/models"
)

type contextKey int

const adminClaimsKey contextKey = iota

// DeviceToken returns the device credential from the request, checking the
// Authorization bearer header, then X-Device-Token, then the deviceToken
// query parameter. Returns "" if none is present.
func DeviceToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, err := auth.BearerToken(h); err == nil {
			return token
		}
	}
	if token := strings.TrimSpace(r.Header.Get("X-Device-Token")); token != "" {
		return token
	}
	return strings.TrimSpace(r.URL.Query().Get("deviceToken"))
}

// RequireAdmin rejects requests without a valid admin session. The session
// is read from the admin_session cookie, then an Authorization bearer
// header; a stale cookie does not hide a valid header.
func RequireAdmin(secret string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokens := adminSessionTokens(r)
		if len(tokens) == 0 {
			ReasonResponse(w, http.StatusUnauthorized, models.ReasonUnauthenticated, "admin session required")
			return
		}

		for _, token := range tokens {
			claims, err := auth.ParseAdminSession(token, secret)
			if err == nil {
				next(w, r.WithContext(context.WithValue(r.Context(), adminClaimsKey, claims)))
				return
			}
		}

		ReasonResponse(w, http.StatusUnauthorized, models.ReasonUnauthenticated, "invalid or expired admin session")
	}
}

// adminSessionTokens returns the candidate session tokens in the order
// they are tried
func adminSessionTokens(r *http.Request) []string {
	var tokens []string
	if c, err := r.Cookie(auth.SessionCookieName); err == nil && c.Value != "" {
		tokens = append(tokens, c.Value)
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if token, err := auth.BearerToken(h); err == nil && token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// AdminFromContext returns the claims RequireAdmin attached to the request
func AdminFromContext(ctx context.Context) (*auth.AdminClaims, bool) {
	claims, ok := ctx.Value(adminClaimsKey).(*auth.AdminClaims)
	return claims, ok
}
