// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionCookieName is the cookie carrying the admin session token
const SessionCookieName = "admin_session"

// SessionTTL is how long an admin session stays valid
const SessionTTL = 24 * time.Hour

const sessionIssuer = "tagquest"

// AdminClaims identifies the admin behind a session
type AdminClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AdminID returns the numeric admin id stored in the subject claim
func (c *AdminClaims) AdminID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// IssueAdminSession signs a session token for the admin
func IssueAdminSession(adminID int64, username, secret string, now time.Time) (string, error) {
	claims := AdminClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    sessionIssuer,
			Subject:   strconv.FormatInt(adminID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign admin session: %w", err)
	}
	return signed, nil
}

// ParseAdminSession validates a session token and returns its claims
func ParseAdminSession(tokenString, secret string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}

	if _, err := claims.AdminID(); err != nil {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
