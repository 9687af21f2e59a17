// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides credential verification and token utilities.

# Passwords

Team and admin passwords are hashed with bcrypt:

	hash, err := auth.HashPassword(password)
	ok := auth.CheckPassword(hash, password)

Callers treat this as a black box: only hash and verify are exposed.

# Device Tokens

Every team login creates a device and hands it a random opaque token:

	token := auth.GenerateDeviceToken()

Devices send it back as "Authorization: Bearer <token>". BearerToken
extracts it from the header value.

# Admin Sessions

Admins log in once and receive an HS256 JWT in the admin_session cookie:

	token, err := auth.IssueAdminSession(adminID, username, secret, time.Now())
	claims, err := auth.ParseAdminSession(token, secret)

Sessions expire after SessionTTL (24 hours). Tampered, expired or
wrongly-signed tokens all return ErrInvalidSession.
*/
package auth
