// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the tagquest API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - DeviceHandler: team login, solve upload and message polling for devices
  - LeaderboardHandler: public leaderboard and the admin xlsx export
  - AdminHandler: admin session, device list, force-submit and messaging
  - CatalogHandler: team and challenge CRUD for the admin portal

Handlers are created via constructor functions:

	deviceHandler := handlers.NewDeviceHandler(db, cfg)
	leaderboardHandler := handlers.NewLeaderboardHandler(db, scoring.NewAggregator(db))

# Device Flow

A device joins a team with the team's shared password and receives an
opaque token plus the full challenge catalog, geofences and key hashes
included:

	POST /api/team/login          → Login (returns deviceToken)
	POST /api/update-leaderboard  → UpdateLeaderboard
	GET  /api/messages            → GetMessages
	GET  /api/leaderboard         → GetLeaderboard (no auth)

Login fails with ACCOUNT_LIMIT_REACHED once the team has max_members
devices. The token goes in the request body (update-leaderboard only), an
"Authorization: Bearer" header, an X-Device-Token header, or the
deviceToken query parameter.

# Admin Flow

	POST /api/admin/login                    → Login (sets admin_session cookie)
	POST /api/admin/send-message             → SendMessage
	GET  /api/admin/users                    → ListUsers
	POST /api/admin/users/{id}/force-submit  → ForceSubmit
	GET  /api/admin/leaderboard/export       → ExportLeaderboard

Teams and challenges are managed under /api/admin/teams and
/api/admin/challenges. PUT is a partial update: only fields present in the
body change.

# Errors

Every error body carries a reason code from models (WRONG_CREDS,
ALREADY_FINALIZED, VALIDATION_ERROR, ...). Storage failures are logged and
returned as INTERNAL_ERROR without detail.
*/
package handlers
