// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the tagquest API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

Every route is wrapped in middleware.WithLogging. CORS is applied by the
caller around the whole mux.

# Endpoints

Health:

	GET /health
	GET /

Devices (token from team login):

	POST /api/team/login          - Join a team, receive token and challenges
	POST /api/update-leaderboard  - Upload solves, optionally final
	GET  /api/messages            - Pending messages, marked delivered

Public:

	GET /api/leaderboard - Standings and competitionEnded

Admin session:

	POST /api/admin/login  - Set admin_session cookie
	POST /api/admin/logout - Clear it

Admin (requires admin_session):

	POST   /api/admin/send-message             - Message a team or everyone
	GET    /api/admin/messages                 - Message history with delivery counts
	GET    /api/admin/users                    - Devices with activity
	POST   /api/admin/users/{id}/force-submit  - Finalize a device
	GET    /api/admin/leaderboard/export       - xlsx workbook
	GET    /api/admin/teams                    - List teams
	POST   /api/admin/teams                    - Create team
	GET    /api/admin/teams/{id}               - Get team
	PUT    /api/admin/teams/{id}               - Partial update
	DELETE /api/admin/teams/{id}               - Delete team and its devices
	GET    /api/admin/challenges               - List challenges
	POST   /api/admin/challenges               - Create challenge
	GET    /api/admin/challenges/{id}          - Get challenge
	PUT    /api/admin/challenges/{id}          - Partial update
	DELETE /api/admin/challenges/{id}          - Delete challenge

# Handler Initialization

The router creates handler instances with dependency injection:

	deviceHandler := handlers.NewDeviceHandler(db, cfg)
	leaderboardHandler := handlers.NewLeaderboardHandler(db, scoring.NewAggregator(db))
	adminHandler := handlers.NewAdminHandler(db, cfg)
	catalogHandler := handlers.NewCatalogHandler(db, cfg)

One Aggregator is shared by the public leaderboard so concurrent polls
collapse into a single query.
*/
package router
