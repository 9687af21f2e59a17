// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/tagquest/cliparse"
	"github.com/danielhkuo/tagquest/handlers"
	"github.com/danielhkuo/tagquest/middleware"
	"github.com/danielhkuo/tagquest/scoring"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	deviceHandler := handlers.NewDeviceHandler(db, cfg)
	leaderboardHandler := handlers.NewLeaderboardHandler(db, scoring.NewAggregator(db))
	adminHandler := handlers.NewAdminHandler(db, cfg)
	catalogHandler := handlers.NewCatalogHandler(db, cfg)

	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(cfg.SessionSecret, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Device operations (device token)
	mux.HandleFunc("POST /api/team/login", middleware.WithLogging(deviceHandler.Login))
	mux.HandleFunc("POST /api/update-leaderboard", middleware.WithLogging(deviceHandler.UpdateLeaderboard))
	mux.HandleFunc("GET /api/messages", middleware.WithLogging(deviceHandler.GetMessages))

	// Public leaderboard
	mux.HandleFunc("GET /api/leaderboard", middleware.WithLogging(leaderboardHandler.GetLeaderboard))

	// Admin session
	mux.HandleFunc("POST /api/admin/login", middleware.WithLogging(adminHandler.Login))
	mux.HandleFunc("POST /api/admin/logout", middleware.WithLogging(adminHandler.Logout))

	// Admin operations
	mux.HandleFunc("POST /api/admin/send-message", admin(adminHandler.SendMessage))
	mux.HandleFunc("GET /api/admin/messages", admin(adminHandler.ListMessages))
	mux.HandleFunc("GET /api/admin/users", admin(adminHandler.ListUsers))
	mux.HandleFunc("POST /api/admin/users/{id}/force-submit", admin(adminHandler.ForceSubmit))
	mux.HandleFunc("GET /api/admin/leaderboard/export", admin(leaderboardHandler.ExportLeaderboard))

	// Team management
	mux.HandleFunc("GET /api/admin/teams", admin(catalogHandler.ListTeams))
	mux.HandleFunc("POST /api/admin/teams", admin(catalogHandler.CreateTeam))
	mux.HandleFunc("GET /api/admin/teams/{id}", admin(catalogHandler.GetTeam))
	mux.HandleFunc("PUT /api/admin/teams/{id}", admin(catalogHandler.UpdateTeam))
	mux.HandleFunc("DELETE /api/admin/teams/{id}", admin(catalogHandler.DeleteTeam))

	// Challenge management
	mux.HandleFunc("GET /api/admin/challenges", admin(catalogHandler.ListChallenges))
	mux.HandleFunc("POST /api/admin/challenges", admin(catalogHandler.CreateChallenge))
	mux.HandleFunc("GET /api/admin/challenges/{id}", admin(catalogHandler.GetChallenge))
	mux.HandleFunc("PUT /api/admin/challenges/{id}", admin(catalogHandler.UpdateChallenge))
	mux.HandleFunc("DELETE /api/admin/challenges/{id}", admin(catalogHandler.DeleteChallenge))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tagquest API v1"))
	})

	return mux
}
