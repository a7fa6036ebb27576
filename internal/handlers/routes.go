package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/devpulse/devpulse-api/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func RegisterRoutes(r *chi.Mux, authHandler *auth.AuthHandler, activityHandler *ActivityHandler, badgeHandler *BadgeHandler, streakHandler *StreakHandler) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Initialize Huma API
	config := huma.DefaultConfig("DevPulse API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: "auth_token",
		},
	}
	api := humachi.New(r, config)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	huma.Post(api, "/api/auth/register", authHandler.HandleRegister)
	huma.Post(api, "/api/auth/login", authHandler.HandleLogin)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authHandler.AuthMiddleware)

		secured := func(o *huma.Operation) {
			o.Security = []map[string][]string{{"cookieAuth": {}}}
		}

		huma.Get(api, "/api/auth/profile", authHandler.HandleProfile, secured)
		huma.Put(api, "/api/auth/profile", authHandler.HandleUpdateProfile, secured)

		huma.Post(api, "/api/activities/sync", activityHandler.HandleSync, secured)
		huma.Get(api, "/api/activities", activityHandler.HandleList, secured)
		huma.Get(api, "/api/activities/stats", activityHandler.HandleStats, secured)

		huma.Get(api, "/api/badges", badgeHandler.HandleUserBadges, secured)
		huma.Get(api, "/api/badges/progress", badgeHandler.HandleProgress, secured)
		huma.Post(api, "/api/badges/check", badgeHandler.HandleCheck, secured)

		huma.Get(api, "/api/streaks", streakHandler.HandleStreaks, secured)
	})
}
