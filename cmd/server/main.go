package main

import (
	"fmt"
	"net/http"

	"github.com/devpulse/devpulse-api/internal/auth"
	"github.com/devpulse/devpulse-api/internal/badges"
	"github.com/devpulse/devpulse-api/internal/config"
	"github.com/devpulse/devpulse-api/internal/database"
	"github.com/devpulse/devpulse-api/internal/handlers"
	"github.com/devpulse/devpulse-api/internal/ledger"
	"github.com/devpulse/devpulse-api/internal/notifier"
	"github.com/devpulse/devpulse-api/internal/providers"
	"github.com/devpulse/devpulse-api/internal/streaks"
	"github.com/devpulse/devpulse-api/internal/syncer"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()

	// Connect to Database
	db := database.Connect(cfg)
	database.SeedBadges(db)

	// Initialize Services
	ledgerSvc := ledger.NewService(db)
	streakSvc := streaks.NewService(db)
	badgeSvc := badges.NewService(db)

	jiraClient := providers.NewJiraClient(cfg)
	githubClient := providers.NewGitHubClient(cfg)

	var badgeNotifier notifier.Notifier
	discordNotifier, err := notifier.NewDiscordNotifier(cfg)
	if err != nil {
		logrus.Warnf("Discord notifier not initialized: %v", err)
	} else {
		badgeNotifier = discordNotifier
	}

	syncSvc := syncer.NewService(db, cfg, ledgerSvc, streakSvc, badgeSvc, jiraClient, githubClient, badgeNotifier)

	// Initialize Handlers
	authHandler := auth.NewAuthHandler(cfg, db)
	activityHandler := handlers.NewActivityHandler(syncSvc, ledgerSvc)
	badgeHandler := handlers.NewBadgeHandler(badgeSvc)
	streakHandler := handlers.NewStreakHandler(streakSvc)

	// Initialize Router
	r := chi.NewRouter()

	// Register Routes
	handlers.RegisterRoutes(r, authHandler, activityHandler, badgeHandler, streakHandler)

	// Start Server
	logrus.Infof("Starting server on port %s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}
