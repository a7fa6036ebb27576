package database

import (
	"log"

	"github.com/devpulse/devpulse-api/internal/config"
	"github.com/devpulse/devpulse-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) *gorm.DB {
	// TranslateError surfaces unique-constraint violations as
	// gorm.ErrDuplicatedKey, which the ledger and badge engine rely on to
	// collapse racing inserts into benign skips.
	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto Migrate
	err = db.AutoMigrate(
		&models.User{},
		&models.Activity{},
		&models.Badge{},
		&models.BadgeCriterion{},
		&models.UserBadge{},
		&models.UserStreak{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	return db
}
