package models

import (
	"time"

	"gorm.io/gorm"
)

const StreakDailyActivity = "daily_activity"

type UserStreak struct {
	gorm.Model
	UserID           uint      `json:"user_id" gorm:"uniqueIndex:idx_user_streak"`
	StreakType       string    `json:"streak_type" gorm:"uniqueIndex:idx_user_streak"`
	CurrentStreak    int       `json:"current_streak"`
	LongestStreak    int       `json:"longest_streak"`
	LastActivityDate time.Time `json:"last_activity_date"`
	StartedAt        time.Time `json:"started_at"`
}
