package models

import (
	"time"

	"gorm.io/gorm"
)

// UserBadge is a one-time award. The composite unique index is the backstop
// against duplicate awards under concurrent checks.
type UserBadge struct {
	gorm.Model
	UserID   uint      `json:"user_id" gorm:"uniqueIndex:idx_user_badge"`
	BadgeID  uint      `json:"badge_id" gorm:"uniqueIndex:idx_user_badge"`
	Badge    Badge     `json:"badge"`
	EarnedAt time.Time `json:"earned_at"`
	Progress int       `json:"progress"`
}
