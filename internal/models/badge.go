package models

import (
	"gorm.io/gorm"
)

type Badge struct {
	gorm.Model
	Name        string           `json:"name" gorm:"uniqueIndex"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	IconURL     string           `json:"icon_url"`
	Points      int              `json:"points"`
	Criteria    []BadgeCriterion `json:"criteria"`
}

// BadgeCriterion is one named-metric minimum threshold. A badge is earned when
// every one of its criteria is met; a badge with no criteria is vacuously
// satisfied.
type BadgeCriterion struct {
	gorm.Model
	BadgeID   uint   `json:"badge_id" gorm:"index"`
	Metric    string `json:"metric"`
	Threshold int    `json:"threshold"`
}
