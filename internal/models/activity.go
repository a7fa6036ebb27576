package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ActivityBugFixed   = "bug_fixed"
	ActivityPRReviewed = "pr_reviewed"
	ActivityCommit     = "commit"
	ActivityPRMerged   = "pr_merged"
)

const (
	SourceJira   = "jira"
	SourceGitHub = "github"
)

// Activity is one deduplicated contribution event. (source, source_id) is the
// natural key: a given upstream item belongs to exactly one contributor, so the
// index is global across users.
type Activity struct {
	gorm.Model
	UserID       uint              `json:"user_id" gorm:"index"`
	ActivityType string            `json:"activity_type"`
	Source       string            `json:"source" gorm:"uniqueIndex:idx_source_item"`
	SourceID     string            `json:"source_id" gorm:"uniqueIndex:idx_source_item"`
	SourceURL    string            `json:"source_url"`
	Metadata     map[string]string `json:"metadata" gorm:"serializer:json"`
	PointsEarned int               `json:"points_earned"`
	ActivityDate time.Time         `json:"activity_date"`
}
