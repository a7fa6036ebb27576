// Package ledger is the source of truth for point-bearing activities. Rows are
// immutable once written; deduplication happens on the (source, source_id)
// natural key so re-syncing the same window is a no-op.
package ledger

import (
	"errors"
	"time"

	"github.com/devpulse/devpulse-api/internal/models"
	"gorm.io/gorm"
)

const defaultListLimit = 50

// Point values are policy constants, never computed.
var pointsByType = map[string]int{
	models.ActivityBugFixed:   10,
	models.ActivityPRReviewed: 5,
	models.ActivityPRMerged:   15,
	models.ActivityCommit:     2,
}

func PointsFor(activityType string) int {
	return pointsByType[activityType]
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Candidate is a normalized event from a provider adapter, not yet checked
// against the ledger.
type Candidate struct {
	UserID       uint
	ActivityType string
	Source       string
	SourceID     string
	SourceURL    string
	Metadata     map[string]string
	ActivityDate time.Time
}

// RecordIfNew inserts the candidate unless an activity with the same
// (source, source_id) already exists. A duplicate-key failure from a racing
// insert is treated as a skip, never an error.
func (s *Service) RecordIfNew(candidate Candidate) (bool, error) {
	inserted := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Activity
		err := tx.Where("source = ? AND source_id = ?", candidate.Source, candidate.SourceID).
			First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		activity := models.Activity{
			UserID:       candidate.UserID,
			ActivityType: candidate.ActivityType,
			Source:       candidate.Source,
			SourceID:     candidate.SourceID,
			SourceURL:    candidate.SourceURL,
			Metadata:     candidate.Metadata,
			PointsEarned: PointsFor(candidate.ActivityType),
			ActivityDate: candidate.ActivityDate,
		}
		if err := tx.Create(&activity).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost a race with a concurrent sync; the row exists.
				return nil
			}
			return err
		}
		inserted = true
		return nil
	})
	return inserted, err
}

// ListActivities returns the user's activities most-recent-first, bounded by
// limit (default 50).
func (s *Service) ListActivities(userID uint, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var activities []models.Activity
	err := s.db.Where("user_id = ?", userID).
		Order("activity_date DESC").
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

type TypeBreakdown struct {
	ActivityType string `json:"activity_type"`
	Count        int64  `json:"count"`
	Points       int64  `json:"points"`
}

type UserStats struct {
	TotalPoints       int64               `json:"total_points"`
	BadgesEarned      int64               `json:"badges_earned"`
	ActivityBreakdown []TypeBreakdown     `json:"activity_breakdown"`
	Streaks           []models.UserStreak `json:"streaks"`
}

// GetUserStats rolls up points, per-type breakdown, streaks and badge count.
// All reads run in one transaction so a concurrent sync cannot produce a torn
// snapshot.
func (s *Service) GetUserStats(userID uint) (*UserStats, error) {
	stats := &UserStats{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Activity{}).
			Where("user_id = ?", userID).
			Select("COALESCE(SUM(points_earned), 0)").
			Scan(&stats.TotalPoints).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Activity{}).
			Where("user_id = ?", userID).
			Select("activity_type, COUNT(*) AS count, SUM(points_earned) AS points").
			Group("activity_type").
			Scan(&stats.ActivityBreakdown).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", userID).Find(&stats.Streaks).Error; err != nil {
			return err
		}

		return tx.Model(&models.UserBadge{}).
			Where("user_id = ?", userID).
			Count(&stats.BadgesEarned).Error
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
