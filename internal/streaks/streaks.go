// Package streaks derives consecutive-day engagement streaks from the
// activity ledger.
package streaks

import (
	"errors"
	"time"

	"github.com/devpulse/devpulse-api/internal/models"
	"gorm.io/gorm"
)

// Streak math looks at the distinct calendar dates of the most recent
// activities only.
const activityLookback = 100

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// NewServiceWithClock pins "today" for tests.
func NewServiceWithClock(db *gorm.DB, now func() time.Time) *Service {
	return &Service{db: db, now: now}
}

// Update recomputes the user's daily_activity streak and upserts the row in
// one transaction. A user with no activities gets no row at all: that is the
// explicit no-op path, not an error. longest_streak never decreases, even when
// the current streak resets to zero.
func (s *Service) Update(userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var recent []models.Activity
		if err := tx.Select("activity_date").
			Where("user_id = ?", userID).
			Order("activity_date DESC").
			Limit(activityLookback).
			Find(&recent).Error; err != nil {
			return err
		}

		dates := distinctDates(recent)
		if len(dates) == 0 {
			return nil
		}

		current := s.consecutiveDays(dates)

		var streak models.UserStreak
		err := tx.Where("user_id = ? AND streak_type = ?", userID, models.StreakDailyActivity).
			First(&streak).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			streak = models.UserStreak{
				UserID:           userID,
				StreakType:       models.StreakDailyActivity,
				CurrentStreak:    current,
				LongestStreak:    current,
				LastActivityDate: dates[0],
				StartedAt:        dates[0],
			}
			return tx.Create(&streak).Error
		}
		if err != nil {
			return err
		}

		if current > streak.LongestStreak {
			streak.LongestStreak = current
		}
		streak.CurrentStreak = current
		streak.LastActivityDate = dates[0]
		return tx.Save(&streak).Error
	})
}

func (s *Service) GetUserStreaks(userID uint) ([]models.UserStreak, error) {
	var streaks []models.UserStreak
	if err := s.db.Where("user_id = ?", userID).Find(&streaks).Error; err != nil {
		return nil, err
	}
	return streaks, nil
}

// distinctDates collapses activity timestamps to unique UTC calendar days,
// preserving the descending order of the input. Multiple activities on one day
// count once.
func distinctDates(activities []models.Activity) []time.Time {
	var dates []time.Time
	seen := make(map[time.Time]bool)
	for _, a := range activities {
		day := truncateToDay(a.ActivityDate)
		if seen[day] {
			continue
		}
		seen[day] = true
		dates = append(dates, day)
	}
	return dates
}

// consecutiveDays walks the distinct dates (most recent first) and counts the
// run of day-by-day consecutive dates. A most recent date older than yesterday
// means the streak is broken regardless of any earlier run.
func (s *Service) consecutiveDays(dates []time.Time) int {
	today := truncateToDay(s.now())
	if daysBetween(dates[0], today) > 1 {
		return 0
	}

	streak := 1
	for i := 1; i < len(dates); i++ {
		diff := daysBetween(dates[i], dates[i-1])
		if diff == 1 {
			streak++
		} else if diff > 1 {
			break
		}
	}
	return streak
}

func truncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(earlier, later time.Time) int {
	return int(later.Sub(earlier).Hours() / 24)
}
