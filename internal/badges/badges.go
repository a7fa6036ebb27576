// Package badges evaluates threshold criteria against a user's metrics and
// awards catalog badges exactly once.
package badges

import (
	"errors"
	"math"
	"time"

	"github.com/devpulse/devpulse-api/internal/models"
	"gorm.io/gorm"
)

// Metric names referenced by badge criteria.
const (
	MetricBugsFixed   = "bugs_fixed"
	MetricPRsReviewed = "prs_reviewed"
	MetricCommits     = "commits"
	MetricPRsMerged   = "prs_merged"
	MetricStreakDays  = "streak_days"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// MetricSnapshot is a user's aggregate metrics at one point in time.
type MetricSnapshot struct {
	BugsFixed   int `json:"bugs_fixed"`
	PRsReviewed int `json:"prs_reviewed"`
	Commits     int `json:"commits"`
	PRsMerged   int `json:"prs_merged"`
	StreakDays  int `json:"streak_days"`
}

func (m MetricSnapshot) Value(metric string) int {
	switch metric {
	case MetricBugsFixed:
		return m.BugsFixed
	case MetricPRsReviewed:
		return m.PRsReviewed
	case MetricCommits:
		return m.Commits
	case MetricPRsMerged:
		return m.PRsMerged
	case MetricStreakDays:
		return m.StreakDays
	default:
		return 0
	}
}

// Meets reports whether every criterion's threshold is reached. The
// conjunction over an empty criteria set is vacuously true, so a badge with no
// criteria is always earned; that is a documented property of the catalog, not
// an accident.
func (m MetricSnapshot) Meets(criteria []models.BadgeCriterion) bool {
	for _, c := range criteria {
		if m.Value(c.Metric) < c.Threshold {
			return false
		}
	}
	return true
}

// CheckAndAward evaluates every unearned catalog badge against the user's
// current metrics and awards the ones that now qualify, in catalog order. The
// whole evaluation runs in one transaction; re-running after no new qualifying
// activity returns an empty slice.
func (s *Service) CheckAndAward(userID uint) ([]models.Badge, error) {
	var newBadges []models.Badge
	err := s.db.Transaction(func(tx *gorm.DB) error {
		snapshot, err := s.snapshot(tx, userID)
		if err != nil {
			return err
		}

		catalog, err := loadCatalog(tx)
		if err != nil {
			return err
		}

		earned, err := earnedBadgeIDs(tx, userID)
		if err != nil {
			return err
		}

		for _, badge := range catalog {
			if earned[badge.ID] {
				continue
			}
			if !snapshot.Meets(badge.Criteria) {
				continue
			}

			award := models.UserBadge{
				UserID:   userID,
				BadgeID:  badge.ID,
				EarnedAt: time.Now(),
				Progress: 100,
			}
			if err := tx.Create(&award).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					// A concurrent check got there first; skip, don't fail.
					continue
				}
				return err
			}
			newBadges = append(newBadges, badge)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newBadges, nil
}

// GetUserBadges returns the badges the user has earned, most recent first.
func (s *Service) GetUserBadges(userID uint) ([]models.Badge, error) {
	var awards []models.UserBadge
	err := s.db.Where("user_id = ?", userID).
		Order("earned_at DESC").
		Preload("Badge").
		Preload("Badge.Criteria", criteriaOrder).
		Find(&awards).Error
	if err != nil {
		return nil, err
	}

	badges := make([]models.Badge, 0, len(awards))
	for _, award := range awards {
		badges = append(badges, award.Badge)
	}
	return badges, nil
}

type BadgeProgress struct {
	models.Badge
	Earned   bool `json:"earned"`
	Progress int  `json:"progress"`
	Current  int  `json:"current"`
	Target   int  `json:"target"`
}

// GetBadgeProgress reports per-badge progress for the whole catalog. For a
// multi-criterion badge the reported current/target come from the last
// criterion in iteration order; eligibility itself stays conjunctive. Progress
// is capped at 100. The earned flag comes from the award table alone, so an
// earned badge stays earned even if its live metrics regress.
func (s *Service) GetBadgeProgress(userID uint) ([]BadgeProgress, error) {
	var result []BadgeProgress
	err := s.db.Transaction(func(tx *gorm.DB) error {
		snapshot, err := s.snapshot(tx, userID)
		if err != nil {
			return err
		}

		catalog, err := loadCatalog(tx)
		if err != nil {
			return err
		}

		earned, err := earnedBadgeIDs(tx, userID)
		if err != nil {
			return err
		}

		result = make([]BadgeProgress, 0, len(catalog))
		for _, badge := range catalog {
			entry := BadgeProgress{Badge: badge, Earned: earned[badge.ID]}
			for _, c := range badge.Criteria {
				entry.Target = c.Threshold
				entry.Current = snapshot.Value(c.Metric)
				ratio := 100 * float64(entry.Current) / float64(entry.Target)
				entry.Progress = int(math.Min(100, math.Round(ratio)))
			}
			result = append(result, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) snapshot(tx *gorm.DB, userID uint) (MetricSnapshot, error) {
	var snapshot MetricSnapshot

	counts := map[string]*int{
		models.ActivityBugFixed:   &snapshot.BugsFixed,
		models.ActivityPRReviewed: &snapshot.PRsReviewed,
		models.ActivityCommit:     &snapshot.Commits,
		models.ActivityPRMerged:   &snapshot.PRsMerged,
	}
	for activityType, dest := range counts {
		var count int64
		err := tx.Model(&models.Activity{}).
			Where("user_id = ? AND activity_type = ?", userID, activityType).
			Count(&count).Error
		if err != nil {
			return snapshot, err
		}
		*dest = int(count)
	}

	var streak models.UserStreak
	err := tx.Where("user_id = ? AND streak_type = ?", userID, models.StreakDailyActivity).
		First(&streak).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return snapshot, err
	}
	snapshot.StreakDays = streak.CurrentStreak

	return snapshot, nil
}

// loadCatalog returns all badges with criteria, in ascending id order so award
// iteration and progress listing share one stable order.
func loadCatalog(tx *gorm.DB) ([]models.Badge, error) {
	var catalog []models.Badge
	err := tx.Order("id").Preload("Criteria", criteriaOrder).Find(&catalog).Error
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

func earnedBadgeIDs(tx *gorm.DB, userID uint) (map[uint]bool, error) {
	var ids []uint
	err := tx.Model(&models.UserBadge{}).
		Where("user_id = ?", userID).
		Pluck("badge_id", &ids).Error
	if err != nil {
		return nil, err
	}
	earned := make(map[uint]bool, len(ids))
	for _, id := range ids {
		earned[id] = true
	}
	return earned, nil
}

func criteriaOrder(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}
