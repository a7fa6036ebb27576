package database

import (
	"log"

	"github.com/devpulse/devpulse-api/internal/models"
	"gorm.io/gorm"
)

// SeedBadges installs the default badge catalog on an empty database. The
// catalog is reference data; existing rows are never touched.
func SeedBadges(db *gorm.DB) {
	var count int64
	if err := db.Model(&models.Badge{}).Count(&count).Error; err != nil {
		log.Fatalf("Failed to count badges: %v", err)
	}
	if count > 0 {
		return
	}

	badges := []models.Badge{
		{
			Name:        "First Blood",
			Description: "Fix your first bug",
			Category:    "bug_squashing",
			Points:      50,
			Criteria:    []models.BadgeCriterion{{Metric: "bugs_fixed", Threshold: 1}},
		},
		{
			Name:        "Bug Crusher",
			Description: "Fix 10 bugs",
			Category:    "bug_squashing",
			Points:      100,
			Criteria:    []models.BadgeCriterion{{Metric: "bugs_fixed", Threshold: 10}},
		},
		{
			Name:        "Code Reviewer",
			Description: "Review 25 pull requests",
			Category:    "code_review",
			Points:      150,
			Criteria:    []models.BadgeCriterion{{Metric: "prs_reviewed", Threshold: 25}},
		},
		{
			Name:        "Streak Master",
			Description: "Maintain a 30-day activity streak",
			Category:    "streak",
			Points:      200,
			Criteria:    []models.BadgeCriterion{{Metric: "streak_days", Threshold: 30}},
		},
		{
			Name:        "Merge Machine",
			Description: "Merge 10 pull requests",
			Category:    "milestone",
			Points:      250,
			Criteria:    []models.BadgeCriterion{{Metric: "prs_merged", Threshold: 10}},
		},
		{
			Name:        "Committed",
			Description: "Land 50 commits",
			Category:    "milestone",
			Points:      300,
			Criteria:    []models.BadgeCriterion{{Metric: "commits", Threshold: 50}},
		},
	}

	if err := db.Create(&badges).Error; err != nil {
		log.Fatalf("Failed to seed badge catalog: %v", err)
	}
	log.Printf("Seeded %d badges", len(badges))
}
