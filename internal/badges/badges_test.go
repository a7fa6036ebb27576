package badges

import (
	"fmt"
	"testing"
	"time"

	"github.com/devpulse/devpulse-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Activity{},
		&models.Badge{},
		&models.BadgeCriterion{},
		&models.UserBadge{},
		&models.UserStreak{},
	))
	return db
}

func addActivities(t *testing.T, db *gorm.DB, userID uint, activityType string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := db.Create(&models.Activity{
			UserID:       userID,
			ActivityType: activityType,
			Source:       models.SourceGitHub,
			SourceID:     fmt.Sprintf("%s-%d-%d", activityType, userID, i),
			ActivityDate: time.Now(),
		}).Error
		require.NoError(t, err)
	}
}

func createBadge(t *testing.T, db *gorm.DB, name string, criteria map[string]int) models.Badge {
	t.Helper()
	badge := models.Badge{Name: name, Category: "milestone", Points: 100}
	for metric, threshold := range criteria {
		badge.Criteria = append(badge.Criteria, models.BadgeCriterion{Metric: metric, Threshold: threshold})
	}
	require.NoError(t, db.Create(&badge).Error)
	return badge
}

func TestAwardOnce(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)

	createBadge(t, db, "First Blood", map[string]int{MetricBugsFixed: 1})
	addActivities(t, db, 1, models.ActivityBugFixed, 1)

	newBadges, err := svc.CheckAndAward(1)
	require.NoError(t, err)
	require.Len(t, newBadges, 1)
	assert.Equal(t, "First Blood", newBadges[0].Name)

	// Second run with no new qualifying activity awards nothing.
	newBadges, err = svc.CheckAndAward(1)
	require.NoError(t, err)
	assert.Empty(t, newBadges)

	var count int64
	db.Model(&models.UserBadge{}).Where("user_id = ?", 1).Count(&count)
	assert.Equal(t, int64(1), count)

	var award models.UserBadge
	require.NoError(t, db.Where("user_id = ?", 1).First(&award).Error)
	assert.Equal(t, 100, award.Progress)
}

func TestConjunctiveCriteria(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)

	createBadge(t, db, "All Rounder", map[string]int{
		MetricBugsFixed:   10,
		MetricPRsReviewed: 5,
	})

	// 15 bugs fixed but zero reviews: one satisfied metric is not enough.
	addActivities(t, db, 1, models.ActivityBugFixed, 15)

	newBadges, err := svc.CheckAndAward(1)
	require.NoError(t, err)
	assert.Empty(t, newBadges)

	addActivities(t, db, 1, models.ActivityPRReviewed, 5)

	newBadges, err = svc.CheckAndAward(1)
	require.NoError(t, err)
	require.Len(t, newBadges, 1)
	assert.Equal(t, "All Rounder", newBadges[0].Name)
}

func TestVacuousCriteria(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)

	// A badge with no criteria is vacuously satisfied.
	createBadge(t, db, "Welcome", nil)

	newBadges, err := svc.CheckAndAward(1)
	require.NoError(t, err)
	require.Len(t, newBadges, 1)
	assert.Equal(t, "Welcome", newBadges[0].Name)
}

func TestStreakMetric(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)

	createBadge(t, db, "Streak Master", map[string]int{MetricStreakDays: 3})
	require.NoError(t, db.Create(&models.UserStreak{
		UserID:        1,
		StreakType:    models.StreakDailyActivity,
		CurrentStreak: 5,
		LongestStreak: 5,
	}).Error)

	newBadges, err := svc.CheckAndAward(1)
	require.NoError(t, err)
	require.Len(t, newBadges, 1)
	assert.Equal(t, "Streak Master", newBadges[0].Name)
}

func TestCatalogOrder(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)

	first := createBadge(t, db, "First", map[string]int{MetricCommits: 1})
	second := createBadge(t, db, "Second", map[string]int{MetricCommits: 2})
	addActivities(t, db, 1, models.ActivityCommit, 3)

	newBadges, err := svc.CheckAndAward(1)
	require.NoError(t, err)
	require.Len(t, newBadges, 2)
	assert.Equal(t, first.ID, newBadges[0].ID)
	assert.Equal(t, second.ID, newBadges[1].ID)
}

func TestProgressCapping(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)

	createBadge(t, db, "Bug Crusher", map[string]int{MetricBugsFixed: 10})
	addActivities(t, db, 1, models.ActivityBugFixed, 15)

	progress, err := svc.GetBadgeProgress(1)
	require.NoError(t, err)
	require.Len(t, progress, 1)

	assert.Equal(t, 15, progress[0].Current)
	assert.Equal(t, 10, progress[0].Target)
	assert.Equal(t, 100, progress[0].Progress, "progress must never exceed 100")
}

func TestProgressPartial(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)

	createBadge(t, db, "Bug Crusher", map[string]int{MetricBugsFixed: 10})
	addActivities(t, db, 1, models.ActivityBugFixed, 5)

	progress, err := svc.GetBadgeProgress(1)
	require.NoError(t, err)
	require.Len(t, progress, 1)

	assert.Equal(t, 5, progress[0].Current)
	assert.Equal(t, 10, progress[0].Target)
	assert.Equal(t, 50, progress[0].Progress)
	assert.False(t, progress[0].Earned)
}

func TestProgressUsesLastCriterion(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)

	badge := models.Badge{
		Name:     "All Rounder",
		Category: "milestone",
		Criteria: []models.BadgeCriterion{
			{Metric: MetricBugsFixed, Threshold: 10},
			{Metric: MetricPRsReviewed, Threshold: 4},
		},
	}
	require.NoError(t, db.Create(&badge).Error)

	addActivities(t, db, 1, models.ActivityBugFixed, 10)
	addActivities(t, db, 1, models.ActivityPRReviewed, 2)

	progress, err := svc.GetBadgeProgress(1)
	require.NoError(t, err)
	require.Len(t, progress, 1)

	// Reported numbers come from the last criterion in iteration order even
	// though eligibility is the full conjunction.
	assert.Equal(t, 2, progress[0].Current)
	assert.Equal(t, 4, progress[0].Target)
	assert.Equal(t, 50, progress[0].Progress)
}

func TestEarnedFlagSurvivesRegression(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)

	badge := createBadge(t, db, "Streak Master", map[string]int{MetricStreakDays: 3})
	streak := models.UserStreak{
		UserID:        1,
		StreakType:    models.StreakDailyActivity,
		CurrentStreak: 3,
		LongestStreak: 3,
	}
	require.NoError(t, db.Create(&streak).Error)

	newBadges, err := svc.CheckAndAward(1)
	require.NoError(t, err)
	require.Len(t, newBadges, 1)

	// The live metric regresses; the award stands.
	streak.CurrentStreak = 0
	require.NoError(t, db.Save(&streak).Error)

	progress, err := svc.GetBadgeProgress(1)
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, badge.ID, progress[0].ID)
	assert.True(t, progress[0].Earned)
	assert.Equal(t, 0, progress[0].Progress)

	earned, err := svc.GetUserBadges(1)
	require.NoError(t, err)
	require.Len(t, earned, 1)
	assert.Equal(t, "Streak Master", earned[0].Name)
}
