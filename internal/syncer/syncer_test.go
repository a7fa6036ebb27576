package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/devpulse/devpulse-api/internal/badges"
	"github.com/devpulse/devpulse-api/internal/config"
	"github.com/devpulse/devpulse-api/internal/ledger"
	"github.com/devpulse/devpulse-api/internal/models"
	"github.com/devpulse/devpulse-api/internal/notifier"
	"github.com/devpulse/devpulse-api/internal/providers"
	"github.com/devpulse/devpulse-api/internal/streaks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeTracker struct {
	issues []providers.JiraIssue
	err    error
}

func (f *fakeTracker) ResolvedBugs(ctx context.Context, accountID string, since time.Time) ([]providers.JiraIssue, error) {
	return f.issues, f.err
}

func (f *fakeTracker) BrowseURL(key string) string {
	return "https://jira.example.com/browse/" + key
}

type fakeHost struct {
	reviewed    []providers.GitHubPullRequest
	merged      []providers.GitHubPullRequest
	repos       []string
	commits     map[string][]providers.GitHubCommit
	commitCalls int
	err         error
}

func (f *fakeHost) ReviewedPullRequests(ctx context.Context, username string, since time.Time) ([]providers.GitHubPullRequest, error) {
	return f.reviewed, f.err
}

func (f *fakeHost) MergedPullRequests(ctx context.Context, username string, since time.Time) ([]providers.GitHubPullRequest, error) {
	return f.merged, f.err
}

func (f *fakeHost) OrgRepos(ctx context.Context) ([]string, error) {
	return f.repos, f.err
}

func (f *fakeHost) RepoCommits(ctx context.Context, username, repo string, since time.Time) ([]providers.GitHubCommit, error) {
	f.commitCalls++
	return f.commits[repo], f.err
}

type fakeNotifier struct {
	announced []string
}

func (f *fakeNotifier) NotifyBadgeAward(user models.User, badge models.Badge) error {
	f.announced = append(f.announced, badge.Name)
	return nil
}

func bugIssue(key, summary string, updated time.Time) providers.JiraIssue {
	issue := providers.JiraIssue{Key: key}
	issue.Fields.Summary = summary
	issue.Fields.Updated = updated.Format(time.RFC3339)
	return issue
}

func setup(t *testing.T, tracker TrackerProvider, host HostProvider, n notifier.Notifier) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Activity{},
		&models.Badge{},
		&models.BadgeCriterion{},
		&models.UserBadge{},
		&models.UserStreak{},
	))

	cfg := &config.Config{SyncLookbackDays: 30, SyncRepoLimit: 2}
	svc := NewService(db, cfg,
		ledger.NewService(db),
		streaks.NewService(db),
		badges.NewService(db),
		tracker, host, n)
	return svc, db
}

func TestSyncEndToEnd(t *testing.T) {
	tracker := &fakeTracker{issues: []providers.JiraIssue{
		bugIssue("BUG-1", "Crash on startup", time.Now()),
	}}
	notified := &fakeNotifier{}
	svc, db := setup(t, tracker, &fakeHost{}, notified)

	user := models.User{Username: "alice", Email: "alice@example.com", JiraAccountID: "acct-1"}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&models.Badge{
		Name:     "First Blood",
		Criteria: []models.BadgeCriterion{{Metric: badges.MetricBugsFixed, Threshold: 1}},
	}).Error)

	require.NoError(t, svc.SyncUserActivities(context.Background(), user.ID))

	var activity models.Activity
	require.NoError(t, db.First(&activity).Error)
	assert.Equal(t, models.ActivityBugFixed, activity.ActivityType)
	assert.Equal(t, models.SourceJira, activity.Source)
	assert.Equal(t, "BUG-1", activity.SourceID)
	assert.Equal(t, "https://jira.example.com/browse/BUG-1", activity.SourceURL)
	assert.Equal(t, 10, activity.PointsEarned)
	assert.Equal(t, "Crash on startup", activity.Metadata["summary"])

	var streak models.UserStreak
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&streak).Error)
	assert.Equal(t, 1, streak.CurrentStreak)
	assert.Equal(t, 1, streak.LongestStreak)

	var awardCount int64
	db.Model(&models.UserBadge{}).Where("user_id = ?", user.ID).Count(&awardCount)
	assert.Equal(t, int64(1), awardCount)
	assert.Equal(t, []string{"First Blood"}, notified.announced)
}

func TestSyncIdempotent(t *testing.T) {
	now := time.Now()
	tracker := &fakeTracker{issues: []providers.JiraIssue{
		bugIssue("BUG-1", "Crash on startup", now),
	}}
	host := &fakeHost{
		merged: []providers.GitHubPullRequest{
			{Number: 7, Title: "Fix crash", HTMLURL: "https://github.com/acme/app/pull/7", UpdatedAt: now},
		},
	}
	svc, db := setup(t, tracker, host, nil)

	user := models.User{Username: "alice", Email: "alice@example.com", JiraAccountID: "acct-1", GithubUsername: "alice"}
	require.NoError(t, db.Create(&user).Error)

	require.NoError(t, svc.SyncUserActivities(context.Background(), user.ID))
	require.NoError(t, svc.SyncUserActivities(context.Background(), user.ID))

	var count int64
	db.Model(&models.Activity{}).Count(&count)
	assert.Equal(t, int64(2), count, "re-syncing the same window must not duplicate activities")

	var totalPoints int64
	db.Model(&models.Activity{}).Select("COALESCE(SUM(points_earned), 0)").Scan(&totalPoints)
	assert.Equal(t, int64(25), totalPoints)
}

func TestSyncUserNotFound(t *testing.T) {
	svc, _ := setup(t, &fakeTracker{}, &fakeHost{}, nil)

	err := svc.SyncUserActivities(context.Background(), 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestProviderFailureDegrades(t *testing.T) {
	tracker := &fakeTracker{err: providers.ErrUpstreamUnavailable}
	host := &fakeHost{err: providers.ErrUpstreamUnavailable}
	svc, db := setup(t, tracker, host, nil)

	user := models.User{Username: "alice", Email: "alice@example.com", JiraAccountID: "acct-1", GithubUsername: "alice"}
	require.NoError(t, db.Create(&user).Error)

	// Both upstreams down: the sync still succeeds with empty categories.
	require.NoError(t, svc.SyncUserActivities(context.Background(), user.ID))

	var count int64
	db.Model(&models.Activity{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestSyncSkipsUnlinkedProviders(t *testing.T) {
	tracker := &fakeTracker{issues: []providers.JiraIssue{
		bugIssue("BUG-1", "Crash on startup", time.Now()),
	}}
	svc, db := setup(t, tracker, &fakeHost{}, nil)

	// No linked identifiers at all: nothing is pulled.
	user := models.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, db.Create(&user).Error)

	require.NoError(t, svc.SyncUserActivities(context.Background(), user.ID))

	var count int64
	db.Model(&models.Activity{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestRepoFanoutCap(t *testing.T) {
	now := time.Now()
	commit := providers.GitHubCommit{SHA: "abc123", HTMLURL: "https://github.com/acme/one/commit/abc123"}
	commit.Commit.Message = "fix"
	commit.Commit.Author.Date = now

	host := &fakeHost{
		repos:   []string{"one", "two", "three", "four", "five"},
		commits: map[string][]providers.GitHubCommit{"one": {commit}},
	}
	svc, db := setup(t, &fakeTracker{}, host, nil)

	user := models.User{Username: "alice", Email: "alice@example.com", GithubUsername: "alice"}
	require.NoError(t, db.Create(&user).Error)

	require.NoError(t, svc.SyncUserActivities(context.Background(), user.ID))

	assert.Equal(t, 2, host.commitCalls, "commit scanning must honor the repo cap")

	var count int64
	db.Model(&models.Activity{}).Where("activity_type = ?", models.ActivityCommit).Count(&count)
	assert.Equal(t, int64(1), count)
}
