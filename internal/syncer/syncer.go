// Package syncer coordinates one refresh cycle per user: pull candidate
// events from the provider adapters, record them in the ledger, then
// recompute streaks and evaluate badges. Each step commits its own
// transaction, so a late failure never rolls back activities already
// recorded ("best-effort forward progress").
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/devpulse/devpulse-api/internal/badges"
	"github.com/devpulse/devpulse-api/internal/config"
	"github.com/devpulse/devpulse-api/internal/ledger"
	"github.com/devpulse/devpulse-api/internal/models"
	"github.com/devpulse/devpulse-api/internal/notifier"
	"github.com/devpulse/devpulse-api/internal/providers"
	"github.com/devpulse/devpulse-api/internal/streaks"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

// TrackerProvider is the issue-tracker side of the sync (Jira in production).
type TrackerProvider interface {
	ResolvedBugs(ctx context.Context, accountID string, since time.Time) ([]providers.JiraIssue, error)
	BrowseURL(key string) string
}

// HostProvider is the source-host side of the sync (GitHub in production).
type HostProvider interface {
	ReviewedPullRequests(ctx context.Context, username string, since time.Time) ([]providers.GitHubPullRequest, error)
	MergedPullRequests(ctx context.Context, username string, since time.Time) ([]providers.GitHubPullRequest, error)
	OrgRepos(ctx context.Context) ([]string, error)
	RepoCommits(ctx context.Context, username, repo string, since time.Time) ([]providers.GitHubCommit, error)
}

type Service struct {
	db       *gorm.DB
	cfg      *config.Config
	ledger   *ledger.Service
	streaks  *streaks.Service
	badges   *badges.Service
	tracker  TrackerProvider
	host     HostProvider
	notifier notifier.Notifier

	mu        sync.Mutex
	userLocks map[uint]*sync.Mutex
}

func NewService(db *gorm.DB, cfg *config.Config, ledgerSvc *ledger.Service, streakSvc *streaks.Service, badgeSvc *badges.Service, tracker TrackerProvider, host HostProvider, n notifier.Notifier) *Service {
	return &Service{
		db:        db,
		cfg:       cfg,
		ledger:    ledgerSvc,
		streaks:   streakSvc,
		badges:    badgeSvc,
		tracker:   tracker,
		host:      host,
		notifier:  n,
		userLocks: make(map[uint]*sync.Mutex),
	}
}

// SyncUserActivities runs a full refresh cycle for one user. Syncs for the
// same user are serialized so streak and badge reads never interleave with a
// concurrent batch of ledger writes. Provider failures degrade to empty
// categories; ledger, streak, and badge failures are fatal to their step and
// propagate.
func (s *Service) SyncUserActivities(ctx context.Context, userID uint) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("load user %d: %w", userID, err)
	}

	since := time.Now().AddDate(0, 0, -s.cfg.SyncLookbackDays)

	// The two upstreams are independent; fetch them concurrently.
	var wg sync.WaitGroup
	var trackerCandidates, hostCandidates []ledger.Candidate
	if user.JiraAccountID != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			trackerCandidates = s.collectTracker(ctx, user, since)
		}()
	}
	if user.GithubUsername != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hostCandidates = s.collectHost(ctx, user, since)
		}()
	}
	wg.Wait()

	for _, candidate := range append(trackerCandidates, hostCandidates...) {
		if _, err := s.ledger.RecordIfNew(candidate); err != nil {
			return fmt.Errorf("record %s/%s: %w", candidate.Source, candidate.SourceID, err)
		}
	}

	if err := s.streaks.Update(userID); err != nil {
		return fmt.Errorf("update streaks: %w", err)
	}

	newBadges, err := s.badges.CheckAndAward(userID)
	if err != nil {
		return fmt.Errorf("check badges: %w", err)
	}

	s.announce(user, newBadges)
	return nil
}

// collectTracker maps resolved bugs to bug_fixed candidates. Any upstream
// failure degrades the whole category to empty.
func (s *Service) collectTracker(ctx context.Context, user models.User, since time.Time) []ledger.Candidate {
	bugs, err := s.tracker.ResolvedBugs(ctx, user.JiraAccountID, since)
	if err != nil {
		logrus.WithError(err).Warn("Skipping tracker activities")
		return nil
	}

	var candidates []ledger.Candidate
	for _, bug := range bugs {
		resolvedAt, err := bug.UpdatedTime()
		if err != nil {
			logrus.WithError(err).Warnf("Skipping bug %s: bad timestamp", bug.Key)
			continue
		}

		metadata := map[string]string{"summary": bug.Fields.Summary}
		if bug.Fields.Resolution != nil {
			metadata["resolution"] = bug.Fields.Resolution.Name
		}

		candidates = append(candidates, ledger.Candidate{
			UserID:       user.ID,
			ActivityType: models.ActivityBugFixed,
			Source:       models.SourceJira,
			SourceID:     bug.Key,
			SourceURL:    s.tracker.BrowseURL(bug.Key),
			Metadata:     metadata,
			ActivityDate: resolvedAt,
		})
	}
	return candidates
}

// collectHost maps reviews, merges, and commits to candidates. Each category
// degrades independently, so a failed search never hides the others.
func (s *Service) collectHost(ctx context.Context, user models.User, since time.Time) []ledger.Candidate {
	var candidates []ledger.Candidate

	reviewed, err := s.host.ReviewedPullRequests(ctx, user.GithubUsername, since)
	if err != nil {
		logrus.WithError(err).Warn("Skipping host review activities")
	}
	for _, pr := range reviewed {
		candidates = append(candidates, ledger.Candidate{
			UserID:       user.ID,
			ActivityType: models.ActivityPRReviewed,
			Source:       models.SourceGitHub,
			SourceID:     fmt.Sprintf("%d", pr.Number),
			SourceURL:    pr.HTMLURL,
			Metadata:     map[string]string{"title": pr.Title, "state": pr.State},
			ActivityDate: pr.UpdatedAt,
		})
	}

	merged, err := s.host.MergedPullRequests(ctx, user.GithubUsername, since)
	if err != nil {
		logrus.WithError(err).Warn("Skipping host merge activities")
	}
	for _, pr := range merged {
		candidates = append(candidates, ledger.Candidate{
			UserID:       user.ID,
			ActivityType: models.ActivityPRMerged,
			Source:       models.SourceGitHub,
			SourceID:     fmt.Sprintf("%d", pr.Number),
			SourceURL:    pr.HTMLURL,
			Metadata:     map[string]string{"title": pr.Title},
			ActivityDate: pr.UpdatedAt,
		})
	}

	repos, err := s.host.OrgRepos(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Skipping host commit activities")
		return candidates
	}
	// Bounded fan-out: scanning every org repo per sync is too expensive, so
	// only the first SyncRepoLimit repos are searched for commits.
	if limit := s.cfg.SyncRepoLimit; limit > 0 && len(repos) > limit {
		repos = repos[:limit]
	}
	for _, repo := range repos {
		commits, err := s.host.RepoCommits(ctx, user.GithubUsername, repo, since)
		if err != nil {
			logrus.WithError(err).Warnf("Skipping commits for repo %s", repo)
			continue
		}
		for _, commit := range commits {
			candidates = append(candidates, ledger.Candidate{
				UserID:       user.ID,
				ActivityType: models.ActivityCommit,
				Source:       models.SourceGitHub,
				SourceID:     commit.SHA,
				SourceURL:    commit.HTMLURL,
				Metadata:     map[string]string{"message": commit.Commit.Message, "repo": repo},
				ActivityDate: commit.Commit.Author.Date,
			})
		}
	}

	return candidates
}

func (s *Service) announce(user models.User, newBadges []models.Badge) {
	if s.notifier == nil {
		return
	}
	for _, badge := range newBadges {
		if err := s.notifier.NotifyBadgeAward(user, badge); err != nil {
			// Awards are already committed; the announcement is best effort.
			logrus.WithError(err).Warnf("Failed to announce badge %q", badge.Name)
		}
	}
}

func (s *Service) userLock(userID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}
