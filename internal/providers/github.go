package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/devpulse/devpulse-api/internal/config"
	"golang.org/x/oauth2"
)

const githubAPIBase = "https://api.github.com"

type GitHubClient struct {
	baseURL      string
	organization string
	httpClient   *http.Client
}

func NewGitHubClient(cfg *config.Config) *GitHubClient {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GithubAPIToken})
	client := oauth2.NewClient(context.Background(), source)
	client.Timeout = 15 * time.Second
	return &GitHubClient{
		baseURL:      githubAPIBase,
		organization: cfg.GithubOrganization,
		httpClient:   client,
	}
}

type GitHubPullRequest struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GitHubCommit struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Commit  struct {
		Message string `json:"message"`
		Author  struct {
			Name  string    `json:"name"`
			Email string    `json:"email"`
			Date  time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// ReviewedPullRequests searches org pull requests the user has reviewed since
// the given date.
func (c *GitHubClient) ReviewedPullRequests(ctx context.Context, username string, since time.Time) ([]GitHubPullRequest, error) {
	query := fmt.Sprintf("reviewed-by:%s created:>=%s type:pr org:%s",
		username, since.Format("2006-01-02"), c.organization)
	return c.searchPullRequests(ctx, query)
}

// MergedPullRequests searches org pull requests the user authored that have
// been merged since the given date.
func (c *GitHubClient) MergedPullRequests(ctx context.Context, username string, since time.Time) ([]GitHubPullRequest, error) {
	query := fmt.Sprintf("author:%s is:merged created:>=%s type:pr org:%s",
		username, since.Format("2006-01-02"), c.organization)
	return c.searchPullRequests(ctx, query)
}

func (c *GitHubClient) searchPullRequests(ctx context.Context, query string) ([]GitHubPullRequest, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", "created")
	params.Set("order", "desc")
	params.Set("per_page", "100")

	var result struct {
		Items []GitHubPullRequest `json:"items"`
	}
	if err := c.get(ctx, "/search/issues", params, &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

// OrgRepos lists the organization's repository names. The sync orchestrator
// caps how many of these get scanned for commits.
func (c *GitHubClient) OrgRepos(ctx context.Context) ([]string, error) {
	params := url.Values{}
	params.Set("type", "all")
	params.Set("per_page", "100")

	var repos []struct {
		Name string `json:"name"`
	}
	if err := c.get(ctx, "/orgs/"+c.organization+"/repos", params, &repos); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(repos))
	for _, repo := range repos {
		names = append(names, repo.Name)
	}
	return names, nil
}

// RepoCommits lists the user's commits in one org repository since the given
// time.
func (c *GitHubClient) RepoCommits(ctx context.Context, username, repo string, since time.Time) ([]GitHubCommit, error) {
	params := url.Values{}
	params.Set("author", username)
	params.Set("since", since.Format(time.RFC3339))
	params.Set("per_page", "100")

	var commits []GitHubCommit
	if err := c.get(ctx, "/repos/"+c.organization+"/"+repo+"/commits", params, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

func (c *GitHubClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: github %s: %v", ErrUpstreamUnavailable, path, err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: github %s: %v", ErrUpstreamUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: github %s returned %s", ErrUpstreamUnavailable, path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: github %s: %v", ErrUpstreamUnavailable, path, err)
	}
	return nil
}
