// Package providers adapts the two upstream systems of record (Jira and
// GitHub) into normalized candidate events. Every call returns (records, err);
// the sync orchestrator treats an error as an empty category, so a failed
// upstream call can degrade a sync but never abort it.
package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/devpulse/devpulse-api/internal/config"
)

// ErrUpstreamUnavailable wraps any provider call failure (network, auth, rate
// limit). Callers degrade to empty data, they do not surface it.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

const jiraTimeLayout = "2006-01-02T15:04:05.000-0700"

type JiraClient struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
}

func NewJiraClient(cfg *config.Config) *JiraClient {
	credentials := base64.StdEncoding.EncodeToString([]byte(cfg.JiraEmail + ":" + cfg.JiraAPIToken))
	return &JiraClient{
		baseURL:    strings.TrimRight(cfg.JiraBaseURL, "/"),
		authHeader: "Basic " + credentials,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type JiraIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary    string `json:"summary"`
		Updated    string `json:"updated"`
		Resolution *struct {
			Name string `json:"name"`
		} `json:"resolution"`
	} `json:"fields"`
}

// UpdatedTime parses the issue's updated timestamp. Jira cloud emits
// millisecond offsets; RFC3339 is accepted as a fallback.
func (i JiraIssue) UpdatedTime() (time.Time, error) {
	if t, err := time.Parse(jiraTimeLayout, i.Fields.Updated); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, i.Fields.Updated)
}

// ResolvedBugs searches for bugs assigned to the account that were resolved
// since the given date.
func (c *JiraClient) ResolvedBugs(ctx context.Context, accountID string, since time.Time) ([]JiraIssue, error) {
	jql := fmt.Sprintf("assignee = %q AND issuetype = Bug AND status = Done AND resolved >= %s",
		accountID, since.Format("2006-01-02"))

	params := url.Values{}
	params.Set("jql", jql)
	params.Set("fields", "key,summary,resolution,updated")
	params.Set("maxResults", "100")

	var result struct {
		Issues []JiraIssue `json:"issues"`
	}
	if err := c.get(ctx, "/rest/api/3/search", params, &result); err != nil {
		return nil, err
	}
	return result.Issues, nil
}

// BrowseURL is the user-facing link for an issue key.
func (c *JiraClient) BrowseURL(key string) string {
	return c.baseURL + "/browse/" + key
}

func (c *JiraClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: jira %s: %v", ErrUpstreamUnavailable, path, err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: jira %s: %v", ErrUpstreamUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: jira %s returned %s", ErrUpstreamUnavailable, path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: jira %s: %v", ErrUpstreamUnavailable, path, err)
	}
	return nil
}
