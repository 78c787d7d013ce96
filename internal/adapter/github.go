package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/amishk599/autojob/internal/model"
)

const (
	githubResultCount   = 3
	githubFallbackCount = 5
)

// githubRepoPattern matches repository roots only, not issues or pulls.
var githubRepoPattern = regexp.MustCompile(`github\.com/([^/]+)/([^/?#]+)$`)

// ErrGitHubRateLimited is returned when the search API answers 403.
var ErrGitHubRateLimited = errors.New("github api rate limit exceeded")

type githubSearchResponse struct {
	Items []githubRepo `json:"items"`
}

type githubRepo struct {
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
}

// Ensure GitHubSearcher implements model.RepoSearcher.
var _ model.RepoSearcher = (*GitHubSearcher)(nil)

// GitHubSearcher finds the top repositories for a keyword string using the
// GitHub search API, falling back to a site:github.com web search.
type GitHubSearcher struct {
	apiURL   string
	token    string
	client   *http.Client
	fallback model.WebSearcher
	logger   *slog.Logger
}

// NewGitHubSearcher creates a searcher. token may be empty; fallback may be nil
// to disable the web search fallback.
func NewGitHubSearcher(apiURL, token string, client *http.Client, fallback model.WebSearcher, logger *slog.Logger) *GitHubSearcher {
	return &GitHubSearcher{
		apiURL:   strings.TrimRight(apiURL, "/"),
		token:    token,
		client:   client,
		fallback: fallback,
		logger:   logger,
	}
}

// SearchRepos returns up to three repositories. An API answer with no items
// yields zero repos and no error.
func (s *GitHubSearcher) SearchRepos(ctx context.Context, keywords string) ([]model.Repo, error) {
	repos, apiErr := s.searchAPI(ctx, keywords)
	if apiErr == nil {
		return repos, nil
	}
	if s.fallback == nil || ctx.Err() != nil {
		return nil, fmt.Errorf("search github repositories for '%s': %w", keywords, apiErr)
	}

	s.logger.Warn("github api search failed, falling back to web search", "keywords", keywords, "error", apiErr)

	repos, webErr := s.searchWeb(ctx, keywords)
	if webErr != nil {
		return nil, fmt.Errorf("search github repositories for '%s': github api error: %v; web search fallback error: %w",
			keywords, apiErr, webErr)
	}
	return repos, nil
}

func (s *GitHubSearcher) searchAPI(ctx context.Context, keywords string) ([]model.Repo, error) {
	params := url.Values{}
	params.Set("q", keywords)
	params.Set("sort", "stars")
	params.Set("order", "desc")
	params.Set("per_page", fmt.Sprint(githubResultCount))
	endpoint := s.apiURL + "/search/repositories?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("github api request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        ErrGitHubRateLimited,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp, "github api search")
	}

	var body githubSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("github api decode: %w", err)
	}

	repos := make([]model.Repo, 0, len(body.Items))
	for _, item := range body.Items {
		if len(repos) == githubResultCount {
			break
		}
		name := item.FullName
		if name == "" {
			name = "unknown"
		}
		repos = append(repos, model.Repo{FullName: name, URL: item.HTMLURL})
	}
	return repos, nil
}

func (s *GitHubSearcher) searchWeb(ctx context.Context, keywords string) ([]model.Repo, error) {
	results, err := s.fallback.Search(ctx, "site:github.com "+keywords, githubFallbackCount)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no search results found for keywords '%s'", keywords)
	}

	var repos []model.Repo
	for _, r := range results {
		m := githubRepoPattern.FindStringSubmatch(r.URL)
		if m == nil {
			continue
		}
		owner, name := m[1], m[2]
		repos = append(repos, model.Repo{
			FullName: owner + "/" + name,
			URL:      "https://github.com/" + owner + "/" + name,
		})
		if len(repos) == githubResultCount {
			break
		}
	}
	if len(repos) == 0 {
		return nil, fmt.Errorf("no github repositories found for keywords '%s'", keywords)
	}
	return repos, nil
}

// FormatRepos renders repositories as "Project: owner/repo\nLink: url" blocks
// separated by a blank line.
func FormatRepos(repos []model.Repo) string {
	blocks := make([]string, len(repos))
	for i, r := range repos {
		blocks[i] = fmt.Sprintf("Project: %s\nLink: %s", r.FullName, r.URL)
	}
	return strings.Join(blocks, "\n\n")
}
