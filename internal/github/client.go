// Package github fetches public repository metadata from the GitHub
// REST API for template enrichment.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sproutapp/sprout/internal/match"
)

const (
	defaultBaseURL = "https://api.github.com"
	requestTimeout = 10 * time.Second

	// Unauthenticated clients get 60 requests/hour from GitHub; the
	// limiter keeps bursts polite rather than enforcing the quota.
	requestsPerSecond = 5
	burstSize         = 10

	maxBodyBytes = 1 << 20 // 1 MiB
)

// ErrNotRepoURL is returned when a template URL does not point at a
// GitHub repository.
var ErrNotRepoURL = errors.New("not a github repository url")

// Client talks to the GitHub REST API. The zero value is not usable;
// construct with NewClient.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken authenticates requests, raising the rate limit.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithBaseURL overrides the API endpoint. Used in tests.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a GitHub API client.
func NewClient(logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    defaultBaseURL,
		limiter:    rate.NewLimiter(requestsPerSecond, burstSize),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// repoResponse is the subset of the GitHub repository payload we use.
type repoResponse struct {
	FullName    string    `json:"full_name"`
	Description string    `json:"description"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	Language    string    `json:"language"`
	Topics      []string  `json:"topics"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Fetch retrieves repository metadata for a template URL. Satisfies
// match.MetadataFetcher.
func (c *Client) Fetch(ctx context.Context, templateURL string) (*match.RepoMetadata, error) {
	repoPath, err := ParseRepoPath(templateURL)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/repos/"+repoPath, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching repository %s: %w", repoPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("github api returned %d for %s", resp.StatusCode, repoPath)
	}

	var repo repoResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&repo); err != nil {
		return nil, fmt.Errorf("decoding repository %s: %w", repoPath, err)
	}

	return &match.RepoMetadata{
		FullName:    repo.FullName,
		Description: repo.Description,
		Stars:       repo.Stars,
		Forks:       repo.Forks,
		Language:    repo.Language,
		Topics:      repo.Topics,
		CreatedAt:   repo.CreatedAt,
		UpdatedAt:   repo.UpdatedAt,
	}, nil
}

// ParseRepoPath extracts "owner/repo" from a GitHub repository URL.
// Trailing ".git" and deeper paths (tree, blob) are tolerated.
func ParseRepoPath(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotRepoURL, err)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	if host != "github.com" {
		return "", fmt.Errorf("%w: host %q", ErrNotRepoURL, u.Host)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("%w: path %q", ErrNotRepoURL, u.Path)
	}
	return parts[0] + "/" + strings.TrimSuffix(parts[1], ".git"), nil
}
