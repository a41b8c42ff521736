// Package github is a minimal GitHub REST API v3 client covering the three
// capabilities the discovery pipeline needs: repository search, repository
// metadata, and raw file content. Every call carries a timeout and decodes
// into typed structs; repository metadata is served through a TTL cache to
// stay inside the search API's secondary rate limits.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mcpdex/mcpdex/internal/cachemanager"
	"github.com/mcpdex/mcpdex/internal/log"
)

const (
	defaultBaseURL = "https://api.github.com"
	defaultTimeout = 15 * time.Second

	// repoCacheTTL bounds how stale cached repository metadata may get
	// within a run. Star/fork drift inside this window is acceptable.
	repoCacheTTL = 10 * time.Minute
)

// ErrNotFound is returned when the API answers 404 for a resource.
var ErrNotFound = errors.New("github: not found")

// RateLimitError is returned when the API answers 403/429 with a rate-limit
// signal. Callers treat it like any other fetch failure; it exists as a type
// so logs can distinguish throttling from genuine errors.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	if e.ResetAt.IsZero() {
		return "github: rate limited"
	}
	return fmt.Sprintf("github: rate limited until %s", e.ResetAt.Format(time.RFC3339))
}

// Config holds client construction options.
type Config struct {
	// Token is the API token used for authenticated requests. Empty means
	// unauthenticated (60 req/h, fine for tests).
	Token string
	// BaseURL overrides the API host, used by tests. Default: https://api.github.com
	BaseURL string
	// Timeout applies per request. Default: 15s.
	Timeout time.Duration
	// SkipCache disables the repository metadata cache.
	SkipCache bool
}

// Client talks to the GitHub REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	repoCache  *cachemanager.ReadThroughCache[string, *Repo, RepoRef]
}

// NewClient creates a GitHub API client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
	}

	repoCache := cachemanager.NewInMemoryCacheManager[string, *Repo](
		"github-repo", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	c.repoCache = cachemanager.NewReadThroughCache(repoCache, c.fetchRepository, cfg.SkipCache)

	return c
}

// SearchRepositories runs a repository search query and returns the refs of
// every repository on the first page of results.
func (c *Client) SearchRepositories(ctx context.Context, query string, perPage int) ([]RepoRef, error) {
	if perPage <= 0 || perPage > 100 {
		perPage = 100
	}

	endpoint := fmt.Sprintf("%s/search/repositories?q=%s&per_page=%d",
		c.baseURL, url.QueryEscape(query), perPage)

	var result searchResponse
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, fmt.Errorf("searching repositories for %q: %w", query, err)
	}

	refs := make([]RepoRef, 0, len(result.Items))
	for _, item := range result.Items {
		refs = append(refs, RepoRef{Owner: item.RepoOwner.Login, Name: item.Name})
	}

	log.Debug(log.CatGitHub, "search complete", "query", query, "results", len(refs), "total", result.TotalCount)
	return refs, nil
}

// GetRepository fetches repository metadata, served through the TTL cache.
func (c *Client) GetRepository(ctx context.Context, ref RepoRef) (*Repo, error) {
	return c.repoCache.Get(ctx, ref.String(), ref, repoCacheTTL)
}

func (c *Client) fetchRepository(ctx context.Context, ref RepoRef) (*Repo, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, ref.Owner, ref.Name)

	var result repoResponse
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, fmt.Errorf("fetching repository %s: %w", ref, err)
	}
	return result.toRepo(), nil
}

// GetFileContent fetches a file's raw bytes via the contents API.
func (c *Client) GetFileContent(ctx context.Context, ref RepoRef, path string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, ref.Owner, ref.Name, path)

	var result contentResponse
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, fmt.Errorf("fetching %s from %s: %w", path, ref, err)
	}
	if result.Type != "" && result.Type != "file" {
		return nil, fmt.Errorf("fetching %s from %s: not a file (type %q)", path, ref, result.Type)
	}

	// The contents API base64-encodes with embedded newlines.
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(result.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("decoding %s from %s: %w", path, ref, err)
	}
	return raw, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining == "0" || resp.StatusCode == http.StatusTooManyRequests {
			rlErr := &RateLimitError{ResetAt: parseResetHeader(resp.Header.Get("X-RateLimit-Reset"))}
			log.Warn(log.CatGitHub, "rate limited", "endpoint", endpoint, "resetAt", rlErr.ResetAt)
			return rlErr
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func parseResetHeader(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	epoch, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(epoch, 0)
}
