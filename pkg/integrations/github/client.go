package github

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/matzehuels/hermes/pkg/httputil"
	"github.com/matzehuels/hermes/pkg/integrations"
	"github.com/matzehuels/hermes/pkg/observability"
)

// DefaultBaseURL is the public GitHub REST API.
const DefaultBaseURL = "https://api.github.com"

var repoURLPattern = regexp.MustCompile(`https?://github\.com/([^/]+)/([^/]+?)(?:\.git)?(?:[/?#]|$)`)

// Client provides access to the GitHub API for repository metadata.
// It handles HTTP requests with caching, automatic retries, and optional authentication.
type Client struct {
	*integrations.Client
	baseURL string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, such as a GitHub
// Enterprise instance or a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHooks sets the hooks notified about requests and cache use.
func WithHooks(h observability.Hooks) Option {
	return func(c *Client) { c.Client.WithHooks(h) }
}

// NewClient creates a GitHub API client with optional authentication.
// Pass an empty string for token to use unauthenticated requests (lower
// rate limits). cache may be nil to disable response caching.
func NewClient(token string, cache *httputil.Cache, opts ...Option) *Client {
	headers := map[string]string{"Accept": "application/vnd.github+json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	if cache != nil {
		cache = cache.Namespace("github:")
	}

	c := &Client{
		Client:  integrations.NewClient(cache, headers),
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves repository metadata together with the latest release.
// A repository without releases is not an error.
// If refresh is true, cached data is bypassed.
func (c *Client) Fetch(ctx context.Context, owner, repo string, refresh bool) (*Repository, error) {
	if err := ValidateRepoRef(owner, repo); err != nil {
		return nil, err
	}

	var r Repository
	err := c.Cached(ctx, owner+"/"+repo, refresh, &r, func() error {
		return c.fetchRepository(ctx, owner, repo, &r)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) fetchRepository(ctx context.Context, owner, repo string, r *Repository) error {
	data, err := c.fetchRepo(ctx, owner, repo)
	if err != nil {
		return err
	}

	*r = Repository{
		Owner:         owner,
		Name:          data.Name,
		FullName:      data.FullName,
		Description:   data.Description,
		Homepage:      data.Homepage,
		HTMLURL:       data.HTMLURL,
		License:       data.License.SPDXID,
		Language:      data.Language,
		Topics:        data.Topics,
		Archived:      data.Archived,
		DefaultBranch: data.DefaultBranch,
		PushedAt:      data.PushedAt,
	}
	if r.License == "NOASSERTION" {
		r.License = ""
	}
	if rel, err := c.fetchRelease(ctx, owner, repo); err == nil {
		r.Release = &Release{Tag: rel.TagName, Name: rel.Name, PublishedAt: rel.PublishedAt}
	} else if !errors.Is(err, integrations.ErrNotFound) {
		return err
	}
	return nil
}

func (c *Client) fetchRepo(ctx context.Context, owner, repo string) (*apiRepoResponse, error) {
	var data apiRepoResponse
	url := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, repo)
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: github repo %s/%s", err, owner, repo)
		}
		return nil, err
	}
	return &data, nil
}

func (c *Client) fetchRelease(ctx context.Context, owner, repo string) (*apiReleaseResponse, error) {
	var data apiReleaseResponse
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, owner, repo)
	if err := c.Get(ctx, url, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ExtractURL finds a GitHub owner and repository among urls and homepage.
func ExtractURL(urls map[string]string, homepage string) (owner, repo string, ok bool) {
	return integrations.ExtractRepoURL(repoURLPattern, urls, homepage)
}
