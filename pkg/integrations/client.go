package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	herrors "github.com/matzehuels/hermes/pkg/errors"
	"github.com/matzehuels/hermes/pkg/httputil"
	"github.com/matzehuels/hermes/pkg/observability"
)

// maxErrorBody bounds how much of an error response is quoted in errors.
const maxErrorBody = 1024

// Client provides shared HTTP functionality for the API clients.
// It handles caching, retry logic, common request headers and hooks.
type Client struct {
	http    *http.Client
	cache   *httputil.Cache
	headers map[string]string
	hooks   observability.Hooks
}

// NewClient creates a Client with the given cache and default headers.
// Headers are applied to all requests made through this client.
// cache and headers may be nil.
func NewClient(cache *httputil.Cache, headers map[string]string) *Client {
	return &Client{
		http:    NewHTTPClient(),
		cache:   cache,
		headers: headers,
		hooks:   observability.Noop(),
	}
}

// WithHooks sets the hooks notified about requests and cache use.
func (c *Client) WithHooks(h observability.Hooks) *Client {
	c.hooks = h.WithDefaults()
	return c
}

// SetHeader sets a default header for all following requests.
func (c *Client) SetHeader(key, value string) {
	if c.headers == nil {
		c.headers = make(map[string]string)
	}
	c.headers[key] = value
}

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored in the cache.
// Without a cache, fetch is called with retries and nothing is stored.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	if c.cache != nil && !refresh {
		if ok, _ := c.cache.Get(key, v); ok {
			c.hooks.Cache.OnCacheHit(ctx, key)
			return nil
		}
		c.hooks.Cache.OnCacheMiss(ctx, key)
	}
	if err := httputil.RetryWithBackoff(ctx, fetch); err != nil {
		return err
	}
	if c.cache != nil {
		if err := c.cache.Set(key, v); err == nil {
			c.hooks.Cache.OnCacheSet(ctx, key)
		}
	}
	return nil
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	body, err := c.do(ctx, http.MethodGet, url, nil, headers)
	if err != nil {
		return err
	}
	defer body.Close()
	return decode(body, v)
}

// PostJSON sends in as a JSON body and decodes the response into out.
// A nil in sends an empty body; a nil out discards the response.
// POST is not idempotent, so it is attempted once.
func (c *Client) PostJSON(ctx context.Context, url string, in, out any) error {
	var body io.Reader
	headers := map[string]string{}
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
		headers["Content-Type"] = "application/json"
	}

	resp, err := c.do(ctx, http.MethodPost, url, body, headers)
	if err != nil {
		return unwrapRetryable(err)
	}
	defer resp.Close()
	return decode(resp, out)
}

// PutFile uploads the file at path as the request body and decodes the
// response into out. The upload is retried on transient failures; the
// file is reopened for every attempt.
func (c *Client) PutFile(ctx context.Context, url, path string, out any) error {
	headers := map[string]string{"Content-Type": "application/octet-stream"}
	return httputil.RetryWithBackoff(ctx, func() error {
		f, err := os.Open(path)
		if err != nil {
			return herrors.Wrap(herrors.ErrCodeFileNotFound, err, "open %s", path)
		}
		defer f.Close()

		resp, err := c.do(ctx, http.MethodPut, url, f, headers)
		if err != nil {
			return err
		}
		defer resp.Close()
		return decode(resp, out)
	})
}

func (c *Client) do(ctx context.Context, method, rawURL string, body io.Reader, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, herrors.Wrap(herrors.ErrCodeInvalidInput, err, "build %s request", method)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	host, path := hostPath(req.URL)
	c.hooks.HTTP.OnRequest(ctx, method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.hooks.HTTP.OnError(ctx, method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	c.hooks.HTTP.OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusUnauthorized:
		return herrors.Wrap(herrors.ErrCodeUnauthorized, ErrNetwork, "status %d: %s", code, errorBody(resp))
	case code == http.StatusForbidden:
		return herrors.Wrap(herrors.ErrCodeForbidden, ErrNetwork, "status %d: %s", code, errorBody(resp))
	case code == http.StatusTooManyRequests:
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &httputil.RetryableError{Err: &herrors.RateLimitedError{RetryAfter: secs}}
	case code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d: %s", ErrNetwork, code, errorBody(resp))
	}
}

func errorBody(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return strings.TrimSpace(string(data))
}

func decode(r io.Reader, v any) error {
	if v == nil {
		_, err := io.Copy(io.Discard, r)
		return err
	}
	return json.NewDecoder(r).Decode(v)
}

func hostPath(u *url.URL) (string, string) {
	if u == nil {
		return "", ""
	}
	return u.Host, u.Path
}

// unwrapRetryable strips the retry marker from errors of single-shot
// requests so callers see the underlying cause.
func unwrapRetryable(err error) error {
	if re, ok := err.(*httputil.RetryableError); ok {
		return re.Err
	}
	return err
}
