package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	herrors "github.com/matzehuels/hermes/pkg/errors"
	"github.com/matzehuels/hermes/pkg/httputil"
	"github.com/matzehuels/hermes/pkg/integrations"
)

func newTestServer(t *testing.T, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls != nil {
			*calls++
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}

		switch r.URL.Path {
		case "/repos/owner/repo":
			json.NewEncoder(w).Encode(map[string]any{
				"name":        "repo",
				"full_name":   "owner/repo",
				"description": "A research tool",
				"homepage":    "https://repo.example.org",
				"html_url":    "https://github.com/owner/repo",
				"license":     map[string]string{"spdx_id": "MIT"},
				"topics":      []string{"fair", "metadata"},
			})
		case "/repos/owner/repo/releases/latest":
			w.WriteHeader(http.StatusNotFound)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestClient_Fetch(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()

	c := NewClient("test-token", nil, WithBaseURL(server.URL))

	repo, err := c.Fetch(context.Background(), "owner", "repo", true)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	if repo.License != "MIT" {
		t.Errorf("License = %q, want MIT", repo.License)
	}
	if repo.Homepage != "https://repo.example.org" {
		t.Errorf("Homepage = %q", repo.Homepage)
	}
	if len(repo.Topics) != 2 {
		t.Errorf("Topics = %v", repo.Topics)
	}
	if repo.Release != nil {
		t.Errorf("Release = %+v, want nil", repo.Release)
	}
}

func TestClient_FetchCached(t *testing.T) {
	calls := 0
	server := newTestServer(t, &calls)
	defer server.Close()

	cache, err := httputil.NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient("test-token", cache, WithBaseURL(server.URL))

	for range 2 {
		if _, err := c.Fetch(context.Background(), "owner", "repo", false); err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
	}
	if calls != 2 {
		t.Errorf("server calls = %d, want 2 (second fetch served from cache)", calls)
	}
}

func TestClient_FetchNotFound(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()

	c := NewClient("test-token", nil, WithBaseURL(server.URL))
	_, err := c.Fetch(context.Background(), "owner", "missing", true)
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("Fetch() error = %v, want ErrNotFound", err)
	}
}

func TestClient_FetchInvalidRef(t *testing.T) {
	c := NewClient("", nil)
	_, err := c.Fetch(context.Background(), "-bad", "repo", false)
	if !herrors.Is(err, herrors.ErrCodeInvalidInput) {
		t.Errorf("Fetch() error = %v, want INVALID_INPUT", err)
	}
}

func TestExtractURL(t *testing.T) {
	tests := []struct {
		urls      map[string]string
		home      string
		wantOwner string
		wantRepo  string
		wantOK    bool
	}{
		{
			urls:      map[string]string{"Source": "https://github.com/foo/bar"},
			wantOwner: "foo",
			wantRepo:  "bar",
			wantOK:    true,
		},
		{
			urls:      map[string]string{"codeRepository": "https://github.com/foo/bar.git"},
			wantOwner: "foo",
			wantRepo:  "bar",
			wantOK:    true,
		},
		{
			urls:      nil,
			home:      "http://github.com/baz/qux",
			wantOwner: "baz",
			wantRepo:  "qux",
			wantOK:    true,
		},
		{
			urls:   map[string]string{"Homepage": "https://google.com"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		owner, repo, ok := ExtractURL(tt.urls, tt.home)
		if ok != tt.wantOK {
			t.Errorf("got ok=%v, want %v", ok, tt.wantOK)
		}
		if ok {
			if owner != tt.wantOwner {
				t.Errorf("got owner %s, want %s", owner, tt.wantOwner)
			}
			if repo != tt.wantRepo {
				t.Errorf("got repo %s, want %s", repo, tt.wantRepo)
			}
		}
	}
}

func TestNewClient(t *testing.T) {
	c := NewClient("test-token", nil)
	if c.Client == nil {
		t.Error("expected client to be initialized")
	}
	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
	}
	if got := NewClient("", nil, WithBaseURL("http://localhost/")).baseURL; got != "http://localhost" {
		t.Errorf("WithBaseURL baseURL = %q", got)
	}
}
