package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/charmbracelet/log"
	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/hermes/pkg/config"
	herrors "github.com/matzehuels/hermes/pkg/errors"
	"github.com/matzehuels/hermes/pkg/model"
	"github.com/matzehuels/hermes/pkg/plugin"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/softwarepub/hermes":
			json.NewEncoder(w).Encode(map[string]any{
				"name":        "hermes",
				"full_name":   "softwarepub/hermes",
				"description": "Automated publication of research software",
				"html_url":    "https://github.com/softwarepub/hermes",
				"license":     map[string]string{"spdx_id": "Apache-2.0"},
				"topics":      []string{"fair", "metadata"},
				"language":    "Python",
			})
		case "/repos/softwarepub/hermes/releases/latest":
			json.NewEncoder(w).Encode(map[string]any{
				"tag_name":     "v0.9.0",
				"published_at": "2024-03-01T10:00:00Z",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newEnv(t *testing.T, dir, apiURL, repository string) *plugin.Env {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.GitHub.APIURL = apiURL
	cfg.GitHub.Repository = repository
	return &plugin.Env{Dir: dir, Config: cfg, Logger: log.New(os.Stderr)}
}

func run(t *testing.T, env *plugin.Env) (*model.HarvestContext, error) {
	h := model.NewHarvestContext(model.NewContext(nil, nil), Plugin.Name)
	return h, Harvest(context.Background(), env, h)
}

func get(t *testing.T, h *model.HarvestContext, path string) string {
	t.Helper()
	v, err := h.Get(model.MustParsePath(path))
	require.NoError(t, err, path)
	return v.String()
}

func TestHarvestConfiguredRepository(t *testing.T) {
	srv := newServer(t)
	h, err := run(t, newEnv(t, t.TempDir(), srv.URL, "softwarepub/hermes"))
	require.NoError(t, err)

	assert.Equal(t, `"Apache-2.0"`, get(t, h, "license"))
	assert.Equal(t, `"0.9.0"`, get(t, h, "version"))
	assert.Equal(t, `"2024-03-01"`, get(t, h, "datePublished"))
	assert.Equal(t, `["fair","metadata"]`, get(t, h, "keywords"))
	assert.Equal(t, `"https://github.com/softwarepub/hermes"`, get(t, h, "codeRepository"))
}

func TestHarvestFromOrigin(t *testing.T) {
	srv := newServer(t)
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{"https://github.com/softwarepub/hermes.git"},
	})
	require.NoError(t, err)

	h, err := run(t, newEnv(t, dir, srv.URL, ""))
	require.NoError(t, err)
	assert.Equal(t, `"Python"`, get(t, h, "programmingLanguage"))
}

func TestHarvestNoRepository(t *testing.T) {
	h, err := run(t, newEnv(t, t.TempDir(), "http://127.0.0.1:0", ""))
	require.NoError(t, err)
	assert.Empty(t, h.Keys())
}

func TestHarvestInvalidRepository(t *testing.T) {
	_, err := run(t, newEnv(t, t.TempDir(), "http://127.0.0.1:0", "not-a-ref"))
	assert.True(t, herrors.Is(err, herrors.ErrCodeInvalidInput), "got %v", err)
}
