package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/hermes/pkg/model"
	"github.com/matzehuels/hermes/pkg/plugin"
)

func commit(t *testing.T, repo *gogit.Repository, dir, name, email string, when time.Time) {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	file := filepath.Join(dir, "CHANGES")
	f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(name + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = wt.Add("CHANGES")
	require.NoError(t, err)
	sig := &object.Signature{Name: name, Email: email, When: when}
	_, err = wt.Commit("change by "+name, &gogit.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)
}

func run(t *testing.T, dir string) *model.HarvestContext {
	t.Helper()
	env := &plugin.Env{Dir: dir, Logger: log.New(os.Stderr)}
	h := model.NewHarvestContext(model.NewContext(nil, nil), Plugin.Name)
	require.NoError(t, Harvest(context.Background(), env, h))
	return h
}

func TestHarvest(t *testing.T) {
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{"git@github.com:softwarepub/hermes.git"},
	})
	require.NoError(t, err)

	base := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	commit(t, repo, dir, "Jane Doe", "jane@example.org", base)
	commit(t, repo, dir, "Max Mustermann", "max@example.org", base.Add(24*time.Hour))
	commit(t, repo, dir, "Jane Doe", "JANE@example.org", base.Add(48*time.Hour))

	// Harvesting from a subdirectory finds the repository root.
	sub := filepath.Join(dir, "docs")
	require.NoError(t, os.Mkdir(sub, 0o755))
	h := run(t, sub)

	got, err := h.Get(model.MustParsePath("contributor"))
	require.NoError(t, err)
	assert.Equal(t,
		`[{"@type":"Person","name":"Jane Doe","email":"jane@example.org"},{"@type":"Person","name":"Max Mustermann","email":"max@example.org"}]`,
		got.String())

	modified, err := h.Get(model.MustParsePath("dateModified"))
	require.NoError(t, err)
	assert.Equal(t, `"2023-01-03"`, modified.String())

	repoURL, err := h.Get(model.MustParsePath("codeRepository"))
	require.NoError(t, err)
	assert.Equal(t, `"https://github.com/softwarepub/hermes"`, repoURL.String())
}

func TestHarvestNoRepository(t *testing.T) {
	assert.Empty(t, run(t, t.TempDir()).Keys())
}

func TestHarvestEmptyRepository(t *testing.T) {
	dir := t.TempDir()
	_, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	assert.Empty(t, run(t, dir).Keys())
}

func TestOpen(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.ErrorIs(t, err, ErrNoRepository)
}

func TestHistoryRepeatAuthors(t *testing.T) {
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	base := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	authors := []string{"Ada", "Bob", "Ada", "Cy", "Bob", "Ada", "Cy", "Bob"}
	for i, name := range authors {
		commit(t, repo, dir, name, "", base.Add(time.Duration(i)*time.Hour))
	}
	head, err := repo.Head()
	require.NoError(t, err)

	people, modified, err := history(context.Background(), repo, head.Hash())
	require.NoError(t, err)
	var names []string
	for _, p := range people {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Ada", "Bob", "Cy"}, names)
	assert.True(t, modified.Equal(base.Add(7*time.Hour)))
}
