// Package git harvests contributors and modification dates from the
// history of the project's git repository.
package git

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	herrors "github.com/matzehuels/hermes/pkg/errors"
	"github.com/matzehuels/hermes/pkg/harvest"
	"github.com/matzehuels/hermes/pkg/integrations"
	"github.com/matzehuels/hermes/pkg/model"
	"github.com/matzehuels/hermes/pkg/plugin"
)

// Plugin harvests the git history.
var Plugin = &plugin.Plugin{
	Name:        "git",
	Description: "Contributors and dates from the git history",
	Harvester:   plugin.HarvesterFunc(Harvest),
}

// ErrNoRepository is returned by Open when dir is not inside a git work tree.
var ErrNoRepository = errors.New("not a git repository")

// Open opens the repository containing dir, searching parent directories.
func Open(dir string) (*gogit.Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, herrors.Wrap(herrors.ErrCodeNotFound, ErrNoRepository, "%s", dir)
	}
	if err != nil {
		return nil, herrors.Wrap(herrors.ErrCodeInvalidInput, err, "open git repository at %s", dir)
	}
	return repo, nil
}

// OriginURL returns the first URL of the origin remote in canonical HTTPS
// form, or "" when there is no origin.
func OriginURL(repo *gogit.Repository) string {
	remote, err := repo.Remote(gogit.DefaultRemoteName)
	if err != nil || len(remote.Config().URLs) == 0 {
		return ""
	}
	return integrations.NormalizeRepoURL(remote.Config().URLs[0])
}

// Harvest records the commit authors as contributors, in the order of
// their first commit, the date of the HEAD commit as dateModified and the
// origin remote as codeRepository. Projects outside a git repository and
// repositories without commits contribute nothing.
func Harvest(ctx context.Context, env *plugin.Env, h *model.HarvestContext) error {
	repo, err := Open(env.Dir)
	if errors.Is(err, ErrNoRepository) {
		env.Logger.Warn("project is not a git repository", "dir", env.Dir)
		return nil
	}
	if err != nil {
		return err
	}

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		env.Logger.Warn("git repository has no commits")
		return nil
	}
	if err != nil {
		return herrors.Wrap(herrors.ErrCodeInvalidInput, err, "resolve HEAD")
	}

	contributors, modified, err := history(ctx, repo, head.Hash())
	if err != nil {
		return err
	}

	if err := harvest.SetString(h, "dateModified", modified.UTC().Format(time.DateOnly)); err != nil {
		return err
	}
	if u := OriginURL(repo); strings.HasPrefix(u, "https://") {
		if err := harvest.SetString(h, "codeRepository", u); err != nil {
			return err
		}
	}
	for i, p := range contributors {
		if err := harvest.Set(h, fmt.Sprintf("contributor[%d]", i), p.Value()); err != nil {
			return err
		}
	}
	env.Logger.Debug("harvested git history", "contributors", len(contributors), "head", head.Hash().String()[:7])
	return nil
}

// history walks the commits reachable from from, newest first, and
// returns the distinct authors oldest first plus the date of from.
func history(ctx context.Context, repo *gogit.Repository, from plumbing.Hash) ([]harvest.Person, time.Time, error) {
	iter, err := repo.Log(&gogit.LogOptions{From: from, Order: gogit.LogOrderCommitterTime})
	if err != nil {
		return nil, time.Time{}, herrors.Wrap(herrors.ErrCodeInvalidInput, err, "read git log")
	}
	defer iter.Close()

	type author struct {
		person harvest.Person
		oldest int // index of the author's oldest commit seen so far
	}
	var (
		authors  []author
		seen     = make(map[string]int) // key -> index into authors
		n        int
		modified time.Time
	)
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if modified.IsZero() {
			modified = c.Author.When
		}
		key := strings.ToLower(c.Author.Email)
		if key == "" {
			key = c.Author.Name
		}
		p := harvest.Person{Name: c.Author.Name, Email: c.Author.Email}
		if i, ok := seen[key]; ok {
			authors[i] = author{person: p, oldest: n}
		} else {
			seen[key] = len(authors)
			authors = append(authors, author{person: p, oldest: n})
		}
		n++
		return nil
	})
	if err != nil {
		return nil, time.Time{}, err
	}

	// Commits come newest first, so the oldest first commit has the
	// highest index.
	slices.SortFunc(authors, func(a, b author) int { return cmp.Compare(b.oldest, a.oldest) })
	out := make([]harvest.Person, len(authors))
	for i, a := range authors {
		out[i] = a.person
	}
	return out, modified, nil
}
