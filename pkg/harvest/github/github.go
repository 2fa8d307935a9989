// Package github harvests repository metadata from the GitHub API for
// projects hosted on GitHub.
package github

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/matzehuels/hermes/pkg/harvest"
	"github.com/matzehuels/hermes/pkg/harvest/git"
	gh "github.com/matzehuels/hermes/pkg/integrations/github"
	"github.com/matzehuels/hermes/pkg/model"
	"github.com/matzehuels/hermes/pkg/observability"
	"github.com/matzehuels/hermes/pkg/plugin"
)

// Plugin harvests GitHub repository metadata. It is not among the default
// sources because it needs network access.
var Plugin = &plugin.Plugin{
	Name:        "github",
	Description: "Repository metadata from the GitHub API",
	Harvester:   plugin.HarvesterFunc(Harvest),
}

// Harvest looks up the repository named by github.repository in the
// configuration or, failing that, by the origin remote, and records its
// description, license, topics, homepage and latest release.
func Harvest(ctx context.Context, env *plugin.Env, h *model.HarvestContext) error {
	owner, name, ok, err := locate(env)
	if err != nil {
		return err
	}
	if !ok {
		env.Logger.Warn("no GitHub repository found, set github.repository to name one")
		return nil
	}

	client := newClient(env)
	repo, err := client.Fetch(ctx, owner, name, false)
	if err != nil {
		return err
	}

	fields := []struct{ path, value string }{
		{"description", repo.Description},
		{"license", repo.License},
		{"url", repo.Homepage},
		{"codeRepository", repo.HTMLURL},
		{"programmingLanguage", repo.Language},
	}
	if repo.Release != nil {
		fields = append(fields,
			struct{ path, value string }{"version", strings.TrimPrefix(repo.Release.Tag, "v")},
			struct{ path, value string }{"datePublished", repo.Release.PublishedAt.UTC().Format(time.DateOnly)},
		)
	}
	for _, f := range fields {
		if err := harvest.SetString(h, f.path, f.value); err != nil {
			return err
		}
	}
	if err := harvest.SetStrings(h, "keywords", repo.Topics); err != nil {
		return err
	}
	env.Logger.Debug("harvested github repository", "repo", owner+"/"+name)
	return nil
}

func newClient(env *plugin.Env) *gh.Client {
	opts := []gh.Option{gh.WithHooks(observability.Hooks{HTTP: env.HTTPHooks})}
	token := ""
	if env.Config != nil {
		token = env.Config.GitHub.Token
		if env.Config.GitHub.APIURL != "" {
			opts = append(opts, gh.WithBaseURL(env.Config.GitHub.APIURL))
		}
	}
	return gh.NewClient(token, env.HTTPCache, opts...)
}

func locate(env *plugin.Env) (owner, repo string, ok bool, err error) {
	if env.Config != nil && env.Config.GitHub.Repository != "" {
		owner, repo, err = gh.ParseRepoRef(env.Config.GitHub.Repository)
		return owner, repo, err == nil, err
	}

	r, err := git.Open(env.Dir)
	if errors.Is(err, git.ErrNoRepository) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	owner, repo, ok = gh.ExtractURL(map[string]string{"codeRepository": git.OriginURL(r)}, "")
	return owner, repo, ok, nil
}
