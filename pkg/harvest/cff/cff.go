// Package cff harvests CITATION.cff files and completes author names in
// the harvested data.
package cff

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	herrors "github.com/matzehuels/hermes/pkg/errors"
	"github.com/matzehuels/hermes/pkg/harvest"
	"github.com/matzehuels/hermes/pkg/model"
	"github.com/matzehuels/hermes/pkg/plugin"
)

// FileName is the citation file read from the project directory.
const FileName = "CITATION.cff"

// NamesTag attributes the author names derived by CompleteAuthorNames.
const NamesTag = "cff-names"

// Plugin harvests CITATION.cff.
var Plugin = &plugin.Plugin{
	Name:        "cff",
	Description: "Citation File Format (" + FileName + ")",
	Harvester:   plugin.HarvesterFunc(Harvest),
	Processors:  []plugin.Processor{plugin.ProcessorFunc(CompleteAuthorNames)},
}

type citation struct {
	Title          string     `yaml:"title"`
	Version        string     `yaml:"version"`
	Abstract       string     `yaml:"abstract"`
	Keywords       []string   `yaml:"keywords"`
	License        yaml.Node  `yaml:"license"`
	RepositoryCode string     `yaml:"repository-code"`
	URL            string     `yaml:"url"`
	DateReleased   string     `yaml:"date-released"`
	DOI            string     `yaml:"doi"`
	Authors        []cffAgent `yaml:"authors"`
}

// cffAgent is either a person (given/family names) or an entity (name).
type cffAgent struct {
	GivenNames   string `yaml:"given-names"`
	FamilyNames  string `yaml:"family-names"`
	NameParticle string `yaml:"name-particle"`
	Name         string `yaml:"name"`
	Email        string `yaml:"email"`
	ORCID        string `yaml:"orcid"`
	Website      string `yaml:"website"`
	Affiliation  string `yaml:"affiliation"`
}

func (a cffAgent) person() harvest.Person {
	family := strings.TrimSpace(strings.TrimSpace(a.NameParticle) + " " + a.FamilyNames)
	return harvest.Person{
		GivenName:   a.GivenNames,
		FamilyName:  family,
		Name:        a.Name,
		Email:       a.Email,
		ORCID:       a.ORCID,
		URL:         a.Website,
		Affiliation: a.Affiliation,
		IsOrg:       a.GivenNames == "" && family == "" && a.Name != "",
	}
}

// Harvest maps CITATION.cff onto CodeMeta. A project without the file
// contributes nothing.
func Harvest(_ context.Context, env *plugin.Env, h *model.HarvestContext) error {
	data, err := harvest.ReadSource(env, FileName)
	if errors.Is(err, harvest.ErrNoSource) {
		env.Logger.Warn("no citation file found", "file", FileName)
		return nil
	}
	if err != nil {
		return err
	}

	var c citation
	if err := yaml.Unmarshal(data, &c); err != nil {
		return herrors.Wrap(herrors.ErrCodeInvalidInput, err, "parse %s", FileName)
	}
	licenses, err := licenseIDs(&c.License)
	if err != nil {
		return herrors.Wrap(herrors.ErrCodeInvalidInput, err, "parse %s", FileName)
	}

	fields := []struct{ path, value string }{
		{"@context", harvest.CodeMetaContext},
		{"@type", harvest.SoftwareType},
		{"name", c.Title},
		{"version", c.Version},
		{"description", c.Abstract},
		{"codeRepository", c.RepositoryCode},
		{"url", c.URL},
		{"datePublished", c.DateReleased},
		{"identifier", harvest.DOIURL(c.DOI)},
	}
	for _, f := range fields {
		if err := harvest.SetString(h, f.path, f.value); err != nil {
			return err
		}
	}
	if err := harvest.SetStrings(h, "keywords", c.Keywords); err != nil {
		return err
	}
	if len(licenses) == 1 {
		err = harvest.SetString(h, "license", licenses[0])
	} else {
		err = harvest.SetStrings(h, "license", licenses)
	}
	if err != nil {
		return err
	}

	for i, a := range c.Authors {
		if err := harvest.Set(h, fmt.Sprintf("author[%d]", i), a.person().Value()); err != nil {
			return err
		}
	}
	env.Logger.Debug("harvested citation file", "authors", len(c.Authors))
	return nil
}

// licenseIDs accepts the two CFF forms: a single SPDX id or a list.
func licenseIDs(n *yaml.Node) ([]string, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		return []string{n.Value}, nil
	case yaml.SequenceNode:
		var ids []string
		if err := n.Decode(&ids); err != nil {
			return nil, err
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("license must be a string or a list of strings")
	}
}

// CompleteAuthorNames fills author[i].name from given and family names
// where the citation file only provided the parts.
func CompleteAuthorNames(_ context.Context, _ *plugin.Env, _ *model.CodeMetaContext, h *model.HarvestContext) error {
	for i := 0; ; i++ {
		author := model.NewPath(model.Key("author"), model.Index(i))
		if _, err := h.Get(author); err != nil {
			return nil
		}
		if _, err := h.Get(author.Key("name")); err == nil {
			continue
		}
		given := stringAt(h, author.Key("givenName"))
		family := stringAt(h, author.Key("familyName"))
		name := strings.TrimSpace(given + " " + family)
		if name == "" {
			continue
		}
		if _, err := h.UpdateTagged(author.Key("name"), model.String(name), NamesTag); err != nil {
			return err
		}
	}
}

func stringAt(h *model.HarvestContext, p model.Path) string {
	v, err := h.Get(p)
	if err != nil {
		return ""
	}
	s, _ := v.Str()
	return s
}
