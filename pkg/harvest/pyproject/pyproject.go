// Package pyproject harvests Python project metadata from pyproject.toml,
// both the standard [project] table and [tool.poetry].
package pyproject

import (
	"context"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"

	herrors "github.com/matzehuels/hermes/pkg/errors"
	"github.com/matzehuels/hermes/pkg/harvest"
	"github.com/matzehuels/hermes/pkg/model"
	"github.com/matzehuels/hermes/pkg/plugin"
)

// FileName is the project file read from the project directory.
const FileName = "pyproject.toml"

// Plugin harvests pyproject.toml.
var Plugin = &plugin.Plugin{
	Name:        "pyproject",
	Description: "Python project metadata (" + FileName + ")",
	Harvester:   plugin.HarvesterFunc(Harvest),
}

type pyproject struct {
	Project project `toml:"project"`
	Tool    struct {
		Poetry poetry `toml:"poetry"`
	} `toml:"tool"`
}

type project struct {
	Name        string            `toml:"name"`
	Version     string            `toml:"version"`
	Description string            `toml:"description"`
	Keywords    []string          `toml:"keywords"`
	License     any               `toml:"license"`
	Authors     []contact         `toml:"authors"`
	URLs        map[string]string `toml:"urls"`
}

type contact struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

type poetry struct {
	Name        string   `toml:"name"`
	Version     string   `toml:"version"`
	Description string   `toml:"description"`
	Keywords    []string `toml:"keywords"`
	License     string   `toml:"license"`
	Authors     []string `toml:"authors"`
	Homepage    string   `toml:"homepage"`
	Repository  string   `toml:"repository"`
}

// metadata is the union of both tables, [project] taking precedence.
type metadata struct {
	name, version, description, license, homepage, repository string
	keywords                                                  []string
	authors                                                   []harvest.Person
}

// Harvest maps pyproject.toml onto CodeMeta. A project without the file
// contributes nothing.
func Harvest(_ context.Context, env *plugin.Env, h *model.HarvestContext) error {
	data, err := harvest.ReadSource(env, FileName)
	if errors.Is(err, harvest.ErrNoSource) {
		env.Logger.Debug("no python project file found", "file", FileName)
		return nil
	}
	if err != nil {
		return err
	}

	var doc pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		return herrors.Wrap(herrors.ErrCodeInvalidInput, err, "parse %s", FileName)
	}
	m := combine(doc)

	fields := []struct{ path, value string }{
		{"name", m.name},
		{"version", m.version},
		{"description", m.description},
		{"license", m.license},
		{"url", m.homepage},
		{"codeRepository", m.repository},
	}
	for _, f := range fields {
		if err := harvest.SetString(h, f.path, f.value); err != nil {
			return err
		}
	}
	if err := harvest.SetStrings(h, "keywords", m.keywords); err != nil {
		return err
	}
	for i, a := range m.authors {
		if err := harvest.Set(h, fmt.Sprintf("author[%d]", i), a.Value()); err != nil {
			return err
		}
	}
	return nil
}

func combine(doc pyproject) metadata {
	p, po := doc.Project, doc.Tool.Poetry
	m := metadata{
		name:        firstOf(p.Name, po.Name),
		version:     firstOf(p.Version, po.Version),
		description: firstOf(p.Description, po.Description),
		license:     firstOf(licenseText(p.License), po.License),
		homepage:    firstOf(urlOf(p.URLs, "Homepage", "homepage"), po.Homepage),
		repository:  firstOf(urlOf(p.URLs, "Repository", "repository", "Source", "source"), po.Repository),
		keywords:    p.Keywords,
	}
	if len(m.keywords) == 0 {
		m.keywords = po.Keywords
	}

	for _, a := range p.Authors {
		m.authors = append(m.authors, harvest.Person{Name: a.Name, Email: a.Email})
	}
	if len(m.authors) == 0 {
		for _, a := range po.Authors {
			m.authors = append(m.authors, harvest.ParseAuthor(a))
		}
	}
	return m
}

// licenseText handles the PEP 621 forms: an SPDX expression string or a
// table with a "text" key. A {file = ...} table carries no identifier.
func licenseText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if s, ok := t["text"].(string); ok {
			return s
		}
	}
	return ""
}

func urlOf(urls map[string]string, keys ...string) string {
	for _, k := range keys {
		if u := urls[k]; u != "" {
			return u
		}
	}
	return ""
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
