// Package plugins lists the built-in harvester plugins.
package plugins

import (
	"github.com/matzehuels/hermes/pkg/harvest/cff"
	"github.com/matzehuels/hermes/pkg/harvest/codemeta"
	"github.com/matzehuels/hermes/pkg/harvest/git"
	"github.com/matzehuels/hermes/pkg/harvest/github"
	"github.com/matzehuels/hermes/pkg/harvest/pyproject"
	"github.com/matzehuels/hermes/pkg/plugin"
)

// All lists every built-in plugin.
var All = []*plugin.Plugin{
	cff.Plugin,
	pyproject.Plugin,
	codemeta.Plugin,
	git.Plugin,
	github.Plugin,
}

// Registry returns a registry holding All.
func Registry() *plugin.Registry {
	r, err := plugin.NewRegistry(All...)
	if err != nil {
		panic(err) // built-in names are valid and unique
	}
	return r
}

// Find returns the built-in plugin with the given name.
func Find(name string) (*plugin.Plugin, bool) {
	for _, p := range All {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}
