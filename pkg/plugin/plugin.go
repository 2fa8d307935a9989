// Package plugin defines how harvesters and processors plug into the
// workflow.
//
// A [Plugin] bundles a harvester with the processors that post-process its
// output before it is merged. The plugin name is the provenance tag of every
// value it contributes and the name of its harvest cache slot.
//
// Plugins are registered explicitly in a [Registry]; the built-in set lives
// in package plugins so that the harvester packages can import this one.
package plugin

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hermes/pkg/config"
	herrors "github.com/matzehuels/hermes/pkg/errors"
	"github.com/matzehuels/hermes/pkg/httputil"
	"github.com/matzehuels/hermes/pkg/model"
	"github.com/matzehuels/hermes/pkg/observability"
)

// Env is what a plugin sees of the running workflow.
type Env struct {
	// Dir is the project directory being described.
	Dir string

	// Config is the loaded configuration.
	Config *config.Config

	// Logger is scoped to the workflow invocation.
	Logger *log.Logger

	// HTTPCache caches responses of remote APIs. May be nil.
	HTTPCache *httputil.Cache

	// HTTPHooks observes outgoing requests. May be nil.
	HTTPHooks observability.HTTPHooks
}

// Harvester collects metadata into a harvest context.
type Harvester interface {
	Harvest(ctx context.Context, env *Env, h *model.HarvestContext) error
}

// Processor adjusts a loaded harvest context before it is merged into base.
type Processor interface {
	Process(ctx context.Context, env *Env, base *model.CodeMetaContext, h *model.HarvestContext) error
}

// HarvesterFunc adapts a function to the Harvester interface.
type HarvesterFunc func(ctx context.Context, env *Env, h *model.HarvestContext) error

// Harvest calls f.
func (f HarvesterFunc) Harvest(ctx context.Context, env *Env, h *model.HarvestContext) error {
	return f(ctx, env, h)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, env *Env, base *model.CodeMetaContext, h *model.HarvestContext) error

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, env *Env, base *model.CodeMetaContext, h *model.HarvestContext) error {
	return f(ctx, env, base, h)
}

// Plugin describes one metadata source.
type Plugin struct {
	// Name identifies the plugin in configuration, cache slots and tags.
	Name string

	// Description is shown by the CLI.
	Description string

	// Harvester produces the plugin's harvest context.
	Harvester Harvester

	// Processors run, in order, on the reloaded harvest context during the
	// process stage. May be empty.
	Processors []Processor
}

// Registry is an ordered table of plugins.
type Registry struct {
	plugins []*Plugin
}

// NewRegistry creates a registry holding plugins in the given order.
func NewRegistry(plugins ...*Plugin) (*Registry, error) {
	r := &Registry{}
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends p. Names must be unique and usable as cache slot names.
func (r *Registry) Register(p *Plugin) error {
	if p == nil {
		return fmt.Errorf("nil plugin")
	}
	if p.Harvester == nil {
		return fmt.Errorf("plugin %q has no harvester", p.Name)
	}
	if err := herrors.ValidateSlotName(p.Name); err != nil {
		return herrors.Wrap(herrors.ErrCodeInvalidInput, err, "plugin name")
	}
	if _, ok := r.Find(p.Name); ok {
		return fmt.Errorf("plugin %q registered twice", p.Name)
	}
	r.plugins = append(r.plugins, p)
	return nil
}

// Find returns the plugin with the given name.
func (r *Registry) Find(name string) (*Plugin, bool) {
	for _, p := range r.plugins {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Names lists the registered plugin names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.plugins))
	for i, p := range r.plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the named plugins in the order given. Unknown names are an
// error; an empty list selects nothing.
func (r *Registry) Select(names []string) ([]*Plugin, error) {
	out := make([]*Plugin, 0, len(names))
	for _, name := range names {
		p, ok := r.Find(name)
		if !ok {
			return nil, fmt.Errorf("unknown harvester %q (available: %v)", name, r.Names())
		}
		if slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
