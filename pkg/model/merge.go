package model

import (
	"errors"
	"maps"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/matzehuels/hermes/pkg/cache"
)

// CodeMetaContext is the base context of the process stage. Harvest
// contexts are merged into it one after another; for every path it keeps
// the ordered set of tags that contributed a value.
type CodeMetaContext struct {
	*Context

	tags   map[string][]string
	errors []MergeFailure
}

// NewCodeMetaContext creates an empty CodeMeta context.
func NewCodeMetaContext(c cache.Cache, logger *log.Logger) *CodeMetaContext {
	return &CodeMetaContext{
		Context: NewContext(c, logger),
		tags:    make(map[string][]string),
	}
}

// MergeFrom folds the head value of every path in h into the context.
//
// If h contradicts itself (a path holds different values under the same
// tag) nothing from h is applied; every contradiction is recorded as a
// MergeError and the joined errors are returned. Values from different
// harvesters are not reconciled: the harvester merged last wins, also when
// it changes the shape of a path (a scalar license replaced by a list).
// Provenance of the values it displaces is dropped.
func (c *CodeMetaContext) MergeFrom(h *HarvestContext) error {
	logger := c.Logger.With("harvester", h.Name())

	if conflicts := h.Conflicts(); len(conflicts) > 0 {
		errs := make([]error, len(conflicts))
		for i, me := range conflicts {
			logger.Warn("conflicting values, skipping harvester output", "path", me.Path, "tag", me.Tag)
			c.AddError(h.Name(), me)
			errs[i] = me
		}
		return errors.Join(errs...)
	}

	var errs []error
	for _, p := range h.Keys() {
		head, _ := h.Head(p)
		prev, replaced, err := c.Replace(p, head.Value)
		if err != nil {
			logger.Warn("cannot merge value", "path", p, "err", err)
			c.AddError(h.Name(), err)
			errs = append(errs, err)
			continue
		}
		for _, q := range replaced {
			logger.Debug("replacing value of a different shape", "path", q, "previous", c.tags[q.String()])
			c.dropTags(q, true)
		}
		if prev != nil && prev.Kind() != head.Value.Kind() {
			c.dropTags(p, false)
		}
		key := p.String()
		if prev != nil && !prev.IsNull() && !prev.Equal(head.Value) {
			logger.Debug("overriding value", "path", key, "previous", c.tags[key])
		}
		if !lo.Contains(c.tags[key], head.Tag) {
			c.tags[key] = append(c.tags[key], head.Tag)
		}
	}
	return errors.Join(errs...)
}

// dropTags forgets the provenance of every path below q, and of q itself
// if inclusive.
func (c *CodeMetaContext) dropTags(q Path, inclusive bool) {
	for k := range c.tags {
		p, err := ParsePath(k)
		if err != nil || !p.HasPrefix(q) {
			continue
		}
		if inclusive || p.Len() > q.Len() {
			delete(c.tags, k)
		}
	}
}

// Tags returns a copy of the provenance map: path → contributing tags in
// merge order.
func (c *CodeMetaContext) Tags() map[string][]string {
	out := make(map[string][]string, len(c.tags))
	for k, v := range c.tags {
		out[k] = slices.Clone(v)
	}
	return out
}

// TagsFor returns the tags recorded for p.
func (c *CodeMetaContext) TagsFor(p Path) []string {
	return slices.Clone(c.tags[p.String()])
}

// SetTags replaces the provenance map, e.g. after loading it from cache.
func (c *CodeMetaContext) SetTags(tags map[string][]string) {
	c.tags = make(map[string][]string, len(tags))
	for k, v := range tags {
		c.tags[k] = lo.Uniq(v)
	}
}

// TaggedPaths returns the paths that have provenance, sorted.
func (c *CodeMetaContext) TaggedPaths() []string {
	return slices.Sorted(maps.Keys(c.tags))
}

// AddError records a failure attributed to source.
func (c *CodeMetaContext) AddError(source string, err error) {
	c.errors = append(c.errors, MergeFailure{Source: source, Err: err})
}

// Errors returns every failure recorded so far.
func (c *CodeMetaContext) Errors() []MergeFailure {
	return slices.Clone(c.errors)
}
