// Package model implements the metadata context used by every workflow
// stage: a path-addressed tree of values with provenance tracking.
//
// Three layers build on each other:
//
//   - [Context] owns a tree rooted at a mapping and exposes Get/Update by
//     [Path], plus access to the on-disk stage cache.
//   - [HarvestContext] records every write of one harvester as a tagged
//     trace so contradictions can be detected after the fact.
//   - [CodeMetaContext] folds harvest contexts into one canonical document
//     and remembers which harvesters contributed to each path.
//
// # Paths
//
// Paths use dots for keys and brackets for indices:
//
//	p := model.MustParsePath("author[0].name")
//	ctx.Update(p, model.String("Jane Doe"))
//
// Intermediate mappings and sequences are created on demand.
package model

import (
	"errors"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hermes/pkg/cache"
	herrors "github.com/matzehuels/hermes/pkg/errors"
)

// ErrNoCache is returned by cache operations on a context without a cache.
var ErrNoCache = errors.New("context has no cache")

// Context is a nested key-value store addressed by Path.
// It is not safe for concurrent use; workflow stages run sequentially.
type Context struct {
	root   *Value
	cache  cache.Cache
	Logger *log.Logger
}

// NewContext creates an empty context. c may be nil for a purely in-memory
// context. If logger is nil, log.Default() is used.
func NewContext(c cache.Cache, logger *log.Logger) *Context {
	if logger == nil {
		logger = log.Default()
	}
	return &Context{root: NewMapping(), cache: c, Logger: logger}
}

// Cache returns the backing cache, or nil.
func (c *Context) Cache() cache.Cache { return c.cache }

// Get returns a copy of the value at p.
func (c *Context) Get(p Path) (*Value, error) {
	cur := c.root
	for i, seg := range p.segs {
		next, ok := child(cur, seg)
		if !ok {
			return nil, &PathNotFoundError{Path: p, Missing: Path{segs: p.segs[:i+1]}}
		}
		cur = next
	}
	return cur.Clone(), nil
}

// GetOr returns the value at p, or def when p does not resolve.
func (c *Context) GetOr(p Path, def *Value) *Value {
	v, err := c.Get(p)
	if err != nil {
		return def
	}
	return v
}

// Update stores a copy of v at p, creating intermediate mappings and
// sequences as needed, and returns the value previously stored there
// (nil if there was none). Writing below a scalar is an INVALID_PATH error.
func (c *Context) Update(p Path, v *Value) (*Value, error) {
	prev, _, err := c.update(p, v, false)
	return prev, err
}

// Replace is Update for a writer whose value takes precedence over the
// structure already in place: an intermediate value that cannot hold the
// next segment is replaced by a new container. It also returns the
// intermediate paths that were replaced.
func (c *Context) Replace(p Path, v *Value) (*Value, []Path, error) {
	return c.update(p, v, true)
}

func (c *Context) update(p Path, v *Value, replace bool) (*Value, []Path, error) {
	if p.IsRoot() {
		if v.Kind() != KindMapping {
			return nil, nil, herrors.New(herrors.ErrCodeInvalidValue, "context root must be a mapping, got %s", v.Kind())
		}
		prev := c.root
		c.root = v.Clone()
		return prev, nil, nil
	}

	var replaced []Path
	cur := c.root
	for i, seg := range p.segs[:len(p.segs)-1] {
		next, ok := child(cur, seg)
		clash := ok && !next.IsNull() && !holds(next, p.segs[i+1])
		if clash && replace {
			replaced = append(replaced, Path{segs: p.segs[:i+1]})
		}
		if !ok || next.IsNull() || (clash && replace) {
			next = containerFor(p.segs[i+1])
			if err := setChild(cur, seg, next, p, i); err != nil {
				return nil, nil, err
			}
		}
		cur = next
	}

	last := p.Last()
	prev, _ := child(cur, last)
	if err := setChild(cur, last, v.Clone(), p, len(p.segs)-1); err != nil {
		return nil, nil, err
	}
	return prev, replaced, nil
}

// Reset replaces the whole tree. root must be a mapping.
func (c *Context) Reset(root *Value) error {
	_, err := c.Update(Path{}, root)
	return err
}

// Data returns a deep copy of the whole tree.
func (c *Context) Data() *Value { return c.root.Clone() }

// MarshalJSON encodes the tree.
func (c *Context) MarshalJSON() ([]byte, error) { return c.root.MarshalJSON() }

// CachePath resolves the file for a cache slot; see [cache.Cache.Path].
func (c *Context) CachePath(create bool, parts ...string) (string, error) {
	if c.cache == nil {
		return "", ErrNoCache
	}
	return c.cache.Path(create, parts...)
}

// InitCache marks a workflow stage as started.
func (c *Context) InitCache(stage string) error {
	if c.cache == nil {
		return ErrNoCache
	}
	return c.cache.Init(stage)
}

// PurgeCaches deletes the whole cache root.
func (c *Context) PurgeCaches() error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Purge()
}

func child(v *Value, seg Segment) (*Value, bool) {
	if seg.IsIndex() {
		return v.Item(seg.Index())
	}
	return v.Field(seg.Key())
}

// holds reports whether v is a container addressable by seg.
func holds(v *Value, seg Segment) bool {
	if seg.IsIndex() {
		return v.Kind() == KindSequence
	}
	return v.Kind() == KindMapping
}

func containerFor(next Segment) *Value {
	if next.IsIndex() {
		return NewSequence()
	}
	return NewMapping()
}

func setChild(parent *Value, seg Segment, v *Value, p Path, at int) error {
	switch {
	case seg.IsIndex() && parent.Kind() == KindSequence:
		parent.SetItem(seg.Index(), v)
	case !seg.IsIndex() && parent.Kind() == KindMapping:
		parent.SetField(seg.Key(), v)
	default:
		return herrors.New(herrors.ErrCodeInvalidPath, "cannot set %s: %s holds a %s",
			p, Path{segs: p.segs[:at]}, parent.Kind())
	}
	return nil
}
