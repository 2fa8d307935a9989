package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hermes/pkg/cache"
	herrors "github.com/matzehuels/hermes/pkg/errors"
)

// HarvestStage is the cache stage that holds one slot per harvester.
const HarvestStage = "harvest"

// Entry is one tagged write: the value and the name of the plugin that
// produced it. It encodes as the JSON pair [value, tag].
type Entry struct {
	Value *Value
	Tag   string
}

// MarshalJSON encodes the entry as [value, tag].
func (e Entry) MarshalJSON() ([]byte, error) {
	v, err := orNull(e.Value).MarshalJSON()
	if err != nil {
		return nil, err
	}
	t, err := json.Marshal(e.Tag)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(v)+len(t)+3)
	out = append(out, '[')
	out = append(out, v...)
	out = append(out, ',')
	out = append(out, t...)
	return append(out, ']'), nil
}

// UnmarshalJSON decodes a [value, tag] pair.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("entry must be a [value, tag] pair, got %d elements", len(pair))
	}
	v := Null()
	if err := v.UnmarshalJSON(pair[0]); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[1], &e.Tag); err != nil {
		return fmt.Errorf("entry tag: %w", err)
	}
	e.Value = v
	return nil
}

// HarvestContext collects the output of a single harvester. Every write is
// tagged with the harvester name and appended to the path's trace; nothing
// is overwritten.
//
// The usual lifetime is:
//
//	h := model.NewHarvestContext(base, "cff")
//	err := h.Run(func(h *model.HarvestContext) error {
//	    return harvester.Harvest(ctx, wf, h)
//	})
//
// Run writes the harvest cache slot on every exit path.
type HarvestContext struct {
	name   string
	base   *Context
	logger *log.Logger

	keys  []string
	paths map[string]Path
	data  map[string][]Entry // oldest first
}

// NewHarvestContext creates the context for the named harvester. base
// provides the cache and logger.
func NewHarvestContext(base *Context, name string) *HarvestContext {
	return &HarvestContext{
		name:   name,
		base:   base,
		logger: base.Logger.With("harvester", name),
		paths:  make(map[string]Path),
		data:   make(map[string][]Entry),
	}
}

// Name returns the harvester name, which is also the tag of every write.
func (h *HarvestContext) Name() string { return h.name }

// Update records v at p under the harvester's tag and returns the value
// that was current before, or nil.
func (h *HarvestContext) Update(p Path, v *Value) (*Value, error) {
	return h.UpdateTagged(p, v, h.name)
}

// UpdateTagged records v at p under an explicit tag. Processors use it to
// attribute derived values to themselves.
func (h *HarvestContext) UpdateTagged(p Path, v *Value, tag string) (*Value, error) {
	if p.IsRoot() {
		return nil, herrors.New(herrors.ErrCodeInvalidPath, "harvest context cannot store a value at the root")
	}
	key := p.String()
	entries, seen := h.data[key]
	if !seen {
		h.keys = append(h.keys, key)
		h.paths[key] = p
	}
	h.data[key] = append(entries, Entry{Value: v.Clone(), Tag: tag})

	if len(entries) == 0 {
		return nil, nil
	}
	return entries[len(entries)-1].Value.Clone(), nil
}

// UpdateFrom flattens a nested mapping into leaf paths and records each
// leaf, so {"author": [{"name": "x"}]} is stored under author[0].name.
// Empty mappings and sequences are stored as leaves.
func (h *HarvestContext) UpdateFrom(v *Value) error {
	if v.Kind() != KindMapping {
		return herrors.New(herrors.ErrCodeInvalidValue, "update source must be a mapping, got %s", v.Kind())
	}
	return h.flatten(Path{}, v)
}

func (h *HarvestContext) flatten(p Path, v *Value) error {
	switch {
	case v.Kind() == KindMapping && v.Len() > 0:
		for _, k := range v.Keys() {
			f, _ := v.Field(k)
			if err := h.flatten(p.Key(k), f); err != nil {
				return err
			}
		}
	case v.Kind() == KindSequence && v.Len() > 0:
		for i, it := range v.Items() {
			if err := h.flatten(p.Index(i), it); err != nil {
				return err
			}
		}
	default:
		_, err := h.Update(p, v)
		return err
	}
	return nil
}

// Keys returns every written path in first-write order.
func (h *HarvestContext) Keys() []Path {
	out := make([]Path, len(h.keys))
	for i, k := range h.keys {
		out[i] = h.paths[k]
	}
	return out
}

// Head returns the newest entry for p.
func (h *HarvestContext) Head(p Path) (Entry, bool) {
	entries := h.data[p.String()]
	if len(entries) == 0 {
		return Entry{}, false
	}
	return entries[len(entries)-1], true
}

// Trace returns the entries written to p before the head, oldest first.
func (h *HarvestContext) Trace(p Path) []Entry {
	entries := h.data[p.String()]
	if len(entries) < 2 {
		return nil
	}
	return slices.Clone(entries[:len(entries)-1])
}

// Get returns the head value at p. When p itself was never written, the
// value is assembled from writes to enclosing paths and to paths below p.
func (h *HarvestContext) Get(p Path) (*Value, error) {
	if e, ok := h.Head(p); ok {
		return e.Value.Clone(), nil
	}
	tmp := NewContext(nil, h.logger)
	for _, k := range h.keys {
		kp := h.paths[k]
		if !kp.HasPrefix(p) && !p.HasPrefix(kp) {
			continue
		}
		entries := h.data[k]
		// Structural clashes between overlapping writes leave the first one.
		_, _ = tmp.Update(kp, entries[len(entries)-1].Value)
	}
	return tmp.Get(p)
}

// Conflicts reports every path whose head value disagrees with an earlier
// write carrying the same tag.
func (h *HarvestContext) Conflicts() []*MergeError {
	var out []*MergeError
	for _, k := range h.keys {
		entries := h.data[k]
		head := entries[len(entries)-1]
		var conflicting []*Value
		for _, prior := range entries[:len(entries)-1] {
			if prior.Tag == head.Tag && !prior.Value.Equal(head.Value) {
				conflicting = append(conflicting, prior.Value)
			}
		}
		if len(conflicting) > 0 {
			out = append(out, &MergeError{
				Path:        h.paths[k],
				Tag:         head.Tag,
				Value:       head.Value,
				Conflicting: conflicting,
			})
		}
	}
	return out
}

// Open marks the harvest stage as started.
func (h *HarvestContext) Open() error {
	return h.base.InitCache(HarvestStage)
}

// Close writes the harvest cache slot, newest entry first per path.
func (h *HarvestContext) Close() error {
	if h.base.Cache() == nil {
		return ErrNoCache
	}
	doc := harvestDoc{keys: h.keys, data: make(map[string][]Entry, len(h.data))}
	for k, entries := range h.data {
		rev := slices.Clone(entries)
		slices.Reverse(rev)
		doc.data[k] = rev
	}
	if err := cache.NewScoped(h.base.Cache(), HarvestStage).Store(doc, h.name); err != nil {
		return fmt.Errorf("flush harvest cache %s: %w", h.name, err)
	}
	h.logger.Debug("flushed harvest cache", "paths", len(h.keys))
	return nil
}

// Run opens the context, calls fn and always closes it, even when fn
// fails or panics. The first error wins.
func (h *HarvestContext) Run(fn func(*HarvestContext) error) (err error) {
	if err := h.Open(); err != nil {
		return err
	}
	defer func() {
		if cerr := h.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(h)
}

// LoadCache replaces the contents with the harvester's cache slot.
// A missing slot yields an error matching cache.ErrNotFound.
func (h *HarvestContext) LoadCache() error {
	if h.base.Cache() == nil {
		return ErrNoCache
	}
	var doc harvestDoc
	if err := cache.NewScoped(h.base.Cache(), HarvestStage).Load(&doc, h.name); err != nil {
		return err
	}

	h.keys = h.keys[:0]
	h.paths = make(map[string]Path, len(doc.keys))
	h.data = make(map[string][]Entry, len(doc.keys))
	for _, k := range doc.keys {
		p, err := ParsePath(k)
		if err != nil {
			return herrors.Wrap(herrors.ErrCodeCacheCorrupt, err, "harvest cache %s", h.name)
		}
		entries := slices.Clone(doc.data[k])
		if len(entries) == 0 {
			continue
		}
		slices.Reverse(entries)
		h.keys = append(h.keys, p.String())
		h.paths[p.String()] = p
		h.data[p.String()] = entries
	}
	return nil
}

// harvestDoc is the on-disk form of a harvest context: an object from path
// to entries that keeps its keys in write order.
type harvestDoc struct {
	keys []string
	data map[string][]Entry
}

func (d harvestDoc) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		buf.Write(kb)
		buf.WriteByte(':')
		eb, err := json.Marshal(d.data[k])
		if err != nil {
			return nil, err
		}
		buf.Write(eb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *harvestDoc) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return fmt.Errorf("harvest cache must be a JSON object")
	}
	d.data = make(map[string][]Entry)
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)
		var entries []Entry
		if err := dec.Decode(&entries); err != nil {
			return fmt.Errorf("path %q: %w", key, err)
		}
		if _, dup := d.data[key]; !dup {
			d.keys = append(d.keys, key)
		}
		d.data[key] = entries
	}
	_, err := dec.Token()
	return err
}
