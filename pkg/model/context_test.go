package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/hermes/pkg/cache"
	herrors "github.com/matzehuels/hermes/pkg/errors"
)

func newTestCache(t *testing.T) *cache.FileCache {
	t.Helper()
	c, err := cache.NewFileCache(filepath.Join(t.TempDir(), ".hermes"))
	require.NoError(t, err)
	return c
}

func TestContextUpdateGet(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		value *Value
	}{
		{"scalar", "name", String("hermes")},
		{"number", "version.major", Number(2)},
		{"mapping", "author[0]", MustFromAny(map[string]any{"name": "Jane", "email": "jane@example.org"})},
		{"sequence", "keywords", NewSequence(String("metadata"), String("publishing"))},
		{"nested index", "author[1].affiliation.legalName", String("DLR")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewContext(nil, nil)
			p := MustParsePath(tt.path)

			prev, err := ctx.Update(p, tt.value)
			require.NoError(t, err)
			assert.Nil(t, prev)

			got, err := ctx.Get(p)
			require.NoError(t, err)
			assert.True(t, tt.value.Equal(got), "got %s", got)
		})
	}
}

func TestContextUpdateReturnsPrevious(t *testing.T) {
	ctx := NewContext(nil, nil)
	p := MustParsePath("a.b")

	_, err := ctx.Update(p, Number(1))
	require.NoError(t, err)
	prev, err := ctx.Update(p, Number(2))
	require.NoError(t, err)

	require.NotNil(t, prev)
	assert.True(t, prev.Equal(Number(1)))
	assert.Equal(t, `{"a":{"b":2}}`, ctx.Data().String())
}

func TestContextCreatesIntermediates(t *testing.T) {
	ctx := NewContext(nil, nil)
	_, err := ctx.Update(MustParsePath("author[1].name"), String("B"))
	require.NoError(t, err)

	assert.Equal(t, `{"author":[null,{"name":"B"}]}`, ctx.Data().String())

	// A null placeholder is replaced by a container on the next write.
	_, err = ctx.Update(MustParsePath("author[0].name"), String("A"))
	require.NoError(t, err)
	assert.Equal(t, `{"author":[{"name":"A"},{"name":"B"}]}`, ctx.Data().String())
}

func TestContextUpdateKindMismatch(t *testing.T) {
	ctx := NewContext(nil, nil)
	_, err := ctx.Update(MustParsePath("name"), String("x"))
	require.NoError(t, err)

	_, err = ctx.Update(MustParsePath("name.first"), String("y"))
	require.Error(t, err)
	assert.True(t, herrors.Is(err, herrors.ErrCodeInvalidPath))

	_, err = ctx.Update(Path{}, String("root"))
	assert.True(t, herrors.Is(err, herrors.ErrCodeInvalidValue))
}

func TestContextGetMissing(t *testing.T) {
	ctx := NewContext(nil, nil)
	_, err := ctx.Update(MustParsePath("author[0].name"), String("A"))
	require.NoError(t, err)

	_, err = ctx.Get(MustParsePath("author[3].name"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPathNotFound))

	var nf *PathNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "author[3]", nf.Missing.String())
	assert.Equal(t, herrors.ErrCodePathNotFound, herrors.GetCode(err))

	def := String("fallback")
	assert.Same(t, def, ctx.GetOr(MustParsePath("missing"), def))
}

func TestContextGetReturnsCopy(t *testing.T) {
	ctx := NewContext(nil, nil)
	_, err := ctx.Update(MustParsePath("keywords"), NewSequence(String("a")))
	require.NoError(t, err)

	got, err := ctx.Get(MustParsePath("keywords"))
	require.NoError(t, err)
	got.Append(String("b"))

	again, _ := ctx.Get(MustParsePath("keywords"))
	assert.Equal(t, 1, again.Len())
}

func TestContextCachePath(t *testing.T) {
	c := newTestCache(t)
	ctx := NewContext(c, nil)

	path, err := ctx.CachePath(false, "process", "codemeta")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.Root(), "process", "codemeta.json"), path)
	assert.NoDirExists(t, filepath.Dir(path))

	path, err = ctx.CachePath(true, "process", "codemeta")
	require.NoError(t, err)
	assert.DirExists(t, filepath.Dir(path))

	_, err = ctx.CachePath(true, "../escape")
	assert.True(t, herrors.Is(err, herrors.ErrCodeInvalidSlot))
}

func TestContextPurgeThenCachePath(t *testing.T) {
	c := newTestCache(t)
	ctx := NewContext(c, nil)

	require.NoError(t, ctx.InitCache(HarvestStage))
	require.NoError(t, c.Store(map[string]int{"x": 1}, HarvestStage, "cff"))

	require.NoError(t, ctx.PurgeCaches())
	assert.NoDirExists(t, c.Root())

	path, err := ctx.CachePath(true, HarvestStage, "cff")
	require.NoError(t, err)
	assert.DirExists(t, filepath.Dir(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestContextWithoutCache(t *testing.T) {
	ctx := NewContext(nil, nil)

	_, err := ctx.CachePath(true, "x")
	assert.ErrorIs(t, err, ErrNoCache)
	assert.ErrorIs(t, ctx.InitCache("x"), ErrNoCache)
	assert.NoError(t, ctx.PurgeCaches())
}
