package plugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/hermes/pkg/model"
)

func noop() Harvester {
	return HarvesterFunc(func(context.Context, *Env, *model.HarvestContext) error { return nil })
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry(
		&Plugin{Name: "cff", Harvester: noop()},
		&Plugin{Name: "git", Harvester: noop()},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"cff", "git"}, r.Names())

	p, ok := r.Find("git")
	require.True(t, ok)
	assert.Equal(t, "git", p.Name)

	_, ok = r.Find("svn")
	assert.False(t, ok)
}

func TestRegistryRejects(t *testing.T) {
	tests := []struct {
		name string
		p    *Plugin
	}{
		{"nil", nil},
		{"no harvester", &Plugin{Name: "x"}},
		{"bad name", &Plugin{Name: "../x", Harvester: noop()}},
		{"duplicate", &Plugin{Name: "cff", Harvester: noop()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(&Plugin{Name: "cff", Harvester: noop()})
			require.NoError(t, err)
			assert.Error(t, r.Register(tt.p))
		})
	}
}

func TestRegistrySelect(t *testing.T) {
	r, err := NewRegistry(
		&Plugin{Name: "a", Harvester: noop()},
		&Plugin{Name: "b", Harvester: noop()},
		&Plugin{Name: "c", Harvester: noop()},
	)
	require.NoError(t, err)

	got, err := r.Select([]string{"c", "a", "c"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Name)
	assert.Equal(t, "a", got[1].Name)

	_, err = r.Select([]string{"a", "zzz"})
	assert.ErrorContains(t, err, "zzz")

	none, err := r.Select(nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFuncAdapters(t *testing.T) {
	var called []string
	h := HarvesterFunc(func(_ context.Context, env *Env, hc *model.HarvestContext) error {
		called = append(called, "harvest:"+hc.Name())
		return nil
	})
	p := ProcessorFunc(func(_ context.Context, env *Env, base *model.CodeMetaContext, hc *model.HarvestContext) error {
		called = append(called, "process:"+hc.Name())
		return nil
	})

	hc := model.NewHarvestContext(model.NewContext(nil, nil), "x")
	require.NoError(t, h.Harvest(context.Background(), &Env{}, hc))
	require.NoError(t, p.Process(context.Background(), &Env{}, model.NewCodeMetaContext(nil, nil), hc))
	assert.Equal(t, []string{"harvest:x", "process:x"}, called)
}
