package plugins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/hermes/pkg/config"
)

func TestRegistry(t *testing.T) {
	r := Registry()
	assert.Equal(t, []string{"cff", "pyproject", "codemeta", "git", "github"}, r.Names())
}

func TestDefaultSourcesAreRegistered(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)

	selected, err := Registry().Select(cfg.Harvest.Sources)
	require.NoError(t, err)
	assert.Len(t, selected, len(cfg.Harvest.Sources))
}

func TestFind(t *testing.T) {
	p, ok := Find("cff")
	require.True(t, ok)
	assert.NotEmpty(t, p.Processors)

	_, ok = Find("zenodo")
	assert.False(t, ok)
}
