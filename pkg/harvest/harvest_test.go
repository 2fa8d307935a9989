package harvest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	herrors "github.com/matzehuels/hermes/pkg/errors"
	"github.com/matzehuels/hermes/pkg/model"
	"github.com/matzehuels/hermes/pkg/plugin"
)

func TestReadSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CITATION.cff"), []byte("title: x"), 0o644))
	env := &plugin.Env{Dir: dir, Logger: log.New(os.Stderr)}

	data, err := ReadSource(env, "CITATION.cff")
	require.NoError(t, err)
	assert.Equal(t, "title: x", string(data))

	_, err = ReadSource(env, "pyproject.toml")
	assert.ErrorIs(t, err, ErrNoSource)
	assert.True(t, herrors.Is(err, herrors.ErrCodeFileNotFound))

	_, err = ReadSource(env, "../secret")
	assert.True(t, herrors.Is(err, herrors.ErrCodeInvalidPath))
}

func TestPersonValue(t *testing.T) {
	p := Person{GivenName: "Jane", FamilyName: "Doe", ORCID: "0000-0002-1825-0097", Affiliation: "DLR"}
	assert.Equal(t,
		`{"@type":"Person","@id":"https://orcid.org/0000-0002-1825-0097","givenName":"Jane","familyName":"Doe","affiliation":{"@type":"Organization","legalName":"DLR"}}`,
		p.Value().String())

	org := Person{Name: "HERMES team", IsOrg: true}
	assert.Equal(t, `{"@type":"Organization","name":"HERMES team"}`, org.Value().String())
}

func TestParseAuthor(t *testing.T) {
	assert.Equal(t, Person{Name: "Jane Doe", Email: "jane@example.org"}, ParseAuthor("Jane Doe <jane@example.org>"))
	assert.Equal(t, Person{Name: "Jane Doe"}, ParseAuthor(" Jane Doe "))
}

func TestSetHelpers(t *testing.T) {
	h := model.NewHarvestContext(model.NewContext(nil, nil), "test")
	require.NoError(t, SetString(h, "name", "  "))
	require.NoError(t, SetStrings(h, "keywords", []string{"", " "}))
	assert.Empty(t, h.Keys())

	require.NoError(t, SetString(h, "name", " hermes "))
	require.NoError(t, SetStrings(h, "keywords", []string{"fair", "", "metadata"}))
	name, err := h.Get(model.MustParsePath("name"))
	require.NoError(t, err)
	assert.Equal(t, `"hermes"`, name.String())
	kw, err := h.Get(model.MustParsePath("keywords"))
	require.NoError(t, err)
	assert.Equal(t, `["fair","metadata"]`, kw.String())

	assert.Error(t, Set(h, "a..b", model.Null()))
}

func TestIdentifierURLs(t *testing.T) {
	assert.Equal(t, "https://orcid.org/0000-0001", ORCIDURL("0000-0001"))
	assert.Equal(t, "https://orcid.org/0000-0001", ORCIDURL("https://orcid.org/0000-0001"))
	assert.Equal(t, "", ORCIDURL(" "))
	assert.Equal(t, "https://doi.org/10.5281/zenodo.1", DOIURL("10.5281/zenodo.1"))
}
