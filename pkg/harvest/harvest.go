// Package harvest holds what the built-in harvesters share: reading
// project files and writing CodeMeta values into a harvest context.
//
// Each harvester lives in its own subpackage and exports a
// [plugin.Plugin]; package plugins collects them.
//
// [plugin.Plugin]: github.com/matzehuels/hermes/pkg/plugin.Plugin
package harvest

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	herrors "github.com/matzehuels/hermes/pkg/errors"
	"github.com/matzehuels/hermes/pkg/model"
	"github.com/matzehuels/hermes/pkg/plugin"
)

// CodeMeta vocabulary shared by harvesters.
const (
	CodeMetaContext = "https://doi.org/10.5063/schema/codemeta-2.0"
	SoftwareType    = "SoftwareSourceCode"
	orcidPrefix     = "https://orcid.org/"
	doiPrefix       = "https://doi.org/"
)

// ErrNoSource is returned by ReadSource when the project has no such file.
var ErrNoSource = errors.New("metadata source not found")

// ReadSource reads a file from the project directory. A missing file
// yields an error matching ErrNoSource.
func ReadSource(env *plugin.Env, name string) ([]byte, error) {
	if err := herrors.ValidatePath(name); err != nil {
		return nil, err
	}
	path := filepath.Join(env.Dir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, herrors.Wrap(herrors.ErrCodeFileNotFound, ErrNoSource, "%s", path)
	}
	if err != nil {
		return nil, herrors.Wrap(herrors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return data, nil
}

// Set records v at the path given in canonical form.
func Set(h *model.HarvestContext, path string, v *model.Value) error {
	p, err := model.ParsePath(path)
	if err != nil {
		return err
	}
	_, err = h.Update(p, v)
	return err
}

// SetString records s at path unless it is blank.
func SetString(h *model.HarvestContext, path, s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return Set(h, path, model.String(s))
}

// SetStrings records ss as a sequence at path unless it is empty.
func SetStrings(h *model.HarvestContext, path string, ss []string) error {
	items := make([]*model.Value, 0, len(ss))
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			items = append(items, model.String(s))
		}
	}
	if len(items) == 0 {
		return nil
	}
	return Set(h, path, model.NewSequence(items...))
}

// Person is a CodeMeta agent: a schema.org Person, or an Organization
// when only Name is known and IsOrg is set.
type Person struct {
	GivenName   string
	FamilyName  string
	Name        string
	Email       string
	ORCID       string
	URL         string
	Affiliation string
	IsOrg       bool
}

// Value renders p as a CodeMeta mapping, omitting empty fields.
func (p Person) Value() *model.Value {
	m := model.NewMapping()
	set := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			m.SetField(k, model.String(v))
		}
	}
	if p.IsOrg {
		set("@type", "Organization")
	} else {
		set("@type", "Person")
	}
	set("@id", ORCIDURL(p.ORCID))
	set("givenName", p.GivenName)
	set("familyName", p.FamilyName)
	set("name", p.Name)
	set("email", p.Email)
	set("url", p.URL)
	if a := strings.TrimSpace(p.Affiliation); a != "" {
		org := model.NewMapping()
		org.SetField("@type", model.String("Organization"))
		org.SetField("legalName", model.String(a))
		m.SetField("affiliation", org)
	}
	return m
}

// ParseAuthor splits a "Name <email>" string as used by Python packaging.
func ParseAuthor(s string) Person {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "<"); i >= 0 && strings.HasSuffix(s, ">") {
		return Person{Name: strings.TrimSpace(s[:i]), Email: s[i+1 : len(s)-1]}
	}
	return Person{Name: s}
}

// ORCIDURL turns a bare ORCID iD into its URL form. URLs and empty input
// are returned unchanged.
func ORCIDURL(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.HasPrefix(id, "http") {
		return id
	}
	return orcidPrefix + id
}

// DOIURL turns a bare DOI into its resolver URL.
func DOIURL(doi string) string {
	doi = strings.TrimSpace(doi)
	if doi == "" || strings.HasPrefix(doi, "http") {
		return doi
	}
	return doiPrefix + doi
}
