package invenio

import (
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"

	"github.com/matzehuels/hermes/pkg/config"
	"github.com/matzehuels/hermes/pkg/model"
)

const (
	orcidPrefix = "https://orcid.org/"
	spdxPrefix  = "https://spdx.org/licenses/"
)

// FromCodeMeta maps a CodeMeta document onto deposition metadata.
// Values missing from the document are taken from cfg.
func FromCodeMeta(codemeta *model.Value, cfg config.InvenioConfig, today time.Time) (Metadata, error) {
	m := Metadata{
		UploadType:      "software",
		PublicationDate: today.Format(time.DateOnly),
		Title:           text(field(codemeta, "name")),
		Description:     text(field(codemeta, "description")),
		License:         license(field(codemeta, "license")),
		PrereserveDOI:   true,
		Keywords:        keywords(field(codemeta, "keywords")),
		Version:         text(field(codemeta, "version")),
	}
	for _, a := range agents(field(codemeta, "author")) {
		if c, ok := creator(a); ok {
			m.Creators = append(m.Creators, c)
		}
	}

	defaults := Metadata{AccessRight: cfg.AccessRight, License: cfg.License}
	for _, id := range cfg.Communities {
		defaults.Communities = append(defaults.Communities, Community{Identifier: id})
	}
	if err := mergo.Merge(&m, defaults); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

func creator(a *model.Value) (Creator, bool) {
	var c Creator
	family, given := text(field(a, "familyName")), text(field(a, "givenName"))
	if family != "" && given != "" {
		c.Name = family + ", " + given
	} else {
		c.Name = text(field(a, "name"))
	}
	if c.Name == "" {
		return c, false
	}

	aff := field(a, "affiliation")
	if aff.Kind() == model.KindSequence && aff.Len() > 0 {
		aff, _ = aff.Item(0)
	}
	if aff.Kind() == model.KindMapping {
		c.Affiliation = text(field(aff, "legalName"))
		if c.Affiliation == "" {
			c.Affiliation = text(field(aff, "name"))
		}
	} else {
		c.Affiliation = text(aff)
	}

	if id := text(field(a, "@id")); strings.HasPrefix(id, orcidPrefix) {
		c.ORCID = strings.TrimPrefix(id, orcidPrefix)
	}
	return c, true
}

// agents accepts a single agent or a list of them.
func agents(v *model.Value) []*model.Value {
	switch v.Kind() {
	case model.KindMapping:
		return []*model.Value{v}
	case model.KindSequence:
		return v.Items()
	}
	return nil
}

func license(v *model.Value) string {
	if v.Kind() == model.KindSequence && v.Len() > 0 {
		v, _ = v.Item(0)
	}
	if v.Kind() == model.KindMapping {
		v = field(v, "identifier")
	}
	id := strings.TrimPrefix(text(v), spdxPrefix)
	for _, ext := range []string{".html", ".json"} {
		id = strings.TrimSuffix(id, ext)
	}
	return id
}

func keywords(v *model.Value) []string {
	if s := text(v); s != "" {
		var out []string
		for _, k := range strings.Split(s, ",") {
			if k = strings.TrimSpace(k); k != "" {
				out = append(out, k)
			}
		}
		return out
	}
	var out []string
	for _, it := range v.Items() {
		if s := text(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// field returns v[k], or null when v is not a mapping or lacks k.
func field(v *model.Value, k string) *model.Value {
	if f, ok := v.Field(k); ok {
		return f
	}
	return model.Null()
}

// text renders a scalar as a string; numbers keep their shortest form.
func text(v *model.Value) string {
	if s, ok := v.Str(); ok {
		return strings.TrimSpace(s)
	}
	if f, ok := v.Num(); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}
