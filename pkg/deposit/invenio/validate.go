package invenio

import (
	_ "embed"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	herrors "github.com/matzehuels/hermes/pkg/errors"
)

const schemaURL = "https://hermes.local/schemas/invenio-deposition.json"

//go:embed deposition.schema.json
var depositionSchema string

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, strings.NewReader(depositionSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaURL)
})

// Validate checks m against the deposition API's requirements.
func Validate(m Metadata) error {
	schema, err := compileSchema()
	if err != nil {
		return herrors.Wrap(herrors.ErrCodeInternal, err, "compile deposition schema")
	}

	// The validator works on generic JSON values.
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return herrors.Wrap(herrors.ErrCodeValidation, err, "deposition metadata: %s", summary(ve))
		}
		return herrors.Wrap(herrors.ErrCodeValidation, err, "deposition metadata")
	}
	return nil
}

// summary lists the failing locations of a validation error.
func summary(ve *jsonschema.ValidationError) string {
	var parts []string
	for _, e := range ve.BasicOutput().Errors {
		if e.Error == "" || strings.HasPrefix(e.Error, "doesn't validate with") {
			continue
		}
		loc := e.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		parts = append(parts, loc+": "+e.Error)
	}
	if len(parts) == 0 {
		return ve.Message
	}
	return strings.Join(parts, "; ")
}
