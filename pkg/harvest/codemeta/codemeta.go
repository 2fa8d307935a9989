// Package codemeta harvests an existing codemeta.json, including one
// written by an earlier run of the process stage.
package codemeta

import (
	"context"
	"errors"

	herrors "github.com/matzehuels/hermes/pkg/errors"
	"github.com/matzehuels/hermes/pkg/harvest"
	"github.com/matzehuels/hermes/pkg/model"
	"github.com/matzehuels/hermes/pkg/plugin"
)

// FileName is the CodeMeta document read from the project directory.
const FileName = "codemeta.json"

// Plugin harvests codemeta.json.
var Plugin = &plugin.Plugin{
	Name:        "codemeta",
	Description: "CodeMeta document (" + FileName + ")",
	Harvester:   plugin.HarvesterFunc(Harvest),
}

// Harvest records every leaf of codemeta.json. A project without the file
// contributes nothing.
func Harvest(_ context.Context, env *plugin.Env, h *model.HarvestContext) error {
	data, err := harvest.ReadSource(env, FileName)
	if errors.Is(err, harvest.ErrNoSource) {
		env.Logger.Debug("no codemeta file found", "file", FileName)
		return nil
	}
	if err != nil {
		return err
	}

	doc := model.Null()
	if err := doc.UnmarshalJSON(data); err != nil {
		return herrors.Wrap(herrors.ErrCodeInvalidInput, err, "parse %s", FileName)
	}
	if doc.Kind() != model.KindMapping {
		return herrors.New(herrors.ErrCodeInvalidInput, "%s must hold a JSON object, got %s", FileName, doc.Kind())
	}
	return h.UpdateFrom(doc)
}
