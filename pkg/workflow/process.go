package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/matzehuels/hermes/pkg/cache"
	herrors "github.com/matzehuels/hermes/pkg/errors"
	"github.com/matzehuels/hermes/pkg/model"
	"github.com/matzehuels/hermes/pkg/plugin"
)

// Cache slots written by the process stage.
const (
	TagsSlot     = "tags"
	CodeMetaSlot = "codemeta"
)

// OutputFile is the merged document written to the project directory.
const OutputFile = "codemeta.json"

// ProcessResult is the merged CodeMeta document and its provenance.
type ProcessResult struct {
	CodeMeta *model.Value
	Tags     map[string][]string
	Errors   []model.MergeFailure
	Skipped  []string
	Output   string
}

// Process reloads the harvest cache slots, runs each plugin's processors and
// merges the results in plugin order. Processor and merge errors are
// recorded in the result and the audit log, and the failing harvester
// contributes nothing; they do not fail the stage. A missing harvest stage
// or an unreadable slot does.
func (w *Workflow) Process(ctx context.Context) (*ProcessResult, error) {
	var res *ProcessResult
	err := w.stage(ctx, StageProcess, func() error {
		var err error
		res, err = w.process(ctx)
		return err
	})
	return res, err
}

func (w *Workflow) process(ctx context.Context) (*ProcessResult, error) {
	if !w.Cache.Initialized(StageHarvest) {
		return nil, herrors.New(herrors.ErrCodeCacheMissing, "no harvest data found in %s, run harvest first", w.Cache.Root())
	}

	base := model.NewCodeMetaContext(w.Cache, w.Logger)
	if err := base.InitCache(StageProcess); err != nil {
		return nil, err
	}
	audit := w.Audit()
	audit.Info("# Metadata processing")

	res := &ProcessResult{}
	for _, p := range w.Plugins {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h := model.NewHarvestContext(base.Context, p.Name)
		if err := h.LoadCache(); err != nil {
			if errors.Is(err, cache.ErrNotFound) {
				w.Logger.Warn("no output data from harvester, skipping", "harvester", p.Name)
				res.Skipped = append(res.Skipped, p.Name)
				continue
			}
			return nil, fmt.Errorf("load harvest data from %s: %w", p.Name, err)
		}

		audit.Info("## Process data from "+p.Name, "paths", len(h.Keys()))
		if err := w.runProcessors(ctx, p, base, h); err != nil {
			w.Logger.Warn("processor failed, skipping harvester output", "harvester", p.Name, "err", err)
			base.AddError(p.Name, err)
			continue
		}
		if err := base.MergeFrom(h); err != nil {
			for _, me := range h.Conflicts() {
				w.Hooks.Workflow.OnMergeConflict(ctx, p.Name, me.Path.String())
			}
			w.Logger.Warn("merge failed", "harvester", p.Name, "err", err)
		}
	}

	res.Errors = base.Errors()
	if len(res.Errors) > 0 {
		audit.Error("errors during merge", "count", len(res.Errors))
		for _, f := range res.Errors {
			audit.Error("  - "+f.Error(), "harvester", f.Source)
		}
	}

	res.CodeMeta = base.Data()
	res.Tags = base.Tags()

	scoped := cache.NewScoped(w.Cache, StageProcess)
	if err := scoped.Store(res.Tags, TagsSlot); err != nil {
		return nil, err
	}
	if err := scoped.Store(res.CodeMeta, CodeMetaSlot); err != nil {
		return nil, err
	}

	out, err := w.writeOutput(res.CodeMeta)
	if err != nil {
		return nil, err
	}
	res.Output = out
	w.Logger.Info("wrote codemeta", "path", out, "paths", len(res.Tags), "errors", len(res.Errors))
	return res, nil
}

func (w *Workflow) runProcessors(ctx context.Context, p *plugin.Plugin, base *model.CodeMetaContext, h *model.HarvestContext) error {
	env := w.env(p.Name)
	for _, proc := range p.Processors {
		if err := proc.Process(ctx, env, base, h); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workflow) writeOutput(v *model.Value) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(w.Dir, OutputFile)
	if err := renameio.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", herrors.Wrap(herrors.ErrCodeInternal, err, "write %s", path)
	}
	return path, nil
}
