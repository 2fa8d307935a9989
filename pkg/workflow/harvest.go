package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/hermes/pkg/model"
	"github.com/matzehuels/hermes/pkg/plugin"
)

// HarvestResult is the outcome of one harvester.
type HarvestResult struct {
	Plugin    string
	Paths     int
	Duration  time.Duration
	Conflicts []*model.MergeError
	Err       error
}

// HarvestReport lists the harvesters in the order they ran.
type HarvestReport struct {
	Results []HarvestResult
}

// Failed returns the results with an error or conflicts.
func (r *HarvestReport) Failed() []HarvestResult {
	var out []HarvestResult
	for _, res := range r.Results {
		if res.Err != nil || len(res.Conflicts) > 0 {
			out = append(out, res)
		}
	}
	return out
}

// Harvest runs every selected harvester into its own cache slot. A failing
// harvester does not stop the others; its slot is still written with
// whatever it recorded. The returned error joins every harvester failure
// and self-conflict.
func (w *Workflow) Harvest(ctx context.Context) (*HarvestReport, error) {
	report := &HarvestReport{}
	err := w.stage(ctx, StageHarvest, func() error {
		base := model.NewContext(w.Cache, w.Logger)
		if err := base.InitCache(StageHarvest); err != nil {
			return err
		}
		audit := w.Audit()
		audit.Info("# Metadata harvesting")

		var errs []error
		for _, p := range w.Plugins {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := w.harvestOne(ctx, base, p)
			report.Results = append(report.Results, res)

			audit.Info("## Harvest data from "+p.Name, "paths", res.Paths, "duration", res.Duration.Round(time.Millisecond))
			if res.Err != nil {
				audit.Error("harvester failed", "harvester", p.Name, "err", res.Err)
				errs = append(errs, fmt.Errorf("%s: %w", p.Name, res.Err))
			}
			for _, me := range res.Conflicts {
				audit.Error("conflicting values", "harvester", p.Name, "path", me.Path.String(), "err", me)
				errs = append(errs, fmt.Errorf("%s: %w", p.Name, me))
			}
		}
		return errors.Join(errs...)
	})
	return report, err
}

func (w *Workflow) harvestOne(ctx context.Context, base *model.Context, p *plugin.Plugin) HarvestResult {
	h := model.NewHarvestContext(base, p.Name)
	env := w.env(p.Name)

	start := time.Now()
	err := h.Run(func(h *model.HarvestContext) error {
		return p.Harvester.Harvest(ctx, env, h)
	})
	res := HarvestResult{
		Plugin:    p.Name,
		Paths:     len(h.Keys()),
		Duration:  time.Since(start),
		Conflicts: h.Conflicts(),
		Err:       err,
	}

	w.Hooks.Workflow.OnHarvest(ctx, p.Name, res.Paths, res.Duration, err)
	for _, me := range res.Conflicts {
		w.Hooks.Workflow.OnMergeConflict(ctx, p.Name, me.Path.String())
	}
	if err != nil {
		w.Logger.Error("harvester failed", "harvester", p.Name, "err", err)
	} else {
		w.Logger.Info("harvested", "harvester", p.Name, "paths", res.Paths)
	}
	return res
}
