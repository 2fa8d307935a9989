package workflow

import (
	"context"
	"errors"

	"github.com/matzehuels/hermes/pkg/cache"
	"github.com/matzehuels/hermes/pkg/deposit/invenio"
	herrors "github.com/matzehuels/hermes/pkg/errors"
	"github.com/matzehuels/hermes/pkg/model"
)

// RecordSlot holds the published record in the deposit stage.
const RecordSlot = "record"

// Curate approves the processed document for deposit by copying it into
// the curate stage. Review tooling can edit curate/codemeta.json in place.
func (w *Workflow) Curate(ctx context.Context) (*model.Value, error) {
	var doc *model.Value
	err := w.stage(ctx, StageCurate, func() error {
		var err error
		if doc, err = w.loadStage(StageProcess); err != nil {
			return err
		}
		if err := w.Cache.Init(StageCurate); err != nil {
			return err
		}
		if err := cache.NewScoped(w.Cache, StageCurate).Store(doc, CodeMetaSlot); err != nil {
			return err
		}
		w.Audit().Info("# Metadata curation", "source", StageProcess)
		return nil
	})
	return doc, err
}

// DepositOptions are the per-invocation inputs of Deposit.
type DepositOptions struct {
	// Token authenticates against the deposition platform.
	Token string

	// Files are uploaded with the record. At least one is required.
	Files []string
}

// Deposit publishes the curated document, or the processed one if curate
// was skipped, to the configured platform.
func (w *Workflow) Deposit(ctx context.Context, opts DepositOptions) (*invenio.Record, error) {
	var rec *invenio.Record
	err := w.stage(ctx, StageDeposit, func() error {
		if w.Config.Deposit.Target != "invenio" {
			return herrors.New(herrors.ErrCodeUnsupported, "unknown deposit target %q", w.Config.Deposit.Target)
		}
		if opts.Token == "" {
			return herrors.New(herrors.ErrCodeUnauthorized, "no auth token given for deposition platform")
		}

		source := StageCurate
		doc, err := w.loadStage(StageCurate)
		if herrors.Is(err, herrors.ErrCodeCacheMissing) {
			source = StageProcess
			doc, err = w.loadStage(StageProcess)
		}
		if err != nil {
			return err
		}
		w.Logger.Debug("depositing metadata", "source", source)

		dc := model.NewContext(w.Cache, w.Logger)
		if _, err := dc.Update(invenio.CodeMetaPath, doc); err != nil {
			return err
		}
		if err := w.Cache.Init(StageDeposit); err != nil {
			return err
		}

		d := invenio.New(w.Config.Deposit.Invenio, invenio.Options{
			Token:     opts.Token,
			HTTPCache: w.HTTPCache,
			Hooks:     w.Hooks,
			Logger:    w.Logger,
		})
		if err := d.Prepare(ctx, dc); err != nil {
			return err
		}
		if _, err := d.Map(ctx, dc); err != nil {
			return err
		}
		if rec, err = d.Deposit(ctx, dc, opts.Files); err != nil {
			return err
		}
		if err := cache.NewScoped(w.Cache, StageDeposit).Store(rec, RecordSlot); err != nil {
			return err
		}
		w.Audit().Info("# Metadata deposition", "source", source, "doi", rec.DOI, "url", rec.Links.RecordHTML)
		return nil
	})
	return rec, err
}

// Postprocess returns the record published by the last Deposit.
func (w *Workflow) Postprocess(ctx context.Context) (*invenio.Record, error) {
	var rec invenio.Record
	err := w.stage(ctx, StagePostprocess, func() error {
		err := cache.NewScoped(w.Cache, StageDeposit).Load(&rec, RecordSlot)
		if errors.Is(err, cache.ErrNotFound) {
			return herrors.Wrap(herrors.ErrCodeCacheMissing, err, "no published record found, run deposit first")
		}
		if err != nil {
			return err
		}
		w.Audit().Info("# Postprocessing", "doi", rec.DOI)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Clean removes the cache root, audit log included.
func (w *Workflow) Clean(ctx context.Context) error {
	return w.stage(ctx, StageClean, func() error {
		if err := w.Close(); err != nil {
			w.Logger.Warn("cannot close audit log", "err", err)
		}
		return model.NewContext(w.Cache, w.Logger).PurgeCaches()
	})
}

// loadStage reads the codemeta slot of stage.
func (w *Workflow) loadStage(stage string) (*model.Value, error) {
	doc := model.Null()
	err := cache.NewScoped(w.Cache, stage).Load(doc, CodeMetaSlot)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, herrors.Wrap(herrors.ErrCodeCacheMissing, err, "no %s data found, run %s first", stage, stage)
	}
	return doc, err
}
