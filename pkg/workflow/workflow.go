// Package workflow runs the hermes stages on a project directory.
//
// The stages communicate only through the cache, so each can run in a
// separate process invocation:
//
//  1. Harvest: every selected plugin writes its harvest cache slot
//  2. Process: harvest slots are reloaded, processed and merged into one
//     CodeMeta document (process/codemeta.json, process/tags.json and
//     codemeta.json in the project directory)
//  3. Curate: the processed document is approved for deposit
//  4. Deposit: the document is mapped, validated and published
//  5. Postprocess: the published record is reported
//
// # Usage
//
//	wf, err := workflow.New(workflow.Options{Dir: ".", Config: cfg, Logger: logger})
//	if err != nil {
//	    return err
//	}
//	defer wf.Close()
//
//	if _, err := wf.Harvest(ctx); err != nil {
//	    return err
//	}
//	res, err := wf.Process(ctx)
package workflow

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/hermes/pkg/cache"
	"github.com/matzehuels/hermes/pkg/config"
	"github.com/matzehuels/hermes/pkg/httputil"
	"github.com/matzehuels/hermes/pkg/observability"
	"github.com/matzehuels/hermes/pkg/plugin"
	"github.com/matzehuels/hermes/pkg/plugin/plugins"
)

// Stage names, also used as cache stage directories.
const (
	StageHarvest     = "harvest"
	StageProcess     = "process"
	StageCurate      = "curate"
	StageDeposit     = "deposit"
	StagePostprocess = "postprocess"
	StageClean       = "clean"
)

// AuditFile is the audit trail written below the cache root.
const AuditFile = "audit.log"

// Options configure a Workflow. Only Dir is required.
type Options struct {
	// Dir is the project directory.
	Dir string

	// Config defaults to config.Load(Dir, "").
	Config *config.Config

	// Registry defaults to the built-in plugins.
	Registry *plugin.Registry

	// Logger defaults to log.Default().
	Logger *log.Logger

	// HTTPCache caches remote API responses. May be nil.
	HTTPCache *httputil.Cache

	// Hooks observe stages and requests. Zero members are no-ops.
	Hooks observability.Hooks
}

// Workflow is one invocation of hermes on a project. It is not safe for
// concurrent use.
type Workflow struct {
	ID        uuid.UUID
	Dir       string
	Config    *config.Config
	Logger    *log.Logger
	Cache     cache.Cache
	HTTPCache *httputil.Cache
	Plugins   []*plugin.Plugin
	Hooks     observability.Hooks

	audit     *log.Logger
	auditFile *os.File
}

// New prepares a workflow for the project in opts.Dir. The plugins named
// by harvest.sources are selected from the registry.
func New(opts Options) (*Workflow, error) {
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, err
	}

	cfg := opts.Config
	if cfg == nil {
		if cfg, err = config.Load(dir, ""); err != nil {
			return nil, err
		}
	}
	reg := opts.Registry
	if reg == nil {
		reg = plugins.Registry()
	}
	selected, err := reg.Select(cfg.Harvest.Sources)
	if err != nil {
		return nil, err
	}
	c, err := cache.NewFileCache(cfg.CacheDir(dir))
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Workflow{
		ID:        id,
		Dir:       dir,
		Config:    cfg,
		Logger:    logger.With("run", id.String()[:8]),
		Cache:     c,
		HTTPCache: opts.HTTPCache,
		Plugins:   selected,
		Hooks:     opts.Hooks.WithDefaults(),
	}, nil
}

// Close releases the audit log.
func (w *Workflow) Close() error {
	if w.auditFile == nil {
		return nil
	}
	err := w.auditFile.Close()
	w.auditFile, w.audit = nil, nil
	return err
}

// Audit returns the audit trail logger, opening <cache>/audit.log on first
// use. If the file cannot be opened, audit lines go to the workflow logger.
func (w *Workflow) Audit() *log.Logger {
	if w.audit != nil {
		return w.audit
	}
	f, err := w.openAudit()
	if err != nil {
		w.Logger.Warn("cannot open audit log", "err", err)
		w.audit = w.Logger.WithPrefix("audit")
		return w.audit
	}
	w.auditFile = f
	w.audit = log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           log.InfoLevel,
	}).With("run", w.ID.String())
	return w.audit
}

func (w *Workflow) openAudit() (*os.File, error) {
	if err := os.MkdirAll(w.Cache.Root(), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(w.Cache.Root(), AuditFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

// env is what plugin name sees of this workflow.
func (w *Workflow) env(name string) *plugin.Env {
	return &plugin.Env{
		Dir:       w.Dir,
		Config:    w.Config,
		Logger:    w.Logger.With("harvester", name),
		HTTPCache: w.HTTPCache,
		HTTPHooks: w.Hooks.HTTP,
	}
}

// stage runs fn between the stage hooks and logs its duration.
func (w *Workflow) stage(ctx context.Context, name string, fn func() error) error {
	w.Hooks.Workflow.OnStageStart(ctx, name)
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	w.Hooks.Workflow.OnStageComplete(ctx, name, elapsed, err)
	if err == nil {
		w.Logger.Debug("stage complete", "stage", name, "duration", elapsed.Round(time.Millisecond))
	}
	return err
}
