// Package observability provides hooks for metrics, tracing and logging.
//
// Hooks are plain values handed to the workflow and the HTTP clients when
// they are constructed; nothing is registered globally. Every hook
// interface has a no-op implementation and a logging implementation:
//
//	hooks := observability.Noop()
//	if verbose {
//	    hooks = observability.Logged(logger)
//	}
//	wf, err := workflow.New(workflow.Options{Hooks: hooks, ...})
package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// =============================================================================
// Workflow Hooks
// =============================================================================

// WorkflowHooks receives events from workflow stages.
type WorkflowHooks interface {
	// Stage events (harvest, process, curate, deposit, postprocess)
	OnStageStart(ctx context.Context, stage string)
	OnStageComplete(ctx context.Context, stage string, duration time.Duration, err error)

	// OnHarvest records the outcome of one harvester.
	OnHarvest(ctx context.Context, plugin string, paths int, duration time.Duration, err error)

	// OnMergeConflict records a path a harvester contradicted itself on.
	OnMergeConflict(ctx context.Context, plugin, path string)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from response cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, key string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, key string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, key string)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// Hooks bundles one implementation of each hook interface.
type Hooks struct {
	Workflow WorkflowHooks
	Cache    CacheHooks
	HTTP     HTTPHooks
}

// Noop returns hooks that ignore every event.
func Noop() Hooks {
	return Hooks{
		Workflow: NoopWorkflowHooks{},
		Cache:    NoopCacheHooks{},
		HTTP:     NoopHTTPHooks{},
	}
}

// Logged returns hooks that write every event to logger at debug level.
func Logged(logger *log.Logger) Hooks {
	l := LogHooks{Logger: logger}
	return Hooks{Workflow: l, Cache: l, HTTP: l}
}

// WithDefaults returns h with nil members replaced by no-op implementations.
func (h Hooks) WithDefaults() Hooks {
	if h.Workflow == nil {
		h.Workflow = NoopWorkflowHooks{}
	}
	if h.Cache == nil {
		h.Cache = NoopCacheHooks{}
	}
	if h.HTTP == nil {
		h.HTTP = NoopHTTPHooks{}
	}
	return h
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopWorkflowHooks is a no-op implementation of WorkflowHooks.
type NoopWorkflowHooks struct{}

func (NoopWorkflowHooks) OnStageStart(context.Context, string)                          {}
func (NoopWorkflowHooks) OnStageComplete(context.Context, string, time.Duration, error) {}
func (NoopWorkflowHooks) OnHarvest(context.Context, string, int, time.Duration, error)  {}
func (NoopWorkflowHooks) OnMergeConflict(context.Context, string, string)               {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)  {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string) {}
func (NoopCacheHooks) OnCacheSet(context.Context, string)  {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Logging Implementation
// =============================================================================

// LogHooks implements every hook interface by logging at debug level.
type LogHooks struct {
	Logger *log.Logger
}

func (l LogHooks) OnStageStart(_ context.Context, stage string) {
	l.Logger.Debug("stage started", "stage", stage)
}

func (l LogHooks) OnStageComplete(_ context.Context, stage string, d time.Duration, err error) {
	l.Logger.Debug("stage finished", "stage", stage, "duration", d.Round(time.Millisecond), "err", err)
}

func (l LogHooks) OnHarvest(_ context.Context, plugin string, paths int, d time.Duration, err error) {
	l.Logger.Debug("harvester finished", "harvester", plugin, "paths", paths, "duration", d.Round(time.Millisecond), "err", err)
}

func (l LogHooks) OnMergeConflict(_ context.Context, plugin, path string) {
	l.Logger.Debug("merge conflict", "harvester", plugin, "path", path)
}

func (l LogHooks) OnCacheHit(_ context.Context, key string) { l.Logger.Debug("cache hit", "key", key) }
func (l LogHooks) OnCacheMiss(_ context.Context, key string) {
	l.Logger.Debug("cache miss", "key", key)
}
func (l LogHooks) OnCacheSet(_ context.Context, key string) { l.Logger.Debug("cache set", "key", key) }

func (l LogHooks) OnRequest(_ context.Context, method, host, path string) {
	l.Logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (l LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	l.Logger.Debug("http response", "method", method, "host", host, "path", path,
		"status", status, "duration", d.Round(time.Millisecond))
}

func (l LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	l.Logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}
