// Package cli implements the hermes command-line interface.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/hermes/pkg/buildinfo"
	"github.com/matzehuels/hermes/pkg/config"
	"github.com/matzehuels/hermes/pkg/httputil"
	"github.com/matzehuels/hermes/pkg/observability"
	"github.com/matzehuels/hermes/pkg/workflow"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "hermes"

	// httpCacheTTL bounds how long downloaded API responses are reused.
	httpCacheTTL = 24 * time.Hour
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	dir        string // --path
	configFile string // --config
	noCache    bool   // --no-cache
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), dir: "."}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Hermes publishes research software metadata",
		Long: `Hermes harvests metadata about a software project from its citation file,
package manifests, git history and hosting platform, merges it into one
CodeMeta document and deposits it on an Invenio-based archive such as Zenodo.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVarP(&c.dir, "path", "p", ".", "project directory")
	flags.StringVar(&c.configFile, "config", "", "configuration file (default <path>/"+config.FileName+")")
	flags.BoolVar(&c.noCache, "no-cache", false, "do not reuse cached API responses")

	root.AddCommand(c.harvestCommand())
	root.AddCommand(c.processCommand())
	root.AddCommand(c.curateCommand())
	root.AddCommand(c.depositCommand())
	root.AddCommand(c.postprocessCommand())
	root.AddCommand(c.cleanCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Workflow Factory
// =============================================================================

// newWorkflow creates a workflow for the project selected by --path.
// The caller closes it.
func (c *CLI) newWorkflow() (*workflow.Workflow, error) {
	cfg, err := config.Load(c.dir, c.configFile)
	if err != nil {
		return nil, err
	}
	return workflow.New(workflow.Options{
		Dir:       c.dir,
		Config:    cfg,
		Logger:    c.Logger,
		HTTPCache: c.httpCache(),
		Hooks:     observability.Logged(c.Logger),
	})
}

// httpCache returns the response cache, or nil when disabled or unusable.
func (c *CLI) httpCache() *httputil.Cache {
	if c.noCache {
		return nil
	}
	hc, err := httputil.NewCache("", httpCacheTTL)
	if err != nil {
		c.Logger.Warn("response cache disabled", "err", err)
		return nil
	}
	return hc
}
