package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	herrors "github.com/matzehuels/hermes/pkg/errors"
	"github.com/matzehuels/hermes/pkg/workflow"
)

// harvestCommand creates the harvest command.
func (c *CLI) harvestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "harvest",
		Short: "Collect metadata from the configured sources",
		Long: `Run every harvester listed in harvest.sources and store its output in the
harvest stage of the cache. A failing harvester does not stop the others.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := c.newWorkflow()
			if err != nil {
				return err
			}
			defer wf.Close()

			prog := newProgress(c.Logger)
			report, err := wf.Harvest(cmd.Context())
			for _, res := range report.Results {
				printHarvestResult(res)
			}
			if failed := report.Failed(); err != nil && len(failed) > 0 {
				return fmt.Errorf("%d of %d harvesters failed", len(failed), len(report.Results))
			} else if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Harvested %d sources", len(report.Results)))

			printNewline()
			printNextStep("Merge the harvested data", appName+" process")
			return nil
		},
	}
}

// processCommand creates the process command.
func (c *CLI) processCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Merge harvested metadata into one CodeMeta document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := c.newWorkflow()
			if err != nil {
				return err
			}
			defer wf.Close()

			prog := newProgress(c.Logger)
			res, err := wf.Process(cmd.Context())
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Processed %d harvesters", len(wf.Plugins)-len(res.Skipped)))

			printSuccess("Merged %s paths", StyleNumber.Render(strconv.Itoa(len(res.Tags))))
			printFile(res.Output)
			for _, name := range res.Skipped {
				printWarning("No output data from harvester %s", name)
			}
			for _, f := range res.Errors {
				printWarning("%s", f.Error())
			}

			printNewline()
			printNextStep("Review the result", appName+" curate")
			return nil
		},
	}
}

// curateCommand creates the curate command.
func (c *CLI) curateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "curate",
		Short: "Approve the processed metadata for deposit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := c.newWorkflow()
			if err != nil {
				return err
			}
			defer wf.Close()

			if _, err := wf.Curate(cmd.Context()); err != nil {
				return err
			}
			path, err := wf.Cache.Path(false, workflow.StageCurate, workflow.CodeMetaSlot)
			if err != nil {
				return err
			}
			printSuccess("Metadata approved for deposit")
			printFile(path)

			printNewline()
			printNextStep("Publish the record", appName+" deposit --file <archive>")
			return nil
		},
	}
}

// depositCommand creates the deposit command.
func (c *CLI) depositCommand() *cobra.Command {
	var (
		token string
		files []string
	)

	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Publish the metadata and files on the deposition platform",
		Long: `Map the curated CodeMeta document onto the platform's deposition metadata,
validate it, upload the given files and publish the record.

The token is read from --token or the HERMES_DEPOSIT_TOKEN environment variable.`,
		Example: `  hermes deposit --file dist/project-1.0.tar.gz
  hermes deposit --file paper.pdf --file dist/project-1.0.zip`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("HERMES_DEPOSIT_TOKEN")
			}

			wf, err := c.newWorkflow()
			if err != nil {
				return err
			}
			defer wf.Close()

			site := wf.Config.Deposit.Invenio.SiteURL
			spinner := newSpinnerWithContext(cmd.Context(), "Depositing on "+site+"...")
			spinner.Start()
			rec, err := wf.Deposit(cmd.Context(), workflow.DepositOptions{Token: token, Files: files})
			if err != nil {
				spinner.StopWithError("Deposit failed")
				return err
			}
			spinner.StopWithSuccess("Published record " + strconv.FormatInt(rec.ID, 10))
			printRecord(rec)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "auth token for the deposition platform")
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "file to upload with the record (repeatable)")

	return cmd
}

// postprocessCommand creates the postprocess command.
func (c *CLI) postprocessCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "postprocess",
		Short: "Show the record published by the last deposit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := c.newWorkflow()
			if err != nil {
				return err
			}
			defer wf.Close()

			rec, err := wf.Postprocess(cmd.Context())
			if err != nil {
				if herrors.Is(err, herrors.ErrCodeCacheMissing) {
					printInfo("No published record")
					return nil
				}
				return err
			}
			printRecord(rec)
			return nil
		},
	}
}

// cleanCommand creates the clean command.
func (c *CLI) cleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the workflow cache of the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := c.newWorkflow()
			if err != nil {
				return err
			}
			defer wf.Close()

			if err := wf.Clean(cmd.Context()); err != nil {
				return err
			}
			printSuccess("Removed %s", wf.Cache.Root())
			return nil
		},
	}
}
