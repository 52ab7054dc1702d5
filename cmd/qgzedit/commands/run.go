package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/walteh/qgzedit/cmd/qgzedit/opts"
	"github.com/walteh/qgzedit/pkg/config"
	"github.com/walteh/qgzedit/pkg/log"
	"github.com/walteh/qgzedit/pkg/operation"
	"github.com/walteh/qgzedit/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// NewRunCmd creates a new run command
func NewRunCmd(o *opts.RootOpts) *cobra.Command {
	var (
		input   string
		output  string
		postfix string
		report  string
		workers int
		retries int
		quiet   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply the rules to every archive in the input folder",
		Long: `Run edits every project archive found in the input folder.
It will:
1. Load and validate the rules
2. Unpack each archive into its own scratch directory
3. Apply the rules to every project file inside it
4. Write <name><postfix>.qgz to the output folder
5. Print a per-rule and per-archive summary

A broken archive is reported and skipped; the command exits non-zero when
any archive failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var overrides []config.Override
			if cmd.Flags().Changed("input") {
				dir, err := filepath.Abs(input)
				if err != nil {
					return errors.Errorf("resolving --input: %w", err)
				}
				overrides = append(overrides, func(cfg *config.Config) { cfg.InputDir = dir })
			}
			if cmd.Flags().Changed("output") {
				dir, err := filepath.Abs(output)
				if err != nil {
					return errors.Errorf("resolving --output: %w", err)
				}
				overrides = append(overrides, func(cfg *config.Config) { cfg.OutputDir = dir })
			}
			if cmd.Flags().Changed("postfix") {
				overrides = append(overrides, func(cfg *config.Config) { cfg.Postfix = postfix })
			}
			if cmd.Flags().Changed("workers") {
				overrides = append(overrides, func(cfg *config.Config) { cfg.Workers = workers })
			}
			if cmd.Flags().Changed("retries") {
				overrides = append(overrides, func(cfg *config.Config) { cfg.Retries = retries })
			}

			cfg, err := o.LoadConfig(ctx, overrides...)
			if err != nil {
				return err
			}

			ctx = log.NewContext(ctx, log.NewConsole(o.Stdout).Quiet(quiet))
			summary, runErr := operation.NewRunner(cfg, nil).Run(ctx)
			if summary == nil {
				return runErr
			}

			table, err := status.NewTableFormatter().Format(summary)
			if err != nil {
				return errors.Errorf("formatting summary: %w", err)
			}
			fmt.Fprintln(o.Stdout)
			fmt.Fprintln(o.Stdout, table)

			if report != "" {
				if err := status.WriteReport(ctx, report, summary); err != nil {
					return errors.Errorf("writing report: %w", err)
				}
			}

			if runErr != nil {
				return runErr
			}
			if !summary.OK() {
				return errors.Errorf("%d of %d archives failed", summary.Failed, summary.Failed+summary.Succeeded)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "override the input folder")
	cmd.Flags().StringVar(&output, "output", "", "override the output folder")
	cmd.Flags().StringVar(&postfix, "postfix", "", "override the output name postfix")
	cmd.Flags().IntVar(&workers, "workers", 1, "archives processed in parallel")
	cmd.Flags().IntVar(&retries, "retries", 0, "extra attempts for a failing archive")
	cmd.Flags().StringVar(&report, "report", "", "write a JSON run report to this path")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide per-rule lines")

	return cmd
}
