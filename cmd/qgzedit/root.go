// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"github.com/spf13/cobra"
	"github.com/walteh/qgzedit/cmd/qgzedit/commands"
	"github.com/walteh/qgzedit/cmd/qgzedit/opts"
	"github.com/walteh/qgzedit/pkg/rule"
)

// exit codes
const (
	exitFailure       = 1
	exitConfiguration = 2
)

// newRootCmd builds the command tree around shared options
func newRootCmd(o *opts.RootOpts) *cobra.Command {
	root := &cobra.Command{
		Use:   "qgzedit",
		Short: "Batch find/replace inside QGIS project archives",
		Long: `qgzedit rewrites text inside .qgz project archives.

Every rule is a literal search and replace. Replacements never feed into
other rules, so swapping two values or chaining rules is safe. Each archive
is written next to the others in the output folder with a postfix, and the
originals are never modified.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := o.Logger()
			cmd.SetContext(logger.WithContext(cmd.Context()))
		},
	}

	addRootFlags(root, o)

	root.AddCommand(
		commands.NewRunCmd(o),
		commands.NewValidateCmd(o),
		commands.NewTypesCmd(o),
		commands.NewVersionCmd(o),
	)

	root.SetOut(o.Stdout)
	root.SetErr(o.Stderr)

	return root
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, o *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&o.ConfigFile, "config", "c", "config.json", "config file path (.json, .yaml, .hcl)")
	cmd.PersistentFlags().BoolVarP(&o.Debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&o.JSONLogs, "json-logs", false, "write structured JSON logs to stderr")
}

// exitCode maps an error to the process exit status
func exitCode(err error) int {
	if rule.IsConfigurationError(err) {
		return exitConfiguration
	}
	return exitFailure
}
