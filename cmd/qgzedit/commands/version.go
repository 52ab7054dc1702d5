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

package commands

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/qgzedit/cmd/qgzedit/opts"
	"github.com/walteh/qgzedit/pkg/config"
	"github.com/walteh/qgzedit/pkg/rule"
)

// VersionInfo is the build and capability info printed by the version command
type VersionInfo struct {
	Version           string   `json:"version"`
	Revision          string   `json:"revision,omitempty"`
	Dirty             bool     `json:"dirty,omitempty"`
	GoVersion         string   `json:"go_version"`
	ValueTypes        []string `json:"value_types"`
	FallbackEncodings []string `json:"fallback_encodings"`
}

func readVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:           "dev",
		GoVersion:         runtime.Version(),
		FallbackEncodings: config.FallbackEncodings,
	}
	for _, t := range rule.Types() {
		info.ValueTypes = append(info.ValueTypes, string(t))
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		info.Version = v
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			info.Revision = setting.Value
		case "vcs.modified":
			info.Dirty = setting.Value == "true"
		}
	}
	return info
}

// NewVersionCmd creates a new version command
func NewVersionCmd(o *opts.RootOpts) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build info and the supported value types and encodings",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := readVersionInfo()
			if asJSON {
				enc := json.NewEncoder(o.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			revision := info.Revision
			if info.Dirty {
				revision += " (dirty)"
			}
			table, err := pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
				{"qgzedit", info.Version},
				{"revision", revision},
				{"go", info.GoVersion},
				{"value types", strings.Join(info.ValueTypes, ", ")},
				{"fallback encodings", strings.Join(info.FallbackEncodings, ", ")},
			}).Srender()
			if err != nil {
				return err
			}
			fmt.Fprintln(o.Stdout, table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	return cmd
}
