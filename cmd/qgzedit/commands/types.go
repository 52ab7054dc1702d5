package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/qgzedit/cmd/qgzedit/opts"
	"github.com/walteh/qgzedit/pkg/rule"
)

// NewTypesCmd creates a new types command
func NewTypesCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the value types a rule can declare",
		RunE: func(cmd *cobra.Command, args []string) error {
			data := pterm.TableData{{"type", "name", "example", "description"}}
			for _, t := range rule.Types() {
				info, _ := rule.Lookup(t)
				label := string(t)
				if t == rule.DefaultType {
					label += " (default)"
				}
				data = append(data, []string{label, info.Name, info.Example, info.Description})
			}

			table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
			if err != nil {
				return err
			}
			fmt.Fprintln(o.Stdout, table)
			return nil
		},
	}

	return cmd
}
