package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/qgzedit/cmd/qgzedit/opts"
)

// NewValidateCmd creates a new validate command
func NewValidateCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration without touching any archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.LoadConfig(cmd.Context())
			if err != nil {
				return err
			}

			data := pterm.TableData{{"#", "type", "search", "replace"}}
			for i, r := range cfg.Rules {
				data = append(data, []string{fmt.Sprint(i + 1), string(r.Type), r.Search, r.Replace})
			}
			table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
			if err != nil {
				return err
			}
			fmt.Fprintln(o.Stdout, table)

			for _, w := range cfg.Warnings() {
				fmt.Fprint(o.Stdout, pterm.Warning.Sprintln(w.String()))
			}
			fmt.Fprint(o.Stdout, pterm.Success.Sprintfln("%d rules valid (%s)", len(cfg.Rules), cfg))

			return nil
		},
	}

	return cmd
}
