package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xKoRx/openapi-proxy/internal/command"
)

func newCommandsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List the commands accepted by /get-data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := command.DefaultRegistry()
			if err != nil {
				return fmt.Errorf("build command registry: %w", err)
			}
			contracts := make([]command.Contract, 0)
			for _, d := range registry.Descriptors() {
				contracts = append(contracts, d.Contract())
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(contracts)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COMMAND\tACCOUNT\tUSAGE")
			for _, c := range contracts {
				account := "-"
				if c.RequiresActiveAccount {
					account = "required"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, account, strings.TrimSpace(c.Usage))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the contracts as JSON")
	return cmd
}
