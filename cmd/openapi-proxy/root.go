package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version se sobrescribe con -ldflags "-X main.version=..."
var version = "dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "openapi-proxy",
		Short:         "HTTP proxy for the cTrader Open API",
		Long:          "openapi-proxy keeps one authenticated session with the cTrader Open API and exposes its commands as plain HTTP calls.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newCommandsCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "openapi-proxy %s\n", version)
		},
	}
}
