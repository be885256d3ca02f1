package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chatd/internal/httpapi"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "chatd %s (api %s)\n", version, httpapi.APIVersion)
			return nil
		},
	}
}
