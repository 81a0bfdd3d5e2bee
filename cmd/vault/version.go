package main

import (
	"fmt"
	"runtime"

	"github.com/aussiebroadwan/credvault/internal/vault/app"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vault %s (%s %s/%s)\n",
				app.BuildVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
