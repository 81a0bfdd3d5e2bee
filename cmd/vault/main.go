package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aussiebroadwan/credvault/internal/vault/app"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vault",
		Short: "Encrypted credential vault and authorization handshake broker",
		Long: `vault stores per-user API keys and bearer tokens encrypted at rest and
supervises the external program that obtains bearer tokens.

Configuration is read from the environment; a .env file in the working
directory is loaded first when present.`,
		Version:      app.BuildVersion,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	root.AddCommand(
		newServeCmd(),
		newKeygenCmd(),
		newKeycheckCmd(),
		newUsersCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: .env not loaded: %v\n", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
