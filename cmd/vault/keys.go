package main

import (
	"fmt"

	"github.com/aussiebroadwan/credvault/internal/vault/app"
	"github.com/aussiebroadwan/credvault/pkg/cryptox"
	"github.com/spf13/cobra"
)

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Print a fresh encryption key for VAULT_ENCRYPTION_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := cryptox.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

func newKeycheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keycheck",
		Short: "Validate the configured encryption key with a round trip",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}

			cipher, err := loadCipher(cfg)
			if err != nil {
				return err
			}
			if err := cipher.SelfTest(); err != nil {
				return fmt.Errorf("key self-test failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "encryption key OK")
			return nil
		},
	}
}

func loadCipher(cfg app.Config) (*cryptox.Cipher, error) {
	cipher, err := cryptox.LoadCipher(cryptox.KeySource{
		Key:  cfg.EncryptionKey,
		Path: cfg.EncryptionKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w (generate one with `vault keygen`)", err)
	}
	return cipher, nil
}
