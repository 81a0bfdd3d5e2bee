package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aussiebroadwan/credvault/internal/vault/app"
	"github.com/aussiebroadwan/credvault/internal/vault/domain"
	"github.com/aussiebroadwan/credvault/internal/vault/service"
	"github.com/aussiebroadwan/credvault/internal/vault/store/drivers/sqlite"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Inspect stored users",
	}
	users.AddCommand(newUsersListCmd())
	return users
}

func newUsersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users with masked credential state",
		Long: `List every user record. Credentials are never printed: each column shows
whether a value is stored and, when the encryption key is available, whether
it decrypts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			return listUsers(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg)
		},
	}
}

func listUsers(ctx context.Context, out, errOut io.Writer, cfg app.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := sqlite.NewStore("file:" + cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	users, err := st.Users().ListUsers(ctx)
	if err != nil {
		return err
	}

	var bridge *service.StatusBridge
	if cipher, err := loadCipher(cfg); err != nil {
		fmt.Fprintf(errOut, "warning: %v; decryptability not checked\n", err)
	} else {
		bridge = &service.StatusBridge{Store: st, Vault: &service.CredentialVault{Store: st, Cipher: cipher}}
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"User ID", "Email", "Password", "API Key", "Token", "Profile", "Last Login"})

	for _, u := range users {
		apiKey, token := credentialCell(u.HasAPIKey(), nil), credentialCell(u.HasToken(), nil)
		if bridge != nil {
			ds, err := bridge.DebugStatus(ctx, u.ID)
			if err != nil {
				return err
			}
			apiKey = credentialCell(ds.HasAPIKey, ds.APIKeyDecryptable)
			token = credentialCell(ds.HasToken, ds.TokenDecryptable)
		}

		t.AppendRow(table.Row{
			u.ID,
			orDash(u.Email),
			presence(u.Registered()),
			apiKey,
			token,
			profileCell(u),
			timeCell(u.LastLogin),
		})
	}

	t.AppendFooter(table.Row{fmt.Sprintf("%d users", len(users))})
	t.Render()
	return nil
}

func credentialCell(stored bool, decryptable *bool) string {
	switch {
	case !stored:
		return "-"
	case decryptable == nil:
		return "stored"
	case *decryptable:
		return text.FgGreen.Sprint("ok")
	default:
		return text.FgRed.Sprint("undecryptable")
	}
}

func presence(set bool) string {
	if set {
		return "set"
	}
	return "-"
}

func profileCell(u domain.User) string {
	if !u.HasProfile() {
		return "-"
	}
	var p domain.Profile
	if err := json.Unmarshal([]byte(u.ProfileJSON), &p); err != nil || p.IsZero() {
		return text.FgYellow.Sprint("malformed")
	}
	return orDash(p.Name)
}

func timeCell(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
