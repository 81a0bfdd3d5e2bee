package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aussiebroadwan/credvault/internal/vault/app"
	"github.com/aussiebroadwan/credvault/internal/vault/domain"
	"github.com/aussiebroadwan/credvault/internal/vault/service"
	"github.com/aussiebroadwan/credvault/internal/vault/store/drivers/sqlite"
	"github.com/aussiebroadwan/credvault/pkg/cryptox"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestKeygenAndKeycheck(t *testing.T) {
	out, err := run(t, "keygen")
	require.NoError(t, err)
	key := strings.TrimSpace(out)

	_, err = cryptox.DecodeKey(key)
	require.NoError(t, err)

	t.Setenv("VAULT_ENCRYPTION_KEY", key)
	out, err = run(t, "keycheck")
	require.NoError(t, err)
	require.Contains(t, out, "encryption key OK")

	t.Setenv("VAULT_ENCRYPTION_KEY", "")
	_, err = run(t, "keycheck")
	require.ErrorIs(t, err, cryptox.ErrConfig)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "vault "+app.BuildVersion), out)
}

func TestUsersListMasksCredentials(t *testing.T) {
	text.DisableColors()
	ctx := context.Background()

	key, err := cryptox.GenerateKey()
	require.NoError(t, err)
	dbFile := filepath.Join(t.TempDir(), "vault.db")

	st, err := sqlite.NewStore("file:" + dbFile)
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())

	cipher, err := cryptox.LoadCipher(cryptox.KeySource{Key: key})
	require.NoError(t, err)
	vault := &service.CredentialVault{Store: st, Cipher: cipher}
	accounts := &service.AccountService{Store: st}

	id, err := accounts.Register(ctx, "a@b.com", "longenough1")
	require.NoError(t, err)
	require.NoError(t, vault.StoreAPIKey(ctx, id, cryptox.NewRedactedToken("secret-api-key")))
	require.NoError(t, st.Users().UpsertEncryptedToken(ctx, id, "sealed-with-another-key"))
	require.NoError(t, vault.StoreProfile(ctx, id, domain.Profile{ID: "ext-1", Name: "Alice"}))
	require.NoError(t, st.Close())

	var out, errOut bytes.Buffer
	cfg := app.Config{DatabaseFile: dbFile, EncryptionKey: key}
	require.NoError(t, listUsers(ctx, &out, &errOut, cfg))

	table := out.String()
	require.Contains(t, table, id)
	require.Contains(t, table, "a@b.com")
	require.Contains(t, table, "Alice")
	require.Contains(t, table, "ok")
	require.Contains(t, table, "undecryptable")
	require.Contains(t, strings.ToLower(table), "1 users", "footers render upper-cased")
	require.NotContains(t, table, "secret-api-key")
	require.Empty(t, errOut.String())

	t.Run("without key", func(t *testing.T) {
		out.Reset()
		errOut.Reset()
		require.NoError(t, listUsers(ctx, &out, &errOut, app.Config{DatabaseFile: dbFile}))
		require.Contains(t, out.String(), "stored")
		require.Contains(t, errOut.String(), "decryptability not checked")
	})
}
