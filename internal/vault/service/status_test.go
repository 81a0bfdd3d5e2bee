package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/credvault/internal/vault/domain"
	"github.com/aussiebroadwan/credvault/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.bridge.Status(ctx, "user-missing")
	require.ErrorIs(t, err, ErrUserNotFound)

	id := env.register(t, "a@b.com")
	st, err := env.bridge.Status(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.AuthStatus{UserID: id, Registered: true, Email: "a@b.com"}, st)
	require.False(t, st.Authenticated())

	require.NoError(t, env.vault.StoreAPIKey(ctx, id, cryptox.NewRedactedToken("k")))
	require.NoError(t, env.vault.StoreToken(ctx, id, cryptox.NewRedactedToken("t")))
	require.NoError(t, env.vault.StoreProfile(ctx, id, domain.Profile{ID: "42", Name: "Alice"}))

	st, err = env.bridge.Status(ctx, id)
	require.NoError(t, err)
	require.True(t, st.HasAPIKey)
	require.True(t, st.Authenticated())
	require.Equal(t, &domain.Profile{ID: "42", Name: "Alice"}, st.Profile)
}

func TestCredentialsAreScopedPerUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	alice := env.register(t, "alice@b.com")
	bob := env.register(t, "bob@b.com")
	require.NoError(t, env.vault.StoreAPIKey(ctx, alice, cryptox.NewRedactedToken("alice-key")))
	require.NoError(t, env.vault.StoreToken(ctx, alice, cryptox.NewRedactedToken("alice-token")))
	require.NoError(t, env.vault.StoreAPIKey(ctx, bob, cryptox.NewRedactedToken("bob-key")))

	ac, err := env.bridge.Credentials(ctx, alice)
	require.NoError(t, err)
	require.True(t, ac.Ready())
	require.Equal(t, "alice-token", ac.AccessToken.Value())

	bc, err := env.bridge.Credentials(ctx, bob)
	require.NoError(t, err)
	require.False(t, bc.Ready())
	require.Equal(t, "bob-key", bc.APIKey.Value())
	require.True(t, bc.AccessToken.IsEmpty())

	actx := WithCredentials(ctx, ac)
	bctx := WithCredentials(ctx, bc)

	got, ok := CredentialsFromContext(actx)
	require.True(t, ok)
	require.Equal(t, alice, got.UserID)
	got, ok = CredentialsFromContext(bctx)
	require.True(t, ok)
	require.Equal(t, bob, got.UserID)

	_, ok = CredentialsFromContext(ctx)
	require.False(t, ok)
}

func TestDebugStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	ds, err := env.bridge.DebugStatus(ctx, "user-missing")
	require.NoError(t, err)
	require.False(t, ds.UserExists)

	id := env.register(t, "a@b.com")
	require.NoError(t, env.vault.StoreToken(ctx, id, cryptox.NewRedactedToken("t")))
	require.NoError(t, env.store.Users().UpsertEncryptedAPIKey(ctx, id, "sealed-with-another-key"))

	ds, err = env.bridge.DebugStatus(ctx, id)
	require.NoError(t, err)
	require.True(t, ds.UserExists)
	require.Equal(t, "a@b.com", ds.Email)
	require.NotNil(t, ds.TokenDecryptable)
	require.True(t, *ds.TokenDecryptable)
	require.NotNil(t, ds.APIKeyDecryptable)
	require.False(t, *ds.APIKeyDecryptable)

	_, err = env.bridge.Credentials(ctx, id)
	require.ErrorIs(t, err, ErrCredentialUndecryptable)
}
