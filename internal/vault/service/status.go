package service

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/credvault/internal/vault/domain"
	"github.com/aussiebroadwan/credvault/internal/vault/store"
)

// StatusBridge answers "is this user authenticated" from durable storage and
// hands decrypted credentials to the agent boundary as an explicit value.
type StatusBridge struct {
	Store store.Store
	Vault *CredentialVault
}

// Status reads the user's record. It never consults the in-memory handshake
// registry, so the answer survives restarts.
func (b *StatusBridge) Status(ctx context.Context, userID string) (domain.AuthStatus, error) {
	u, err := b.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.AuthStatus{}, ErrUserNotFound
	}
	if err != nil {
		return domain.AuthStatus{}, err
	}
	return statusOf(ctx, u), nil
}

func statusOf(ctx context.Context, u domain.User) domain.AuthStatus {
	return domain.AuthStatus{
		UserID:     u.ID,
		Registered: u.Registered(),
		Email:      u.Email,
		HasAPIKey:  u.HasAPIKey(),
		HasToken:   u.HasToken(),
		Profile:    decodeProfile(ctx, u),
	}
}

// Credentials decrypts the user's API key and token into a context value for
// one invocation of the agent. Missing credentials are left empty; stored
// but undecryptable ones fail with ErrCredentialUndecryptable.
//
// The caller is the agent-invocation boundary, which passes the result to
// WithCredentials instead of exporting the secrets as process environment.
func (b *StatusBridge) Credentials(ctx context.Context, userID string) (domain.CredentialContext, error) {
	u, err := b.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.CredentialContext{}, ErrUserNotFound
	}
	if err != nil {
		return domain.CredentialContext{}, err
	}

	apiKey, _, err := b.Vault.open(u.EncryptedAPIKey, "api key")
	if err != nil {
		return domain.CredentialContext{}, err
	}
	token, _, err := b.Vault.open(u.EncryptedToken, "token")
	if err != nil {
		return domain.CredentialContext{}, err
	}

	return domain.CredentialContext{
		UserID:      u.ID,
		APIKey:      apiKey,
		AccessToken: token,
		Profile:     decodeProfile(ctx, u),
	}, nil
}

// DebugStatus reports presence flags plus whether each stored ciphertext
// opens under the current key. Unknown users are reported, not rejected.
func (b *StatusBridge) DebugStatus(ctx context.Context, userID string) (domain.DebugStatus, error) {
	u, err := b.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.DebugStatus{}, nil
	}
	if err != nil {
		return domain.DebugStatus{}, err
	}

	ds := domain.DebugStatus{
		UserExists: true,
		Email:      u.Email,
		HasAPIKey:  u.HasAPIKey(),
		HasToken:   u.HasToken(),
		HasProfile: u.HasProfile(),
	}
	if u.HasAPIKey() {
		_, _, err := b.Vault.open(u.EncryptedAPIKey, "api key")
		ok := err == nil
		ds.APIKeyDecryptable = &ok
	}
	if u.HasToken() {
		_, _, err := b.Vault.open(u.EncryptedToken, "token")
		ok := err == nil
		ds.TokenDecryptable = &ok
	}
	return ds, nil
}

type credentialsKey struct{}

// WithCredentials attaches cc to ctx for the agent invocation it scopes. The
// agent runner reads it back with CredentialsFromContext.
func WithCredentials(ctx context.Context, cc domain.CredentialContext) context.Context {
	return context.WithValue(ctx, credentialsKey{}, cc)
}

// CredentialsFromContext returns the credentials attached by WithCredentials.
func CredentialsFromContext(ctx context.Context) (domain.CredentialContext, bool) {
	cc, ok := ctx.Value(credentialsKey{}).(domain.CredentialContext)
	return cc, ok
}
