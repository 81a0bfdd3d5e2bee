package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/credvault/internal/vault/domain"
	"github.com/aussiebroadwan/credvault/internal/vault/store"
	"github.com/aussiebroadwan/credvault/pkg/cryptox"
	"github.com/aussiebroadwan/credvault/pkg/slogx"
)

// CredentialVault encrypts credentials on the way into the store and decrypts
// them on the way out. Every write is a single upsert statement, so a record
// is never left half-written.
type CredentialVault struct {
	Store  store.Store
	Cipher *cryptox.Cipher
}

// StoreToken encrypts and upserts the bearer token.
func (v *CredentialVault) StoreToken(ctx context.Context, userID string, token cryptox.RedactedToken) error {
	ct, err := v.Cipher.EncryptString(token.Value())
	if err != nil {
		return err
	}
	return v.Store.Users().UpsertEncryptedToken(ctx, userID, ct)
}

// Token returns the bearer token. ok is false when none is stored. A token
// that is stored but cannot be decrypted yields ErrCredentialUndecryptable.
func (v *CredentialVault) Token(ctx context.Context, userID string) (token cryptox.RedactedToken, ok bool, err error) {
	u, err := v.user(ctx, userID)
	if err != nil {
		return cryptox.RedactedToken{}, false, err
	}
	return v.open(u.EncryptedToken, "token")
}

// StoreAPIKey encrypts and upserts the platform API key.
func (v *CredentialVault) StoreAPIKey(ctx context.Context, userID string, apiKey cryptox.RedactedToken) error {
	ct, err := v.Cipher.EncryptString(apiKey.Value())
	if err != nil {
		return err
	}
	return v.Store.Users().UpsertEncryptedAPIKey(ctx, userID, ct)
}

// APIKey is Token for the API key.
func (v *CredentialVault) APIKey(ctx context.Context, userID string) (apiKey cryptox.RedactedToken, ok bool, err error) {
	u, err := v.user(ctx, userID)
	if err != nil {
		return cryptox.RedactedToken{}, false, err
	}
	return v.open(u.EncryptedAPIKey, "api key")
}

// StoreProfile caches the external identity.
func (v *CredentialVault) StoreProfile(ctx context.Context, userID string, p domain.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return v.Store.Users().UpsertProfileJSON(ctx, userID, string(raw))
}

// Profile returns the cached identity, or nil. Malformed cache entries are
// treated as a miss.
func (v *CredentialVault) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	u, err := v.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	return decodeProfile(ctx, u), nil
}

func (v *CredentialVault) user(ctx context.Context, userID string) (domain.User, error) {
	u, err := v.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, nil
	}
	return u, err
}

func (v *CredentialVault) open(ciphertext, what string) (cryptox.RedactedToken, bool, error) {
	if ciphertext == "" {
		return cryptox.RedactedToken{}, false, nil
	}
	plain, err := v.Cipher.DecryptString(ciphertext)
	if err != nil {
		return cryptox.RedactedToken{}, false, fmt.Errorf("%s: %w: %w", what, ErrCredentialUndecryptable, err)
	}
	return cryptox.NewRedactedToken(plain), true, nil
}

// decodeProfile parses the cached profile of u, logging and ignoring
// malformed JSON.
func decodeProfile(ctx context.Context, u domain.User) *domain.Profile {
	if !u.HasProfile() {
		return nil
	}
	var p domain.Profile
	if err := json.Unmarshal([]byte(u.ProfileJSON), &p); err != nil || p.IsZero() {
		slogx.FromContext(ctx).Warn("ignoring malformed cached profile",
			slog.String("user_id", u.ID),
			slog.Any("error", err),
		)
		return nil
	}
	return &p
}
