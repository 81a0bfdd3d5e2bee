package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/credvault/internal/vault/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement it and
// expose sub-repositories so a transaction can only be opened from the root,
// never from inside another transaction.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. It commits when fn returns
	// nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Users persists the per-user credential record. Every mutation bumps
// updated_at. Ciphertexts are opaque to the store.
type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail expects an already normalised (lower-cased) email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByResetTokenHash finds the user holding a reset token fingerprint.
	GetUserByResetTokenHash(ctx context.Context, hash string) (domain.User, error)

	// ListUsers returns all users ordered by creation time.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// CreateUser inserts a registered user. A clash on user_id or email
	// yields ErrAlreadyExists; the unique index makes the check atomic.
	CreateUser(ctx context.Context, u domain.User) error

	// UpsertEncryptedToken inserts or updates the token ciphertext.
	UpsertEncryptedToken(ctx context.Context, id, ciphertext string) error

	// UpsertEncryptedAPIKey inserts or updates the API key ciphertext.
	UpsertEncryptedAPIKey(ctx context.Context, id, ciphertext string) error

	// UpsertProfileJSON inserts or updates the cached profile.
	UpsertProfileJSON(ctx context.Context, id, profileJSON string) error

	UpdatePasswordHash(ctx context.Context, id, hash string) error
	UpdateLastLogin(ctx context.Context, id string) error

	// MarkLoggedOut records a logout. Stored credentials are kept.
	MarkLoggedOut(ctx context.Context, id string) error

	// SetResetToken replaces any previous reset token for the user.
	SetResetToken(ctx context.Context, id, hash string, expires time.Time) error

	// ConsumeResetToken swaps in newPasswordHash and clears the reset token,
	// but only while the stored fingerprint still equals hash. A token that
	// was already consumed yields ErrNotFound.
	ConsumeResetToken(ctx context.Context, id, hash, newPasswordHash string) error

	// ClearExpiredResetTokens drops reset tokens that expired before now.
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}
