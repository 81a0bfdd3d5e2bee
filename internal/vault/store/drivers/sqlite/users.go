package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/credvault/internal/vault/domain"
	"github.com/aussiebroadwan/credvault/internal/vault/store/drivers/sqlite/gen"
)

type usersRepo struct {
	q   *gen.Queries
	now func() time.Time
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row, err := r.q.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByResetTokenHash(ctx context.Context, hash string) (domain.User, error) {
	row, err := r.q.GetUserByResetToken(ctx, hash)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.q.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, mapUser(row))
	}
	return users, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := r.now()
	return mapConstraint(r.q.CreateUser(ctx, gen.CreateUserParams{
		UserID:       u.ID,
		Email:        mapStringNull(u.Email),
		PasswordHash: mapStringNull(u.PasswordHash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}))
}

func (r *usersRepo) UpsertEncryptedToken(ctx context.Context, id, ciphertext string) error {
	return r.q.UpsertEncryptedToken(ctx, id, ciphertext, r.now())
}

func (r *usersRepo) UpsertEncryptedAPIKey(ctx context.Context, id, ciphertext string) error {
	return r.q.UpsertEncryptedApiKey(ctx, id, ciphertext, r.now())
}

func (r *usersRepo) UpsertProfileJSON(ctx context.Context, id, profileJSON string) error {
	return r.q.UpsertUserInfo(ctx, id, profileJSON, r.now())
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return requireRow(r.q.UpdatePasswordHash(ctx, hash, r.now(), id))
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, id string) error {
	return requireRow(r.q.UpdateLastLogin(ctx, r.now(), id))
}

func (r *usersRepo) MarkLoggedOut(ctx context.Context, id string) error {
	return requireRow(r.q.MarkLoggedOut(ctx, r.now(), id))
}

func (r *usersRepo) SetResetToken(ctx context.Context, id, hash string, expires time.Time) error {
	return requireRow(r.q.SetResetToken(ctx, gen.SetResetTokenParams{
		UserID:            id,
		ResetToken:        hash,
		ResetTokenExpires: expires.UTC(),
		UpdatedAt:         r.now(),
	}))
}

func (r *usersRepo) ConsumeResetToken(ctx context.Context, id, hash, newPasswordHash string) error {
	return requireRow(r.q.ConsumeResetToken(ctx, gen.ConsumeResetTokenParams{
		UserID:       id,
		ResetToken:   hash,
		PasswordHash: newPasswordHash,
		UpdatedAt:    r.now(),
	}))
}

func (r *usersRepo) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ClearExpiredResetTokens(ctx, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
