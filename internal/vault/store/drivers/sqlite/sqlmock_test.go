package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aussiebroadwan/credvault/internal/vault/domain"
	"github.com/aussiebroadwan/credvault/internal/vault/store"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewStoreFromDB(db), mock
}

func TestWithTxRollbackOnDriverError(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	boom := errors.New("disk I/O error")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnError(boom)
	mock.ExpectRollback()

	err := s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().UpsertEncryptedToken(ctx, "user-1", "ct")
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithoutRowsIsNotFound(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE users SET password_hash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Users().UpdatePasswordHash(ctx, "user-1", "s:h")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUniqueViolationMessageMapsToAlreadyExists(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"))

	err := s.Users().CreateUser(ctx, domainUser("user-1", "a@b.com"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestGetUserNoRowsIsNotFound(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE user_id").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	_, err := s.Users().GetUserByID(ctx, "user-1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func domainUser(id, email string) domain.User {
	return domain.User{ID: id, Email: email, PasswordHash: "s:h"}
}
