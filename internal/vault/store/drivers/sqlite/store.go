package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/credvault/internal/vault/domain"
	"github.com/aussiebroadwan/credvault/internal/vault/store"
	"github.com/aussiebroadwan/credvault/internal/vault/store/drivers/sqlite/gen"
	"github.com/jmoiron/sqlx"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for updated_at, last_login and
// reset token bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

type Store struct {
	db  *sqlx.DB
	q   *gen.Queries
	dsn string
	now func() time.Time
}

func NewStore(dsn string, opts ...Option) (*Store, error) {
	db, err := sqlx.Open("sqlite", withTimeFormat(dsn))
	if err != nil {
		return nil, err
	}

	// Every connection to :memory: is a separate database.
	if strings.HasPrefix(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return newStore(db, dsn, opts...), nil
}

// NewStoreFromDB wraps an existing handle. The handle must speak sqlite SQL.
func NewStoreFromDB(db *sql.DB, opts ...Option) *Store {
	return newStore(sqlx.NewDb(db, "sqlite"), "", opts...)
}

func newStore(db *sqlx.DB, dsn string, opts ...Option) *Store {
	s := &Store{
		db:  db,
		q:   gen.New(db),
		dsn: dsn,
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// withTimeFormat makes the driver write timestamps in a sortable layout so
// expiry comparisons can happen in SQL.
func withTimeFormat(dsn string) string {
	if strings.Contains(dsn, "_time_format=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_time_format=sqlite"
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return newTx(tx, s.now), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) Users() store.Users { return &usersRepo{q: s.q, now: s.now} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapConstraint turns primary key and unique violations into
// store.ErrAlreadyExists.
func mapConstraint(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return store.ErrAlreadyExists
		}
	}
	if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

// requireRow maps an update that touched nothing to store.ErrNotFound.
func requireRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func mapNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func mapStringNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func mapNullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		val := nt.Time
		return &val
	}
	return nil
}

func mapUser(row gen.User) domain.User {
	return domain.User{
		ID:                row.UserID,
		Email:             mapNullString(row.Email),
		PasswordHash:      mapNullString(row.PasswordHash),
		EncryptedToken:    mapNullString(row.EncryptedToken),
		EncryptedAPIKey:   mapNullString(row.EncryptedApiKey),
		ProfileJSON:       mapNullString(row.UserInfo),
		ResetTokenHash:    mapNullString(row.ResetToken),
		ResetTokenExpires: mapNullTimePtr(row.ResetTokenExpires),
		CreatedAt:         row.CreatedAt.Time,
		UpdatedAt:         row.UpdatedAt.Time,
		LastLogin:         mapNullTimePtr(row.LastLogin),
		LastLogout:        mapNullTimePtr(row.LastLogout),
	}
}
