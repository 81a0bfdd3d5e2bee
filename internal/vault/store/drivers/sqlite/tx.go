package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/credvault/internal/vault/store"
	"github.com/aussiebroadwan/credvault/internal/vault/store/drivers/sqlite/gen"
	"github.com/jmoiron/sqlx"
)

type txStore struct {
	tx  *sqlx.Tx
	q   *gen.Queries
	now func() time.Time
}

func newTx(tx *sqlx.Tx, now func() time.Time) *txStore {
	return &txStore{
		tx:  tx,
		q:   gen.New(tx),
		now: now,
	}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // outer DB stays open

// Ping is a no-op; the connection is held by the transaction.
func (t *txStore) Ping(ctx context.Context) error {
	return nil
}

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Users() store.Users { return &usersRepo{q: t.q, now: t.now} }

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx
