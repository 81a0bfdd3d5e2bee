// Package gen holds the SQL for the sqlite driver and the row types it scans
// into. Queries are plain SQL executed through sqlx so the same code runs
// against a *sqlx.DB or a *sqlx.Tx.
package gen

import (
	"github.com/jmoiron/sqlx"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx.
type DBTX interface {
	sqlx.ExtContext
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}
