package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/credvault/internal/vault/store/drivers/sqlite/migrations"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "modernc.org/sqlite"
)

// ApplyMigrations brings the schema up to date. Databases created before
// versioned migrations existed are first reconciled column by column, then
// the embedded migrations run as usual.
func (s *Store) ApplyMigrations() error {
	if err := s.reconcileLegacyColumns(context.Background()); err != nil {
		return fmt.Errorf("reconcile legacy schema: %w", err)
	}

	driver, err := sqlite.WithInstance(s.db.DB, &sqlite.Config{})
	if err != nil {
		return err
	}

	migrationsFilesystem, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return err
	}

	instance, err := migrate.NewWithInstance("iofs", migrationsFilesystem, "", driver)
	if err != nil {
		return err
	}

	err = instance.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

// legacyColumns are the columns an early users table may lack. SQLite cannot
// add a UNIQUE column, so email uniqueness comes from a later index.
var legacyColumns = []struct {
	name string
	ddl  string
}{
	{"email", "ALTER TABLE users ADD COLUMN email TEXT"},
	{"password_hash", "ALTER TABLE users ADD COLUMN password_hash TEXT"},
	{"encrypted_api_key", "ALTER TABLE users ADD COLUMN encrypted_api_key TEXT"},
	{"user_info", "ALTER TABLE users ADD COLUMN user_info TEXT"},
	{"last_login", "ALTER TABLE users ADD COLUMN last_login TIMESTAMP"},
	{"reset_token", "ALTER TABLE users ADD COLUMN reset_token TEXT"},
	{"reset_token_expires", "ALTER TABLE users ADD COLUMN reset_token_expires TIMESTAMP"},
}

// reconcileLegacyColumns adds missing columns to a pre-existing users table.
// It is a no-op on fresh databases and on databases managed by migrate.
func (s *Store) reconcileLegacyColumns(ctx context.Context) error {
	var tables int
	if err := s.db.GetContext(ctx, &tables,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'users'`,
	); err != nil {
		return err
	}
	if tables == 0 {
		return nil
	}

	var columns []string
	if err := s.db.SelectContext(ctx, &columns, `SELECT name FROM pragma_table_info('users')`); err != nil {
		return err
	}
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	for _, col := range legacyColumns {
		if present[col.name] {
			continue
		}
		if _, err := s.db.ExecContext(ctx, col.ddl); err != nil {
			return fmt.Errorf("add column %s: %w", col.name, err)
		}
	}
	return nil
}
