package storage

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/jmoiron/sqlx"

	"AINewsAgent/db/migrations"
	"AINewsAgent/internal/apperr"
)

// MigrationScripts returns the embedded *.up.sql files in apply order.
func MigrationScripts() ([]string, error) {
	names, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Migrate applies every embedded migration. Scripts are idempotent.
func Migrate(ctx context.Context, db *sqlx.DB, logger *slog.Logger) error {
	names, err := MigrationScripts()
	if err != nil {
		return apperr.NewStorage("list migrations", err)
	}

	for _, name := range names {
		script, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return apperr.NewStorage("read migration", fmt.Errorf("%s: %w", name, err))
		}
		if _, err := db.ExecContext(ctx, string(script)); err != nil {
			return apperr.NewStorage("apply migration", fmt.Errorf("%s: %w", name, err))
		}
		if logger != nil {
			logger.Info("migration applied", "file", name)
		}
	}
	return nil
}
