package feature

import (
	"context"
	"embed"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geofeatures/internal/db"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationLockKey = 8675311

// Migrate applies pending schema migrations in filename order and returns
// the names it applied. Applied files are tracked in schema_migrations.
//
// Everything runs in one transaction holding a transaction-scoped advisory
// lock, so concurrent runs serialize and a failed run applies nothing.
func Migrate(ctx context.Context, pool db.Pool) ([]string, error) {
	log := zap.L().With(zap.String("component", "feature.migrate"))

	names, err := migrationNames()
	if err != nil {
		return nil, err
	}

	var ran []string
	err = db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockKey); err != nil {
			return eris.Wrap(err, "acquire migration lock")
		}

		if _, err := tx.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				filename   TEXT PRIMARY KEY,
				applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`); err != nil {
			return eris.Wrap(err, "ensure migration table")
		}

		applied, err := appliedMigrations(ctx, tx)
		if err != nil {
			return err
		}

		for _, name := range names {
			if applied[name] {
				continue
			}

			data, err := migrationFS.ReadFile("migrations/" + name)
			if err != nil {
				return eris.Wrapf(err, "read migration %s", name)
			}

			log.Info("applying migration", zap.String("file", name))
			if _, err := tx.Exec(ctx, string(data)); err != nil {
				return eris.Wrapf(err, "apply migration %s", name)
			}
			if _, err := tx.Exec(ctx,
				"INSERT INTO schema_migrations (filename, applied_at) VALUES ($1, now())", name,
			); err != nil {
				return eris.Wrapf(err, "record migration %s", name)
			}
			ran = append(ran, name)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "feature: migrate")
	}

	log.Info("migrations complete", zap.Int("applied", len(ran)), zap.Int("total", len(names)))
	return ran, nil
}

func migrationNames() ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, eris.Wrap(err, "feature: read migration dir")
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func appliedMigrations(ctx context.Context, tx pgx.Tx) (map[string]bool, error) {
	rows, err := tx.Query(ctx, "SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, eris.Wrap(err, "query applied migrations")
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "scan migration row")
		}
		applied[name] = true
	}
	return applied, eris.Wrap(rows.Err(), "iterate migration rows")
}
