package db

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const schemaVersionTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// Migrate aplica en orden los scripts "NNNN_nombre.sql" de source que aun no figuran
// en schema_migrations. Cada script corre en su propia transaccion.
func Migrate(ctx context.Context, pool *pgxpool.Pool, source fs.FS, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	if _, err := pool.Exec(ctx, schemaVersionTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := migrationFiles(source)
	if err != nil {
		return err
	}

	var current int
	if err := pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return err
	}

	for _, name := range files {
		v, err := scriptVersion(name)
		if err != nil {
			return err
		}
		if v <= current {
			continue
		}
		script, err := fs.ReadFile(source, name)
		if err != nil {
			return err
		}
		log.Info("aplicando migracion", zap.String("migration", name))
		if err := applyMigration(ctx, pool, v, string(script)); err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
		current = v
	}
	return nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, version int, script string) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, script); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func migrationFiles(source fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(source, ".")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// scriptVersion extrae el numero de "0002_algo.sql".
func scriptVersion(filename string) (int, error) {
	raw, _, _ := strings.Cut(filename, "_")
	return strconv.Atoi(raw)
}
