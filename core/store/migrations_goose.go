package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"portfolio-admin/core/utils"

	"github.com/pressly/goose/v3"
)

//go:embed migrations_pg/*.sql
var migrationsPgFS embed.FS

//go:embed migrations_sqlite/*.sql
var migrationsSqliteFS embed.FS

func ApplyMigrations(ctx context.Context, db *sql.DB, logger *utils.Logger) error {
	if db == nil {
		return fmt.Errorf("nil db")
	}
	isPG, err := isPostgresDB(ctx, db)
	if err != nil {
		return err
	}
	dialect, fs, dir := "sqlite3", migrationsSqliteFS, "migrations_sqlite"
	if isPG {
		dialect, fs, dir = "postgres", migrationsPgFS, "migrations_pg"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	goose.SetBaseFS(fs)
	if logger != nil {
		logger.Printf("applying %s migrations", dialect)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return err
	}
	if logger != nil {
		logger.Printf("migrations up to date")
	}
	return nil
}

func isPostgresDB(ctx context.Context, db *sql.DB) (bool, error) {
	var version string
	if err := db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err == nil {
		return false, nil
	}
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return false, err
	}
	return true, nil
}
