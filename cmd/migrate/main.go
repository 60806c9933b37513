package main

// Run database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"os"

	"showdown-backend/internal/shared/config"
	"showdown-backend/internal/shared/storage/db"
	"showdown-backend/internal/shared/telemetry"
)

func main() {
	if err := run(context.Background()); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err})
		os.Exit(1)
	}
	telemetry.Info("migrate.done", nil)
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	opts, err := db.OptionsFromEnv(db.DefaultMigrateOptions())
	if err != nil {
		return err
	}

	if cfg.DBDriver == db.DialectSQLite {
		sqlDB, err := db.ConnectSQLite(ctx, cfg.SQLitePath, opts)
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		return db.RunMigrations(ctx, sqlDB, db.DialectSQLite)
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return db.RunMigrations(ctx, sqlDB, db.DialectPostgres)
}
