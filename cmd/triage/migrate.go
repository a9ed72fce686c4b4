package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/skillrecordings/support-sub010/internal/cli"
	"github.com/skillrecordings/support-sub010/internal/config"
	"github.com/skillrecordings/support-sub010/internal/storage"
	"github.com/skillrecordings/support-sub010/internal/storage/postgres"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

A snapshot of an existing SQLite database is taken before any pending
migration is applied.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")
	cmd.Flags().Bool("no-snapshot", false, "Skip the pre-migration snapshot")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	noSnapshot, _ := cmd.Flags().GetBool("no-snapshot")
	ctx := cmd.Context()

	cfg, err := config.LoadStorageConfig(viper.GetViper())
	if err != nil {
		return err
	}

	_, statErr := os.Stat(cfg.Path)
	existed := statErr == nil

	store, err := storage.NewSQLiteStorage(cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	pending, err := store.PendingMigrations(ctx)
	if err != nil {
		return err
	}

	if status {
		fmt.Println(cli.FormatTitle("Database Migration Status"))
		fmt.Printf("Database:        %s\n", cfg.Path)
		fmt.Printf("Current version: %d\n", current)
		fmt.Printf("Latest version:  %d\n", storage.ExpectedSchemaVersion)
		for _, m := range pending {
			fmt.Printf("  pending %d: %s\n", m.Version, m.Description)
		}
		return nil
	}

	if len(pending) > 0 && existed && !noSnapshot {
		path, err := store.Snapshot(ctx, cfg.BackupDir, "pre-migrate", cfg.BackupKeep)
		if err != nil {
			return fmt.Errorf("failed to snapshot database before migrating: %w", err)
		}
		slog.Info("Snapshot written", "path", path)
	}

	slog.Info("Running database migrations",
		"database", cfg.Path,
		"from_version", current,
		"pending", len(pending))

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if cfg.Driver == config.DriverPostgres {
		pg, err := postgres.NewTrustStoreFromConnString(ctx, cfg.DSN)
		if err != nil {
			return err
		}
		defer func() { _ = pg.Close() }()
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("postgres migration failed: %w", err)
		}
	}

	fmt.Println(cli.FormatSuccess("Database migrations completed successfully"))
	return nil
}
