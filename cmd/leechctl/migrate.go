package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leechtools/leechctl/internal/common"
	"github.com/leechtools/leechctl/internal/config"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run settings migrations",
		Long: `Bring the settings file up to the latest schema version.

Every command migrates on load anyway; this command exists to do it
explicitly, or to inspect the stored version with --status.`,
		RunE: runMigrate,
	}

	// Flags
	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	ctx := cmd.Context()

	path, err := settingsPath()
	if err != nil {
		return err
	}

	if status {
		backend := config.NewFileSettings(path)
		raw, err := backend.ReadSettings(ctx)
		if errors.Is(err, common.ErrNotFound) {
			fmt.Printf("Settings: %s (not created yet)\n", path)
			fmt.Printf("Stored version: none\nLatest version: %d\n", config.CurrentSchemaVersion)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read settings: %w", err)
		}

		stored := config.Decode(raw).SchemaVersion
		fmt.Printf("Settings: %s\n", path)
		fmt.Printf("Stored version: %d\nLatest version: %d\n", stored, config.CurrentSchemaVersion)
		return nil
	}

	slog.Info("Running settings migrations", "settings", path)

	store := config.NewStore(config.NewFileSettings(path))
	cfg, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("Settings are current", "schema_version", cfg.SchemaVersion, "rules", len(cfg.Rules))
	return nil
}
