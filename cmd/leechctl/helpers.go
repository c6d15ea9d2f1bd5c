package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leechtools/leechctl/internal/config"
	"github.com/leechtools/leechctl/internal/storage"

	"github.com/spf13/viper"
)

// openCollection opens the Anki collection named by --collection or the
// config file, falling back to the default Anki profile location.
func openCollection() (*storage.Collection, error) {
	path := viper.GetString("collection.path")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, ".local", "share", "Anki2", "User 1", "collection.anki2")
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("collection not found at %s (use --collection): %w", path, err)
	}

	return storage.OpenCollection(path)
}

// settingsPath resolves the settings file location from --settings or the
// config file.
func settingsPath() (string, error) {
	path := viper.GetString("settings.path")
	if path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "leechctl", "settings.json"), nil
}

// loadSettings opens the settings store and runs the migration chain.
func loadSettings(ctx context.Context) (*config.Store, *config.Config, error) {
	path, err := settingsPath()
	if err != nil {
		return nil, nil, err
	}

	store := config.NewStore(config.NewFileSettings(path))
	cfg, err := store.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}
