package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leechtools/leechctl/internal/common"
	"github.com/leechtools/leechctl/internal/service"
)

// Store loads and persists settings through a SettingsStore backend,
// running the migration chain on every load.
type Store struct {
	backend service.SettingsStore
}

// NewStore creates a settings store over the given backend.
func NewStore(backend service.SettingsStore) *Store {
	return &Store{backend: backend}
}

// Load reads the persisted blob, migrates it forward, and decodes it into a
// typed Config. When migration changed the blob, or when no settings
// existed yet, the result is written back immediately so the next session
// starts current.
func (s *Store) Load(ctx context.Context) (*Config, error) {
	raw, err := s.backend.ReadSettings(ctx)
	isNew := errors.Is(err, common.ErrNotFound)
	if err != nil && !isNew {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	migrated, changed := RunMigrations(raw)
	if isNew || changed {
		if err := s.backend.WriteSettings(ctx, migrated); err != nil {
			return nil, fmt.Errorf("failed to persist migrated settings: %w", err)
		}
		slog.Info("Settings migrated", "schema_version", CurrentSchemaVersion, "new", isNew)
	}

	return Decode(migrated), nil
}

// Save writes the config back wholesale, stamped with the latest schema
// version. Rule edits always replace the whole list.
func (s *Store) Save(ctx context.Context, cfg *Config) error {
	cfg.SchemaVersion = CurrentSchemaVersion
	if err := s.backend.WriteSettings(ctx, cfg.Encode()); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
