package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leechtools/leechctl/internal/common"
)

// FileSettings persists the raw settings blob as JSON on disk. Writes go
// through a temp file and rename so a crash mid-save never truncates the
// previous settings.
type FileSettings struct {
	path string
}

// NewFileSettings creates a file-backed settings store at the given path.
func NewFileSettings(path string) *FileSettings {
	return &FileSettings{path: ExpandPath(path)}
}

// Path returns the resolved settings file location.
func (f *FileSettings) Path() string {
	return f.path
}

// ReadSettings reads and parses the settings file. A missing file returns
// common.ErrNotFound so the caller can treat it as a fresh install.
func (f *FileSettings) ReadSettings(_ context.Context) (map[string]any, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", f.path, err)
	}
	return raw, nil
}

// WriteSettings writes the blob wholesale, atomically.
func (f *FileSettings) WriteSettings(_ context.Context, raw map[string]any) error {
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".leechctl-settings-*")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp settings file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}
