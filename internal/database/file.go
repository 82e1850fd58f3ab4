package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"chest-rewards-api/internal/models"
)

// FileSnapshotter stores the whole document as one JSON file. Saves write a
// temporary file next to it and rename it into place.
type FileSnapshotter struct {
	path string
}

// NewFileSnapshotter returns a snapshotter for path, creating its directory.
func NewFileSnapshotter(path string) (*FileSnapshotter, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return &FileSnapshotter{path: path}, nil
}

func (f *FileSnapshotter) Load(ctx context.Context) (*models.Economy, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	var econ models.Economy
	if err := json.Unmarshal(data, &econ); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", f.path, err)
	}
	return &econ, nil
}

func (f *FileSnapshotter) Save(ctx context.Context, econ *models.Economy) error {
	data, err := json.MarshalIndent(econ, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode economy: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return nil
}

func (f *FileSnapshotter) Close() error { return nil }
