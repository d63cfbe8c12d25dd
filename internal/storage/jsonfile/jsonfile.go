// Package jsonfile persists store snapshots as a single JSON document.
package jsonfile

import (
	"clipcat/internal/storage"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileStore implements storage.SnapshotStore on one JSON file.
type FileStore struct {
	path string
}

// New creates a file store writing to path. The parent directory is created
// if needed.
func New(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Load reads the snapshot. A file that does not decode is moved aside to
// <path>.corrupt and ErrCorruptSnapshot is returned.
func (f *FileStore) Load() (*storage.Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, storage.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	var snap storage.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		aside := f.path + ".corrupt"
		if rerr := os.Rename(f.path, aside); rerr != nil {
			slog.Warn("failed to move corrupt index aside", "path", f.path, "error", rerr)
		} else {
			slog.Warn("moved corrupt index aside", "path", aside)
		}
		return nil, fmt.Errorf("%w: %v", storage.ErrCorruptSnapshot, err)
	}
	return &snap, nil
}

// Save encodes snap and atomically replaces the index file.
func (f *FileStore) Save(snap *storage.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	if err := storage.WriteFileAtomic(f.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }
