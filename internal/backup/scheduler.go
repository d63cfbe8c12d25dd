// Package backup writes periodic backups of the index into a rotation
// directory.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

const (
	filePrefix = "clipcat-"
	fileSuffix = ".json"
	timeFormat = "20060102-150405"
)

// Exporter writes a complete backup to path
type Exporter interface {
	ExportBackup(path string) error
}

// Config holds configuration for the backup scheduler
type Config struct {
	Dir      string
	Interval time.Duration
	Keep     int
}

// Scheduler exports the index on a fixed interval and keeps the newest
// Keep files
type Scheduler struct {
	store  Exporter
	dir    string
	keep   int
	ticker *time.Ticker
	done   chan struct{}
	now    func() time.Time
	mu     sync.Mutex // serializes runs and protects dir/keep
}

// New creates a backup scheduler
func New(store Exporter, config Config) (*Scheduler, error) {
	if config.Dir == "" {
		return nil, fmt.Errorf("backup directory is required")
	}
	if config.Interval <= 0 {
		return nil, fmt.Errorf("backup interval must be positive, got: %v", config.Interval)
	}
	if config.Keep < 1 {
		config.Keep = 1
	}
	if err := os.MkdirAll(config.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	return &Scheduler{
		store:  store,
		dir:    config.Dir,
		keep:   config.Keep,
		ticker: time.NewTicker(config.Interval),
		done:   make(chan struct{}),
		now:    time.Now,
	}, nil
}

// Start runs a backup immediately, then on every tick until ctx ends or
// Stop is called
func (s *Scheduler) Start(ctx context.Context) {
	slog.Info("Starting backup scheduler", "dir", s.dir)

	if _, err := s.RunOnce(); err != nil {
		slog.Error("Initial backup failed", "error", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				slog.Debug("Backup scheduler stopped (context done)")
				return
			case <-s.done:
				slog.Debug("Backup scheduler stopped")
				return
			case <-s.ticker.C:
				if _, err := s.RunOnce(); err != nil {
					slog.Error("Scheduled backup failed", "error", err)
				}
			}
		}
	}()
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.ticker.Stop()
	select {
	case <-s.done:
		// Already closed
	default:
		close(s.done)
	}
}

// UpdateInterval changes the backup interval while the scheduler is running
func (s *Scheduler) UpdateInterval(interval time.Duration) {
	if interval <= 0 {
		slog.Warn("Ignoring non-positive backup interval", "interval", interval)
		return
	}
	slog.Info("Updating backup interval", "interval", interval)
	s.ticker.Reset(interval)
}

// UpdateKeep changes how many backups are retained
func (s *Scheduler) UpdateKeep(keep int) {
	if keep < 1 {
		keep = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keep = keep
}

// RunOnce exports one backup and prunes old ones. It returns the path of the
// new backup.
func (s *Scheduler) RunOnce() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, filePrefix+s.now().UTC().Format(timeFormat)+fileSuffix)
	if err := s.store.ExportBackup(path); err != nil {
		return "", fmt.Errorf("failed to export backup: %w", err)
	}
	slog.Info("Backup written", "path", path)

	if err := s.prune(); err != nil {
		slog.Warn("Failed to prune old backups", "error", err)
	}
	return path, nil
}

// List returns the backups in dir, newest first
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		names = append(names, name)
	}
	// Timestamps sort lexically
	slices.Sort(names)
	slices.Reverse(names)

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

func (s *Scheduler) prune() error {
	paths, err := List(s.dir)
	if err != nil {
		return err
	}
	if len(paths) <= s.keep {
		return nil
	}
	for _, path := range paths[s.keep:] {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		slog.Debug("Removed old backup", "path", path)
	}
	return nil
}
