// Package config binds the clipcat configuration keys to viper.
package config

import (
	"clipcat/internal/storage"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// Configuration keys
const (
	KeyDataDir       = "data_dir"
	KeyBackend       = "backend"
	KeyTempDir       = "temp_dir"
	KeyRetentionDays = "history.retention_days"
	KeyMaxItems      = "history.max_items"
	KeyServerPort    = "server.port"
	KeyBackupDir     = "backup.dir"
	KeyBackupEvery   = "backup.interval"
	KeyBackupKeep    = "backup.keep"
)

const (
	EnvPrefix      = "clipcat"
	ConfigFileName = "config"
	AppName        = "clipcat"
)

// Config is the resolved application configuration
type Config struct {
	DataDir string
	Backend string
	TempDir string

	RetentionDays int
	MaxItems      int

	Port int

	BackupDir      string
	BackupInterval time.Duration
	BackupKeep     int
}

// Setup registers defaults and environment binding on v.
func Setup(v *viper.Viper) {
	v.SetDefault(KeyDataDir, filepath.Join(xdg.DataHome, AppName))
	v.SetDefault(KeyBackend, storage.BackendJSON)
	v.SetDefault(KeyTempDir, "")
	v.SetDefault(KeyRetentionDays, 30)
	v.SetDefault(KeyMaxItems, 500)
	v.SetDefault(KeyServerPort, 43117)
	v.SetDefault(KeyBackupDir, "")
	v.SetDefault(KeyBackupEvery, time.Duration(0))
	v.SetDefault(KeyBackupKeep, 7)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// ReadFile loads config.yaml (or any format viper knows) from dir. A missing
// file is not an error.
func ReadFile(v *viper.Viper, dir string) error {
	v.SetConfigName(ConfigFileName)
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Load resolves the configuration from v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		DataDir:        v.GetString(KeyDataDir),
		Backend:        v.GetString(KeyBackend),
		TempDir:        v.GetString(KeyTempDir),
		RetentionDays:  v.GetInt(KeyRetentionDays),
		MaxItems:       v.GetInt(KeyMaxItems),
		Port:           v.GetInt(KeyServerPort),
		BackupDir:      v.GetString(KeyBackupDir),
		BackupInterval: v.GetDuration(KeyBackupEvery),
		BackupKeep:     v.GetInt(KeyBackupKeep),
	}

	if cfg.DataDir == "" {
		return Config{}, errors.New("data directory can not be empty")
	}
	switch cfg.Backend {
	case storage.BackendJSON, storage.BackendSQLite:
	default:
		return Config{}, fmt.Errorf("%w: %q", storage.ErrUnknownBackend, cfg.Backend)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid server port: %d", cfg.Port)
	}
	if cfg.BackupDir == "" {
		cfg.BackupDir = filepath.Join(cfg.DataDir, "backups")
	}
	if cfg.BackupKeep < 1 {
		cfg.BackupKeep = 1
	}
	return cfg, nil
}

// Storage returns the store layout for c
func (c Config) Storage() storage.Config {
	return storage.Config{
		Dir:     c.DataDir,
		Backend: c.Backend,
		TempDir: c.TempDir,
	}
}
