package main

import (
	"clipcat/internal/backup"
	"clipcat/internal/clipboard"
	"clipcat/internal/config"
	"clipcat/internal/server"
	"clipcat/internal/service"
	"clipcat/internal/storage/index"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "HTTP API port")
	viper.BindPFlag(config.KeyServerPort, serveCmd.Flags().Lookup("port"))
	rootCmd.AddCommand(serveCmd)
}

// cleanupInterval paces the age policy while no captures arrive
const cleanupInterval = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the capture API and keep the index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if pid, running := server.Running(cfg.DataDir); running {
			return fmt.Errorf("%w (pid %d)", server.ErrAlreadyRunning, pid)
		}

		store, err := index.Open(cfg.Storage(), config.NewSettings(viper.GetViper()), index.WithLogger(slog.Default()))
		if err != nil {
			return fmt.Errorf("failed to open index: %w", err)
		}
		defer store.Close()

		inbox := clipboard.NewInbox(clipboard.DefaultInboxSize)
		clipService := service.New(inbox, store)
		srv := server.New(clipService, store, inbox, server.Config{
			Port:       cfg.Port,
			Dir:        cfg.DataDir,
			TempDir:    cfg.TempDir,
			ContentDir: cfg.Storage().ContentPath(),
		})

		if err := srv.Start(); err != nil {
			return err
		}
		defer func() {
			if err := srv.Stop(); err != nil {
				slog.Error("Error stopping server", "error", err)
			}
		}()
		if err := clipService.Start(); err != nil {
			return err
		}
		defer func() {
			if err := clipService.Stop(); err != nil {
				slog.Error("Error stopping service", "error", err)
			}
		}()

		backups := backup.NewRunner(cmd.Context(), store)
		if err := backups.Apply(backupConfig(cfg)); err != nil {
			return err
		}
		defer backups.Stop()

		viper.OnConfigChange(func(e fsnotify.Event) {
			slog.Info("Config file changed", "file", e.Name)
			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				slog.Error("Ignoring invalid config", "error", err)
				return
			}
			if err := backups.Apply(backupConfig(cfg)); err != nil {
				slog.Error("Failed to apply backup settings", "error", err)
			}
		})
		if viper.ConfigFileUsed() != "" {
			viper.WatchConfig()
		}

		slog.Info("clipcat started", "addr", srv.Addr(), "data", cfg.DataDir, "backend", cfg.Backend)
		fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", srv.Addr())

		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down")
				return nil
			case <-ticker.C:
				store.Cleanup()
			}
		}
	},
}

func backupConfig(cfg config.Config) backup.Config {
	return backup.Config{
		Dir:      cfg.BackupDir,
		Interval: cfg.BackupInterval,
		Keep:     cfg.BackupKeep,
	}
}
