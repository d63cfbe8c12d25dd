package main

import (
	"clipcat/internal/config"
	"clipcat/internal/server"
	"clipcat/internal/storage/index"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	pfset := rootCmd.PersistentFlags()
	pfset.StringP("data-dir", "d", "", "set data directory (default XDG_DATA_HOME/clipcat)")
	pfset.String("backend", "", "snapshot backend: json or sqlite")
	pfset.CountP("verbose", "v", "set log level")
	pfset.BoolP("quiet", "q", false, "suppress all the logs")

	viper.BindPFlag(config.KeyDataDir, pfset.Lookup("data-dir"))
	viper.BindPFlag(config.KeyBackend, pfset.Lookup("backend"))
	viper.BindPFlag("verbose", pfset.Lookup("verbose"))
	viper.BindPFlag("quiet", pfset.Lookup("quiet"))

	config.Setup(viper.GetViper())
}

var rootCmd = &cobra.Command{
	Use:          "clipcat",
	Short:        "Clipboard history store with pinboards",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}

		level := log.WarnLevel - log.Level(viper.GetInt("verbose")*4)
		if viper.GetBool("quiet") {
			level = log.FatalLevel
		}

		logger := log.NewWithOptions(os.Stderr, log.Options{
			TimeFormat:      time.RFC822,
			ReportTimestamp: true,
			Level:           level,
		})
		slog.SetDefault(slog.New(logger))

		slog.Debug("Logger has been setup", "level", level)
		return nil
	},
}

// loadConfig reads the config file from the data directory and resolves
// the configuration
func loadConfig() (config.Config, error) {
	v := viper.GetViper()
	if err := config.ReadFile(v, v.GetString(config.KeyDataDir)); err != nil {
		return config.Config{}, err
	}
	return config.Load(v)
}

// openStore opens the index for a one-shot command. The server owns the
// index while it runs, so commands refuse to open it concurrently.
func openStore() (*index.Store, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	if pid, running := server.Running(cfg.DataDir); running {
		return nil, cfg, fmt.Errorf("%w (pid %d): stop it first or use the HTTP API on port %d",
			server.ErrAlreadyRunning, pid, cfg.Port)
	}

	store, err := index.Open(cfg.Storage(), config.NewSettings(viper.GetViper()), index.WithLogger(slog.Default()))
	if err != nil {
		return nil, cfg, fmt.Errorf("failed to open index: %w", err)
	}
	slog.Debug("Opened index", "dir", cfg.DataDir, "backend", cfg.Backend)
	return store, cfg, nil
}
