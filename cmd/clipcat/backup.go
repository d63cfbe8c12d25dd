package main

import (
	"clipcat/internal/backup"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(exportCmd, importCmd, backupsCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [FILE]",
	Short: "Write a backup with every item, payload and pinboard",
	Long:  "Write a backup with every item, payload and pinboard. Without FILE the backup goes to the rotation directory.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		var path string
		if len(args) == 1 {
			path = args[0]
			if err := store.ExportBackup(path); err != nil {
				return err
			}
		} else {
			scheduler, err := backup.New(store, backup.Config{
				Dir:      cfg.BackupDir,
				Interval: time.Hour, // never ticks, only RunOnce is used
				Keep:     cfg.BackupKeep,
			})
			if err != nil {
				return err
			}
			defer scheduler.Stop()
			if path, err = scheduler.RunOnce(); err != nil {
				return err
			}
		}

		abs, _ := filepath.Abs(path)
		slog.Info("Backup exported", "path", abs)
		fmt.Fprintln(cmd.OutOrStdout(), abs)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace the whole index with a backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.ImportBackup(args[0]); err != nil {
			return err
		}
		n := len(store.ListItems(store.DefaultBoardID()))
		slog.Info("Backup imported", "file", args[0], "items", n)
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d item(s)\n", n)
		return nil
	},
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List the backups in the rotation directory, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		paths, err := backup.List(cfg.BackupDir)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		for _, path := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
		return nil
	},
}
