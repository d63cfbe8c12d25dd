package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(pruneCmd)
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply the retention policy now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		store.Cleanup()
		n := len(store.ListItems(store.DefaultBoardID()))
		slog.Info("Retention applied", "items", n)
		fmt.Fprintf(cmd.OutOrStdout(), "%d item(s) kept\n", n)
		return nil
	},
}
