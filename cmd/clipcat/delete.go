package main

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:   "delete ...ids",
	Short: "Remove items from clipboard history",
	Example: `
  # Delete a single item
  clipcat delete 0d3c7a52-6f0e-4c55-9d3e-0f6f3c2f1a10

  # Delete everything matching a search
  clipcat search --limit 1000 "BEGIN KEY" | awk 'NR>2 { print $1 }' | xargs clipcat delete
  `,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]uuid.UUID, 0, len(args))
		for _, arg := range args {
			id, err := uuid.Parse(arg)
			if err != nil {
				return fmt.Errorf("invalid clip id %q: %w", arg, err)
			}
			ids = append(ids, id)
		}

		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		deleted := 0
		for _, id := range ids {
			if _, ok := store.Item(id); !ok {
				slog.Warn("No such clip", "id", id)
				continue
			}
			store.Delete(id)
			deleted++
		}
		slog.Info("Clipboard history deleted", "deleted-items", deleted)
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d item(s)\n", deleted)
		return nil
	},
}
