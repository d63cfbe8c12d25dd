package main

import (
	"clipcat/internal/storage/index"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func init() {
	boardsCreateCmd.Flags().StringP("color", "c", "", "board color")
	boardsCmd.AddCommand(boardsCreateCmd, boardsRenameCmd, boardsColorCmd, boardsDeleteCmd,
		boardsItemsCmd, boardsPinCmd, boardsUnpinCmd, boardsMoveCmd)
	rootCmd.AddCommand(boardsCmd)
}

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List and manage pinboards",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		def := store.DefaultBoardID()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tName\tColor\tItems")
		for _, b := range store.ListPinboards() {
			name := b.Name
			if b.ID == def {
				name += " (default)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", b.ID, name, b.Color, len(store.ListItems(b.ID)))
		}
		return w.Flush()
	},
}

var boardsCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a pinboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		color, _ := cmd.Flags().GetString("color")
		return withStore(func(store *index.Store) error {
			id := store.CreatePinboard(args[0], color)
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		})
	},
}

var boardsRenameCmd = &cobra.Command{
	Use:   "rename BOARD NAME",
	Short: "Rename a pinboard",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(args[0], func(store *index.Store, board uuid.UUID) error {
			store.UpdatePinboardName(board, args[1])
			return nil
		})
	},
}

var boardsColorCmd = &cobra.Command{
	Use:   "color BOARD COLOR",
	Short: "Change the color of a pinboard",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(args[0], func(store *index.Store, board uuid.UUID) error {
			store.UpdatePinboardColor(board, args[1])
			return nil
		})
	},
}

var boardsDeleteCmd = &cobra.Command{
	Use:   "delete BOARD",
	Short: "Delete a pinboard; its items stay in history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(args[0], func(store *index.Store, board uuid.UUID) error {
			store.DeletePinboard(board)
			return nil
		})
	},
}

var boardsItemsCmd = &cobra.Command{
	Use:   "items BOARD",
	Short: "List the items of a pinboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(args[0], func(store *index.Store, board uuid.UUID) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, clip := range store.ListItems(board) {
				fmt.Fprintf(w, "%s\t%s\t%s\n", clip.ID, clip.Type, getPreview(clip))
			}
			return w.Flush()
		})
	},
}

var boardsPinCmd = &cobra.Command{
	Use:   "pin BOARD ITEM",
	Short: "Pin an item to a pinboard",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid clip id %q: %w", args[1], err)
		}
		return withBoard(args[0], func(store *index.Store, board uuid.UUID) error {
			store.Pin(item, board)
			return nil
		})
	},
}

var boardsUnpinCmd = &cobra.Command{
	Use:   "unpin BOARD ITEM",
	Short: "Remove an item from a pinboard",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid clip id %q: %w", args[1], err)
		}
		return withBoard(args[0], func(store *index.Store, board uuid.UUID) error {
			store.Unpin(item, board)
			return nil
		})
	},
}

var boardsMoveCmd = &cobra.Command{
	Use:   "move BOARD ITEM",
	Short: "Pin an item to exactly one pinboard",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid clip id %q: %w", args[1], err)
		}
		return withBoard(args[0], func(store *index.Store, board uuid.UUID) error {
			store.SetBoardExclusive(item, board)
			return nil
		})
	},
}

func withStore(fn func(*index.Store) error) error {
	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// withBoard resolves ref as a board id or a case-insensitive board name
func withBoard(ref string, fn func(*index.Store, uuid.UUID) error) error {
	return withStore(func(store *index.Store) error {
		board, err := resolveBoard(store, ref)
		if err != nil {
			return err
		}
		return fn(store, board)
	})
}

func resolveBoard(store *index.Store, ref string) (uuid.UUID, error) {
	id, parseErr := uuid.Parse(ref)
	var matches []uuid.UUID
	for _, b := range store.ListPinboards() {
		if parseErr == nil && b.ID == id {
			return b.ID, nil
		}
		if strings.EqualFold(b.Name, ref) {
			matches = append(matches, b.ID)
		}
	}
	switch len(matches) {
	case 0:
		return uuid.Nil, fmt.Errorf("no pinboard %q", ref)
	case 1:
		return matches[0], nil
	default:
		return uuid.Nil, fmt.Errorf("pinboard name %q is ambiguous, use its id", ref)
	}
}
