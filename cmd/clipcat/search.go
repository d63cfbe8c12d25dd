package main

import (
	"clipcat/internal/storage"
	"clipcat/pkg/types"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	flags := searchCmd.Flags()
	flags.StringSliceP("type", "t", nil, "only clips of these types (text, link, image, file, color)")
	flags.StringSliceP("app", "a", nil, "only clips copied from these applications")
	flags.IntP("limit", "n", 20, "maximum number of results")
	flags.Int("offset", 0, "skip this many results")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search clipboard history",
	Example: `
  # Latest clips
  clipcat search

  # Links copied from the browser mentioning golang
  clipcat search --type link --app firefox golang
  `,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		typeNames, _ := flags.GetStringSlice("type")
		apps, _ := flags.GetStringSlice("app")
		limit, _ := flags.GetInt("limit")
		offset, _ := flags.GetInt("offset")

		filters := storage.SearchFilters{SourceApps: apps}
		for _, name := range typeNames {
			t := types.ClipType(name)
			if !t.Valid() {
				return fmt.Errorf("%w: %q", storage.ErrInvalidType, name)
			}
			filters.Types = append(filters.Types, t)
		}
		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		results := store.Query(filters, query, limit, offset)
		out := cmd.OutOrStdout()
		if len(results) == 0 {
			fmt.Fprintln(out, "No results found")
			return nil
		}

		// Create tabwriter for aligned output
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tType\tSource\tPreview\tCopied")
		fmt.Fprintln(w, "--\t----\t------\t-------\t------")
		for _, clip := range results {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				clip.ID,
				clip.Type,
				clip.SourceApp,
				getPreview(clip),
				clip.CopiedAt.Format(time.RFC822),
			)
		}
		return w.Flush()
	},
}

// getPreview returns a one line preview of the clip
func getPreview(clip types.ClipItem) string {
	var text string
	switch clip.Type {
	case types.TypeLink:
		if u, ok := clip.URL(); ok && u != "" {
			text = u
		} else {
			text = clip.Text
		}
	case types.TypeImage, types.TypeFile:
		text = clip.Name
		if text == "" && clip.ContentRef != "" {
			text = filepath.Base(clip.ContentRef)
		}
		text = fmt.Sprintf("[%s] %s", clip.Type, text)
	default:
		text = clip.Text
		if text == "" {
			text = clip.Name
		}
	}

	text = strings.Join(strings.Fields(text), " ")
	if runes := []rune(text); len(runes) > 60 {
		text = string(runes[:57]) + "..."
	}
	return text
}
