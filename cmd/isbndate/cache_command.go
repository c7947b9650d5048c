package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"isbndate/internal/config"
	"isbndate/internal/datecache"
	"isbndate/internal/fileutil"
	"isbndate/internal/isbn"
	"isbndate/internal/services"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and edit the local ISBN date cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheSearchCommand(ctx))
	cacheCmd.AddCommand(newCacheAddCommand(ctx))
	cacheCmd.AddCommand(newCacheRemoveCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCacheExportCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every cached ISBN and date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.openCache()
			if err != nil {
				return err
			}
			return printEntries(cmd, cache.Entries(), jsonOutput, "Cache is empty")
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print entries as JSON")
	return cmd
}

func newCacheSearchCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Find cached ISBNs containing term (ISBN-10 input is converted)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.openCache()
			if err != nil {
				return err
			}
			term := args[0]
			if canonical, err := isbn.Normalize(term); err == nil {
				term = canonical
			}
			return printEntries(cmd, cache.Search(term), jsonOutput, fmt.Sprintf("No cached ISBN matches %q", args[0]))
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print entries as JSON")
	return cmd
}

func newCacheAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <date> <isbn>...",
		Short: "Store a publication date for one or more ISBNs",
		Long: `Stores date for every listed ISBN, overwriting existing entries. Each ISBN is
validated and stored under its ISBN-13 form; invalid ones are reported and skipped.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := strings.TrimSpace(args[0])
			if date == "" {
				return services.Wrap(services.ErrValidation, "cache", "add", "date must not be empty", nil)
			}
			cache, err := ctx.openCache()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			added := 0
			for _, raw := range args[1:] {
				id, err := isbn.Normalize(raw)
				if err != nil {
					fmt.Fprintln(out, renderStatusLine(raw, statusWarn, "invalid ISBN, skipped", colorize))
					continue
				}
				previous, existed := cache.Get(id)
				cache.Put(id, date)
				added++
				message := "added " + date
				if existed {
					message = fmt.Sprintf("updated %s -> %s", previous, date)
				}
				fmt.Fprintln(out, renderStatusLine(id, statusOK, message, colorize))
			}
			if added == 0 {
				return services.Wrap(services.ErrValidation, "cache", "add", "no valid ISBN given", nil)
			}
			if err := cache.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "Stored %d entr%s in %s\n", added, plural(added, "y", "ies"), cache.Path())
			return nil
		},
	}
}

func newCacheRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <isbn>...",
		Short: "Delete cached entries so they are queried again",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.openCache()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			removed := 0
			for _, raw := range args {
				id, err := isbn.Normalize(raw)
				if err != nil {
					id = isbn.Clean(raw)
				}
				if cache.Remove(id) {
					removed++
					fmt.Fprintln(out, renderStatusLine(id, statusOK, "removed", colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine(raw, statusWarn, "not cached", colorize))
				}
			}
			if removed == 0 {
				return nil
			}
			return cache.Flush()
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to clear the cache without --yes")
			}
			cache, err := ctx.openCache()
			if err != nil {
				return err
			}
			count := cache.Count()
			cache.Clear()
			if err := cache.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entr%s\n", count, plural(count, "y", "ies"))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Confirm clearing the cache")
	return cmd
}

func newCacheExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dest>",
		Short: "Copy the cache file to dest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dest, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve destination: %w", err)
			}
			src := cfg.Paths.CacheFile
			if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
				return services.Wrap(services.ErrNotFound, "cache", "export", "no cache file at "+src, nil)
			}
			if _, err := datecache.Load(src); err != nil {
				return err
			}
			if err := fileutil.CopyFile(src, dest); err != nil {
				return fmt.Errorf("export cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", src, dest)
			return nil
		},
	}
}

func printEntries(cmd *cobra.Command, entries []datecache.Entry, jsonOutput bool, emptyMessage string) error {
	if jsonOutput {
		if entries == nil {
			entries = []datecache.Entry{}
		}
		return writeJSON(cmd, entries)
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, emptyMessage)
		return nil
	}
	writeEntryTable(out, entries)
	return nil
}

func writeEntryTable(out io.Writer, entries []datecache.Entry) {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		isbn10, err := isbn.ToISBN10(entry.ISBN)
		if err != nil {
			isbn10 = "-"
		}
		rows = append(rows, []string{entry.ISBN, isbn10, entry.Date})
	}
	fmt.Fprintln(out, renderTable(tableSpec{
		headers: []string{"ISBN-13", "ISBN-10", "Date"},
		rows:    rows,
		footer:  []string{"Entries", "", strconv.Itoa(len(entries))},
	}))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
