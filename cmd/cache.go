package cmd

import (
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/puppetenv/internal/config"
	"github.com/donaldgifford/puppetenv/internal/source"
	"github.com/donaldgifford/puppetenv/internal/ui"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the puppetenv cache",
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clear cached remote config files",
	RunE:  runCacheClean,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached remote config files",
	RunE:  runCacheList,
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheCleanCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClean(_ *cobra.Command, _ []string) error {
	w := ui.NewWriter(noColor)

	removed, err := source.NewCache(config.DefaultCacheDir(), slog.Default()).Clean()
	if err != nil {
		return fmt.Errorf("cleaning source cache: %w", err)
	}

	if removed > 0 {
		w.Successf("Removed %d cached config sources", removed)
	} else {
		w.Info("Source cache already clean")
	}

	return nil
}

func runCacheList(cmd *cobra.Command, _ []string) error {
	entries, err := source.NewCache(config.DefaultCacheDir(), slog.Default()).List()
	if err != nil {
		return fmt.Errorf("listing source cache: %w", err)
	}

	if len(entries) == 0 {
		ui.NewWriter(noColor).Info("Source cache is empty")

		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "URL\tREF\tFETCHED"); err != nil {
		return err
	}

	for _, e := range entries {
		ref := e.Ref
		if ref == "" {
			ref = "-"
		}

		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", e.URL, ref, e.FetchedAt.Local().Format(time.RFC3339)); err != nil {
			return err
		}
	}

	return tw.Flush()
}
