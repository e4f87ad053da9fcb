package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reelprep/internal/logging"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Analysis cache maintenance",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts and disk usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			store, err := ctx.openCache(cfg, logger)
			if err != nil {
				return fmt.Errorf("open analysis cache: %w", err)
			}
			if store == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache is disabled")
				return nil
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("read cache stats: %w", err)
			}
			if jsonOut {
				return writeJSON(cmd, stats)
			}

			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Probe entries", strconv.Itoa(stats.ProbeEntries)},
				{"Crop entries", strconv.Itoa(stats.CropEntries)},
				{"Database size", fmt.Sprintf("%.1f MiB", float64(stats.DBBytes)/(1024*1024))},
				{"Free space", fmt.Sprintf("%.0f%%", stats.FreeRatio*100)},
				{"Path", stats.Path},
			}
			fmt.Fprintln(out, renderTable(out, []string{"Metric", "Value"}, rows,
				[]columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached analysis result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			store, err := ctx.openCache(cfg, logger)
			if err != nil {
				return fmt.Errorf("open analysis cache: %w", err)
			}
			if store == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache is disabled")
				return nil
			}
			defer store.Close()

			if err := store.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
			return nil
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Evict the oldest cached results beyond the size budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			store, err := ctx.openCache(cfg, logger)
			if err != nil {
				return fmt.Errorf("open analysis cache: %w", err)
			}
			if store == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache is disabled")
				return nil
			}
			defer store.Close()

			maxBytes := int64(cfg.Cache.MaxMiB) * 1024 * 1024
			if err := store.Prune(cmd.Context(), maxBytes); err != nil {
				return fmt.Errorf("prune cache: %w", err)
			}
			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("read cache stats: %w", err)
			}
			logger.Debug("prune complete",
				logging.Int("probe_entries", stats.ProbeEntries),
				logging.Int("crop_entries", stats.CropEntries))
			fmt.Fprintf(cmd.OutOrStdout(), "Cache pruned: %d probe entries, %d crop entries remain\n",
				stats.ProbeEntries, stats.CropEntries)
			return nil
		},
	}
}
