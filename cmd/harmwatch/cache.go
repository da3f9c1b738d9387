package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"harmwatch/internal/cache"
	"harmwatch/internal/cli"
	"harmwatch/internal/config"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the local complaint cache",
	}

	cmd.AddCommand(cacheStatsCmd())
	cmd.AddCommand(cacheClearCmd())
	return cmd
}

func openLocalStore() (*cache.LocalStore, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	store, err := cache.NewLocalStore(
		filepath.Join(cfg.CacheDir, "complaints.db"),
		cfg.CacheFreshness(), cfg.CoverageTolerance())
	if err != nil {
		return nil, fmt.Errorf("failed to open local cache: %w", err)
	}
	return store, nil
}

func cacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show what the local cache currently holds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openLocalStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			lines := fmt.Sprintf("Complaints:   %d\nWindow sizes: %d", stats.TotalComplaints, stats.WindowSizes)
			if !stats.OldestComplaint.IsZero() {
				lines += fmt.Sprintf("\nOldest:       %s\nNewest:       %s",
					stats.OldestComplaint.Format(time.DateOnly),
					stats.NewestComplaint.Format(time.DateOnly))
			}
			fmt.Println(cli.RenderBox(cli.FolderIcon+" Local Cache", lines))
			return nil
		},
	}
}

func cacheClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop cached complaints older than a cutoff",
		RunE: func(cmd *cobra.Command, _ []string) error {
			days, _ := cmd.Flags().GetInt("older-than")
			if days < 0 {
				return fmt.Errorf("--older-than must not be negative")
			}

			store, err := openLocalStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cutoff := time.Now().AddDate(0, 0, -days)
			removed, err := store.ClearOlderThan(cmd.Context(), cutoff)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Removed %d cached complaints received before %s",
				removed, cutoff.Format(time.DateOnly))))
			return nil
		},
	}

	cmd.Flags().Int("older-than", 0, "age cutoff in days (0 clears everything)")
	return cmd
}
