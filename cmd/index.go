package cmd

import (
	"fmt"
	"time"

	"github.com/everyfind/everyfind/internal/cache"
	"github.com/everyfind/everyfind/internal/cancel"
	"github.com/everyfind/everyfind/internal/config"
	"github.com/everyfind/everyfind/internal/persist"
	"github.com/everyfind/everyfind/internal/walker"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
)

// indexCmd is grounded on the teacher's build command: one-shot
// [source] work that writes a persisted artifact and exits, in
// contrast to watchCmd's long-running daemon.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Walk the watch root once and write a snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve(cmd.Flags(), configPath)
		if err != nil {
			return err
		}
		if cfg.SnapshotPath == "" {
			return fmt.Errorf("index: --snapshot-path is required")
		}

		// osfs rooted at "/" so slab paths and FUSE/MCP surfaces show
		// the real absolute host path rather than a chroot-relative one.
		fs := osfs.New("/")
		w := walker.New(fs)

		start := time.Now()
		fmt.Printf("Indexing %s...\n", cfg.WatchRoot)
		c, err := cache.BulkBuild(fs, cfg.WatchRoot, w, walker.Options{
			Cancel:          cancel.Noop(),
			Concurrency:     cfg.WalkConcurrency,
			IgnoreDirectory: cfg.IgnoreDirectory,
		})
		if err != nil {
			return fmt.Errorf("index: bulk build: %w", err)
		}
		fmt.Printf("Indexed %s in %v.\n", cfg.WatchRoot, time.Since(start))

		if err := persist.Save(c, cfg.SnapshotPath); err != nil {
			return fmt.Errorf("index: save snapshot: %w", err)
		}
		fmt.Printf("Wrote snapshot to %s.\n", cfg.SnapshotPath)
		return nil
	},
}
