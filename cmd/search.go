package cmd

import (
	"fmt"

	"github.com/everyfind/everyfind/internal/cache"
	"github.com/everyfind/everyfind/internal/cancel"
	"github.com/everyfind/everyfind/internal/config"
	"github.com/everyfind/everyfind/internal/persist"
	"github.com/everyfind/everyfind/internal/query"
	"github.com/everyfind/everyfind/internal/walker"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
)

// searchCmd runs a single query against a persisted snapshot, or a
// fresh bulk-built cache when --snapshot-path is unset. Grounded on
// the teacher's standalone build command's pattern of doing one unit
// of work and exiting, rather than the long-running watch daemon.
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Evaluate an Everything-compatible query and print matching paths",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve(cmd.Flags(), configPath)
		if err != nil {
			return err
		}

		fs := osfs.New("/")
		var c *cache.Cache
		if cfg.SnapshotPath != "" {
			c, err = persist.Load(fs, cfg.SnapshotPath, cfg.WatchRoot)
			if err != nil {
				return fmt.Errorf("search: load snapshot: %w", err)
			}
		} else {
			w := walker.New(fs)
			c, err = cache.BulkBuild(fs, cfg.WatchRoot, w, walker.Options{
				Cancel:          cancel.Noop(),
				Concurrency:     cfg.WalkConcurrency,
				IgnoreDirectory: cfg.IgnoreDirectory,
			})
			if err != nil {
				return fmt.Errorf("search: bulk build: %w", err)
			}
		}

		q, err := query.Parse(args[0])
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		q = query.Optimize(q)

		nodes, ok, err := query.Evaluate(q, c, query.SearchOptions{CaseInsensitive: cfg.CaseInsensitive}, cancel.Noop())
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		if !ok {
			return fmt.Errorf("search: cancelled")
		}

		for _, rec := range c.Expand(nodes, false) {
			fmt.Println(rec.Path)
		}
		fmt.Printf("%d result(s).\n", len(nodes))
		return nil
	},
}
