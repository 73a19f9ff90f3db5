package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// cleanCmd sweeps the sidecar registry (see daemon.go) for watch
// metadata left behind by daemons whose process has already died.
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove stale watch daemon metadata (process no longer running)",
	RunE: func(cmd *cobra.Command, args []string) error {
		watches, err := listActiveWatches()
		if err != nil {
			return err
		}

		cleaned := 0
		for _, meta := range watches {
			if isProcessRunning(meta.PID) {
				continue
			}
			fmt.Printf("Removing stale watch metadata: %s (PID %d not running)\n", meta.WatchRoot, meta.PID)
			if err := removeWatchMetadata(meta.WatchRoot); err != nil {
				fmt.Printf("warning: failed to remove %s: %v\n", meta.WatchRoot, err)
				continue
			}
			cleaned++
		}

		if cleaned == 0 {
			fmt.Println("No stale watch daemons found.")
		} else {
			fmt.Printf("Cleaned %d stale watch daemon(s).\n", cleaned)
		}
		return nil
	},
}
