package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// listCmd is adapted from the teacher's listCmd, scanning sidecar
// metadata files for running daemons instead of mache mounts.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List running watch daemons",
	RunE: func(cmd *cobra.Command, args []string) error {
		watches, err := listActiveWatches()
		if err != nil {
			return err
		}
		if len(watches) == 0 {
			fmt.Println("No active watch daemons found.")
			return nil
		}

		fmt.Printf("%-10s %-40s %-10s %s\n", "PID", "WATCH ROOT", "STATUS", "FUSE MOUNT")
		fmt.Println(strings.Repeat("-", 90))
		for _, meta := range watches {
			status := "running"
			if !isProcessRunning(meta.PID) {
				status = "stale"
			}
			fmt.Printf("%-10d %-40s %-10s %s\n", meta.PID, meta.WatchRoot, status, meta.FuseMount)
		}
		return nil
	},
}
