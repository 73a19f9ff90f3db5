package cmd

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// stopCmd is adapted from the teacher's unmountCmd: signal the daemon
// to stop, escalating to SIGKILL if it doesn't exit promptly, then
// clean up its sidecar metadata.
var stopCmd = &cobra.Command{
	Use:   "stop <watch-root>",
	Short: "Stop the watch daemon for a given watch root",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		watchRoot := args[0]
		watches, err := listActiveWatches()
		if err != nil {
			return err
		}

		var target *WatchMetadata
		for _, meta := range watches {
			if meta.WatchRoot == watchRoot {
				target = meta
				break
			}
		}
		if target == nil {
			return fmt.Errorf("stop: no watch daemon found for %s", watchRoot)
		}

		if isProcessRunning(target.PID) {
			process, err := os.FindProcess(target.PID)
			if err != nil {
				return fmt.Errorf("stop: find process %d: %w", target.PID, err)
			}
			fmt.Printf("Stopping watch daemon (PID %d)...\n", target.PID)
			if err := process.Signal(syscall.SIGTERM); err != nil {
				return fmt.Errorf("stop: send SIGTERM: %w", err)
			}
			time.Sleep(2 * time.Second)
			if isProcessRunning(target.PID) {
				fmt.Println("Process still running, sending SIGKILL...")
				_ = process.Signal(syscall.SIGKILL)
			}
		}

		if err := removeWatchMetadata(watchRoot); err != nil {
			return fmt.Errorf("stop: remove metadata: %w", err)
		}
		fmt.Println("Watch daemon stopped.")
		return nil
	},
}
