// Package cmd implements the everyfind CLI: index, watch, search, and
// the read-only FUSE/MCP surfaces layered on top of the background
// loop. Grounded on the teacher's cmd/mount.go for overall cobra
// wiring (persistent flags bound in init, a --quiet stdout redirect,
// SIGINT/SIGTERM shutdown handling) and cmd/agent.go for the
// sidecar-metadata registry pattern, adapted here to track running
// watch daemons instead of mache mounts.
package cmd

import (
	"fmt"
	"os"

	"github.com/everyfind/everyfind/internal/config"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     "everyfind",
	Short:   "everyfind: an Everything-style local file search engine",
	Version: fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date),
}

func init() {
	config.BindFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML/JSON config file.")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(cleanCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("everyfind version %s (commit %s, built %s)\n", Version, Commit, Date)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
