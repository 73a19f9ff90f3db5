package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/everyfind/everyfind/internal/cache"
	"github.com/everyfind/everyfind/internal/cancel"
	"github.com/everyfind/everyfind/internal/config"
	"github.com/everyfind/everyfind/internal/fuseview"
	"github.com/everyfind/everyfind/internal/logging"
	"github.com/everyfind/everyfind/internal/loop"
	"github.com/everyfind/everyfind/internal/mcpserver"
	"github.com/everyfind/everyfind/internal/persist"
	"github.com/everyfind/everyfind/internal/walker"
	"github.com/everyfind/everyfind/internal/watch"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

// watchCmd is grounded on the teacher's rootCmd RunE: it mounts (here,
// indexes and watches) a root, starts the hot-swap background loop,
// and blocks on SIGINT/SIGTERM before tearing everything down. Unlike
// mount.go's 100ms-poll hot-swap goroutine, the cache swap here is
// driven by internal/loop's channel multiplexer rather than a
// control-block generation counter.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Index the watch root and keep it current via filesystem events",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve(cmd.Flags(), configPath)
		if err != nil {
			return err
		}
		if cfg.Quiet {
			logging.Discard()
		}

		rootFS := osfs.New("/")
		w := walker.New(rootFS)
		walkOpts := walker.Options{
			Cancel:          cancel.Noop(),
			Concurrency:     cfg.WalkConcurrency,
			IgnoreDirectory: cfg.IgnoreDirectory,
		}

		c, err := loadOrBuildCache(rootFS, w, cfg, walkOpts)
		if err != nil {
			return err
		}

		osWatcher, err := watch.NewOSWatcher()
		if err != nil {
			return fmt.Errorf("watch: start OS watcher: %w", err)
		}
		source, err := watch.NewSource(osWatcher, cfg.WatchRoot, watch.Options{QuietPeriod: cfg.QuietPeriod})
		if err != nil {
			return fmt.Errorf("watch: watch %s: %w", cfg.WatchRoot, err)
		}
		defer func() { _ = source.Close() }()

		l := loop.New(c, w, source)
		go l.Run()

		meta := &WatchMetadata{
			PID:          os.Getpid(),
			WatchRoot:    cfg.WatchRoot,
			SnapshotPath: cfg.SnapshotPath,
			FuseMount:    cfg.FuseMountPoint,
			MCPEnabled:   cfg.MCPEnabled,
			Timestamp:    time.Now(),
		}
		if err := saveWatchMetadata(meta); err != nil {
			fmt.Printf("warning: failed to save watch metadata: %v\n", err)
		}
		defer func() { _ = removeWatchMetadata(cfg.WatchRoot) }()

		var fuseServer *fuse.Server
		if cfg.FuseMountPoint != "" {
			fuseServer, err = mountFuseView(l, cfg.FuseMountPoint)
			if err != nil {
				return err
			}
			defer func() { _ = fuseServer.Unmount() }()
			fmt.Printf("Mounted read-only view at %s.\n", cfg.FuseMountPoint)
		}

		if cfg.MCPEnabled {
			go serveMCP(l)
			fmt.Printf("MCP tool surface available over stdio.\n")
		}

		fmt.Printf("Watching %s. Press Ctrl-C to stop.\n", cfg.WatchRoot)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		fmt.Printf("\nShutting down...\n")
		reply := make(chan *cache.Cache)
		l.Shutdown <- loop.ShutdownRequest{Reply: reply}
		finalCache := <-reply

		if cfg.SnapshotPath != "" {
			if err := persist.Save(finalCache, cfg.SnapshotPath); err != nil {
				fmt.Printf("warning: failed to save snapshot: %v\n", err)
			} else {
				fmt.Printf("Snapshot saved to %s.\n", cfg.SnapshotPath)
			}
		}
		return nil
	},
}

// loadOrBuildCache loads a snapshot matching the configured watch root,
// falling back to a full bulk-built cache when no snapshot exists or
// its watch root doesn't match (persist.ErrWatchRootMismatch).
func loadOrBuildCache(filesystem billy.Filesystem, w *walker.Walker, cfg *config.WatchConfig, opts walker.Options) (*cache.Cache, error) {
	if cfg.SnapshotPath != "" {
		if _, err := os.Stat(cfg.SnapshotPath); err == nil {
			c, err := persist.Load(filesystem, cfg.SnapshotPath, cfg.WatchRoot)
			switch {
			case err == nil:
				fmt.Printf("Loaded snapshot from %s.\n", cfg.SnapshotPath)
				return c, nil
			case errors.Is(err, persist.ErrWatchRootMismatch):
				fmt.Printf("Snapshot watch root does not match %s, rebuilding.\n", cfg.WatchRoot)
			default:
				return nil, fmt.Errorf("watch: load snapshot: %w", err)
			}
		}
	}

	start := time.Now()
	fmt.Printf("Indexing %s...\n", cfg.WatchRoot)
	c, err := cache.BulkBuild(filesystem, cfg.WatchRoot, w, opts)
	if err != nil {
		return nil, fmt.Errorf("watch: bulk build: %w", err)
	}
	fmt.Printf("Indexed %s in %v.\n", cfg.WatchRoot, time.Since(start))
	return c, nil
}

func mountFuseView(l *loop.Loop, mountPoint string) (*fuse.Server, error) {
	reply := make(chan *cache.Cache, 1)
	l.Snapshot <- loop.SnapshotRequest{Reply: reply}
	c := <-reply

	root, err := fuseview.NewRoot(c)
	if err != nil {
		return nil, fmt.Errorf("watch: build fuse view: %w", err)
	}
	return fs.Mount(mountPoint, root, &fs.Options{})
}

func serveMCP(l *loop.Loop) {
	s := mcpserver.NewServer(mcpserver.Config{Loop: l})
	_ = server.ServeStdio(s)
}
