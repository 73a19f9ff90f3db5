// Package config implements the layered configuration for the watch
// daemon: flag defaults, overridden by a config file, overridden by
// environment variables, overridden by explicit flags. Grounded on
// GoogleCloudPlatform-gcsfuse's cfg.BindFlags pattern (pflag.FlagSet
// registered, each flag bound into a viper key), adapted from gcsfuse's
// generated mount-option surface to this project's watch/search surface.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// WatchConfig is the resolved configuration for one watch-root daemon
// instance.
type WatchConfig struct {
	// WatchRoot is the absolute path the cache indexes and watches.
	WatchRoot string `mapstructure:"watch-root"`

	// SnapshotPath is where the persisted snapshot is read from and
	// written to. Empty disables snapshotting entirely.
	SnapshotPath string `mapstructure:"snapshot-path"`

	// QuietPeriod is how long the OS event source waits after the last
	// observed filesystem event before flushing a batch.
	QuietPeriod time.Duration `mapstructure:"quiet-period"`

	// WalkConcurrency bounds the walker's work-stealing parallelism; 0
	// selects the walker's own default (GOMAXPROCS-derived).
	WalkConcurrency int `mapstructure:"walk-concurrency"`

	// IgnoreDirectory names one subtree elided from traversal entirely.
	IgnoreDirectory string `mapstructure:"ignore-directory"`

	// CaseInsensitive is the default SearchOptions.CaseInsensitive for
	// searches that don't specify it explicitly.
	CaseInsensitive bool `mapstructure:"case-insensitive"`

	// FuseMountPoint, if non-empty, mounts a read-only view of the cache
	// there in addition to running the watch daemon.
	FuseMountPoint string `mapstructure:"fuse-mount-point"`

	// MCPEnabled serves the MCP tool surface over stdio alongside the
	// watch daemon.
	MCPEnabled bool `mapstructure:"mcp-enabled"`

	// Quiet silences every internal/logging logger, the way cmd/mount.go's
	// -quiet redirects its own output to /dev/null.
	Quiet bool `mapstructure:"quiet"`
}

// BindFlags registers every WatchConfig field onto flagSet with its
// default value. Call this once, from the owning cobra command's
// init, before the flag set is parsed.
func BindFlags(flagSet *pflag.FlagSet) {
	flagSet.String("watch-root", "", "Absolute path to index and watch.")
	flagSet.String("snapshot-path", "", "Path to the persisted snapshot file. Empty disables snapshotting.")
	flagSet.Duration("quiet-period", 200*time.Millisecond, "Quiet period before a batch of filesystem events is flushed.")
	flagSet.Int("walk-concurrency", 0, "Walker work-stealing parallelism. 0 selects a GOMAXPROCS-derived default.")
	flagSet.String("ignore-directory", "", "One subtree, by absolute path, elided from traversal entirely.")
	flagSet.Bool("case-insensitive", true, "Default case sensitivity for searches that don't specify it.")
	flagSet.String("fuse-mount-point", "", "Mount point for the optional read-only FUSE view. Empty disables it.")
	flagSet.Bool("mcp-enabled", false, "Serve the MCP tool surface over stdio alongside the watch daemon.")
	flagSet.BoolP("quiet", "q", false, "Silence diagnostic logging.")
}

// Resolve layers an already-parsed flagSet (highest precedence) over
// environment variables (EVERYFIND_ prefix), over a config file (if
// configPath is non-empty), over the flag defaults BindFlags
// registered (lowest). It decodes the result into a WatchConfig and
// validates required fields.
func Resolve(flagSet *pflag.FlagSet, configPath string) (*WatchConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("everyfind")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read config file %s: %w", configPath, err)
		}
	}

	if err := v.BindPFlags(flagSet); err != nil {
		return nil, fmt.Errorf("config: bind flags: %w", err)
	}

	var cfg WatchConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.WatchRoot == "" {
		return nil, fmt.Errorf("config: watch-root is required")
	}
	return &cfg, nil
}
