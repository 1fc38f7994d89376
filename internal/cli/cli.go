package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/landscape/pkg/buildinfo"
	"github.com/matzehuels/landscape/pkg/cache"
	"github.com/matzehuels/landscape/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "landscape"

	// redisEnv names the environment variable holding a Redis cache URL.
	redisEnv = "LANDSCAPE_REDIS_URL"

	// redisPrefix namespaces landscape keys in a shared Redis.
	redisPrefix = "landscape:"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Landscape clusters entities by similarity and lays them out as a map",
		Long: `Landscape builds a sparse similarity graph from tagged (or embedded) entities,
detects hierarchical clusters, names them from their most distinctive tags,
and computes 2D coordinates that keep clusters in separate regions.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.runCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// cacheFlags selects the cache backend for a command.
type cacheFlags struct {
	noCache bool
	redis   string
}

func (f *cacheFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&f.redis, "redis", os.Getenv(redisEnv), "Redis URL for a shared cache (default: local files, env "+redisEnv+")")
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, flags cacheFlags) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, flags)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, nil, c.Logger), nil
}

// newCache picks Redis when a URL is given, else the file cache. An
// unreachable Redis falls back to no caching with a warning.
func (c *CLI) newCache(ctx context.Context, flags cacheFlags) (cache.Cache, error) {
	if flags.noCache {
		return cache.Disabled("--no-cache"), nil
	}
	if flags.redis != "" {
		rc, err := cache.NewRedisCache(flags.redis, redisPrefix)
		if err != nil {
			return nil, err
		}
		if err := rc.Ping(ctx); err != nil {
			c.Logger.Warn("redis unavailable, caching disabled", "err", err)
			rc.Close()
			return cache.Disabled("redis unavailable"), nil
		}
		return rc, nil
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "err", err)
		return cache.Disabled("no cache directory"), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/landscape/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
