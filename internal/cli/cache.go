package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/landscape/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the similarity and layout cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var flags cacheFlags
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached similarity matrices and layouts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := c.newCache(cmd.Context(), flags)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer cc.Close()

			clearer, ok := cc.(cache.Clearer)
			if !ok {
				printInfo("Cache is %s", cc)
				return nil
			}
			if err := clearer.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			printSuccess("Cleared cache")
			if fc, ok := cc.(*cache.FileCache); ok {
				printDetail("Directory: %s", fc.Dir())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.redis, "redis", "", "clear a Redis cache instead of the local one")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
