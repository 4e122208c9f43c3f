package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dnt/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the remote module cache",
}

var cacheDirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Print the cache directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir, err := resolveCacheDir(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), dir)
		return nil
	},
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every cached remote module",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir, err := resolveCacheDir(cmd)
		if err != nil {
			return err
		}
		c, err := cache.Open(dir)
		if err != nil {
			return err
		}
		if err := c.DropAll(); err != nil {
			return fmt.Errorf("failed to clean %q: %w", dir, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", dir)
		return nil
	},
}

func init() {
	cacheCmd.PersistentFlags().String("cache-dir", "", "cache directory (default $XDG_CACHE_HOME/dnt)")
	cacheCmd.AddCommand(cacheDirCmd)
	cacheCmd.AddCommand(cacheCleanCmd)
}

// resolveCacheDir picks --cache-dir, then [cache].dir, then the default.
func resolveCacheDir(cmd *cobra.Command) (string, error) {
	dir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return "", fmt.Errorf("failed to get cache-dir flag: %w", err)
	}
	if dir != "" {
		return dir, nil
	}
	manifest, _, err := loadProjectManifest(".")
	if err != nil {
		return "", err
	}
	if manifest.isSet("cache", "dir") && manifest.Config.Cache.Dir != "" {
		return manifest.resolve(manifest.Config.Cache.Dir), nil
	}
	dir, err = cache.DefaultDir("dnt")
	if err != nil {
		return "", fmt.Errorf("%w: %w", errNoCacheDir, err)
	}
	return dir, nil
}
