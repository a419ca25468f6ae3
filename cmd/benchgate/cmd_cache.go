package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/benchgate/benchgate/internal/cache"
	"github.com/spf13/cobra"
)

var (
	cacheDir      string
	cacheDevice   string
	cachePut      bool
	cacheLocation string
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the shared dependency cache index",
		Long: `Manage the shared dependency cache index.

Workers with identical environments (Python, torch and CUDA versions, device,
pinned packages and lockfiles) can share installed dependencies. The cache key
is a SHA-256 of the environment descriptor; the index records which keys have
been built and where.`,
	}

	cmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Cache index directory (default: cache.dir from .benchgate.yaml)")

	cmd.AddCommand(newCacheKeyCommand())
	cmd.AddCommand(newCacheGetCommand())
	cmd.AddCommand(newCacheListCommand())
	cmd.AddCommand(newCacheClearCommand())

	return cmd
}

func newCacheKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key <descriptor.yaml>",
		Short: "Print the cache key for an environment descriptor",
		Long: `Print the cache key for an environment descriptor.

Lockfiles are resolved relative to the descriptor. With --put the key is
recorded in the index together with --location.`,
		Args: cobra.ExactArgs(1),
		RunE: cacheKeyE,
	}

	cmd.Flags().StringVar(&cacheDevice, "device", "", "Device override (default: descriptor, then BENCHGATE_DEVICE, then defaults.device)")
	cmd.Flags().BoolVar(&cachePut, "put", false, "Record the key in the cache index")
	cmd.Flags().StringVar(&cacheLocation, "location", "", "Where the dependencies for this key are installed (with --put)")

	return cmd
}

func newCacheGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Show a cache entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := openCache()
			if err != nil {
				return err
			}
			entry, ok := c.Get(args[0])
			if !ok {
				return fmt.Errorf("cache miss: %s", args[0])
			}
			return writeJSON(cmd.OutOrStdout(), entry)
		},
	}
}

func newCacheListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cache entries, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, _, err := openCache()
			if err != nil {
				return err
			}
			entries, err := c.List()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(w, "No cache entries.") //nolint:errcheck
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(w, "%s  %s  python %s  torch %s  %s\n", //nolint:errcheck
					e.Key[:min(12, len(e.Key))], e.CreatedAt.Format(time.RFC3339), e.Descriptor.Python, orNone(e.Descriptor.Torch), orNone(e.Location))
			}
			return nil
		},
	}
}

func newCacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the cache index",
		Long: `Clear all recorded cache keys.

Only a directory holding nothing but cache entries is removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, dir, err := openCache()
			if err != nil {
				return err
			}
			if err := c.Clear(); err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s\n", dir) //nolint:errcheck
			return nil
		},
	}
}

func cacheKeyE(cmd *cobra.Command, args []string) error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}
	env, err := loadEnv()
	if err != nil {
		return err
	}

	d, err := cache.LoadDescriptor(args[0])
	if err != nil {
		return err
	}
	switch {
	case cacheDevice != "":
		d.Device = cacheDevice
	case d.Device != "":
	case env.Device != "":
		d.Device = env.Device
	default:
		d.Device = cfg.Defaults.Device
	}

	key, err := cache.Key(d, filepath.Dir(args[0]))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), key) //nolint:errcheck

	if cachePut {
		c, _, err := openCache()
		if err != nil {
			return err
		}
		entry := &cache.Entry{Key: key, Descriptor: *d, CreatedAt: time.Now().UTC(), Location: cacheLocation}
		if err := c.Put(entry); err != nil {
			return fmt.Errorf("recording cache key: %w", err)
		}
	}
	return nil
}

// openCache resolves the cache directory from the flag or project config.
func openCache() (*cache.Cache, string, error) {
	dir := cacheDir
	if dir == "" {
		cfg, err := loadProject()
		if err != nil {
			return nil, "", err
		}
		dir = cfg.Resolve(cfg.Cache.Dir)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", fmt.Errorf("resolving cache directory: %w", err)
	}
	return cache.New(absDir), absDir, nil
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
