package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-cfg-complexity/internal/config"
	"github.com/l3aro/go-cfg-complexity/internal/log"
	"github.com/l3aro/go-cfg-complexity/pkg/cache"
)

// loadConfig reads --config when given, else the layered configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if v, _ := cmd.Flags().GetBool("verbose"); v {
		cfg.Verbose = true
	}
	return cfg, nil
}

// newLogger builds the stderr logger the config asks for.
func newLogger(cmd *cobra.Command, cfg *config.Config) (log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.Verbose {
		level = log.DebugLevel
	}
	return log.New(log.LoggerConfig{
		Level:      level,
		JSONOutput: cfg.LogJSON,
		Stderr:     cmd.ErrOrStderr(),
	}), nil
}

// openCache loads the persisted result cache. A cache that cannot be read
// is logged and replaced by an empty one.
func openCache(cfg *config.Config, logger log.Logger) *cache.LRUCache {
	c := cache.New(cache.Options{MaxSize: cfg.CacheMaxEntries})
	if err := cache.LoadFromFile(c, cfg.CachePath); err != nil {
		logger.Warn("ignoring unreadable cache", "path", cfg.CachePath, "err", err)
		c.Clear()
	}
	logger.Debug("cache loaded", "path", cfg.CachePath, "entries", c.Len())
	return c
}

func saveCache(c *cache.LRUCache, cfg *config.Config, logger log.Logger) {
	if err := cache.PersistToFile(c, cfg.CachePath); err != nil {
		logger.Warn("failed to save cache", "path", cfg.CachePath, "err", err)
		return
	}
	stats := c.Stats()
	logger.Debug("cache saved", "path", cfg.CachePath, "entries", stats.Length,
		"bytes", stats.CurrentBytes, "hits", stats.HitCount, "misses", stats.MissCount)
}
