package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"isbndate/internal/config"
	"isbndate/internal/datecache"
	"isbndate/internal/logging"
	"isbndate/internal/providers/registry"
	"isbndate/internal/resolver"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if err := cfg.OverrideLogLevel(*c.logLevelFlag); err != nil {
				c.configErr = fmt.Errorf("--log-level: %w", err)
				return
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// openCache loads the configured date cache.
func (c *commandContext) openCache() (*datecache.Cache, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return datecache.Open(cfg.Paths.CacheFile, logger), nil
}

// newResolver wires the cache, the configured provider chain and pacing.
func (c *commandContext) newResolver(cache *datecache.Cache, opts ...resolver.Option) (*resolver.Resolver, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	chain, err := registry.Build(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build provider chain: %w", err)
	}
	base := []resolver.Option{
		resolver.WithLogger(logger),
		resolver.WithFlushEvery(cfg.Resolution.FlushEvery),
		resolver.WithPacer(resolver.NewPacer(cfg.PaceDelay(), cfg.PaceJitter())),
	}
	return resolver.New(cache, chain, append(base, opts...)...)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
