package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"subsync/internal/config"
	"subsync/internal/logging"
	"subsync/internal/settings"
	"subsync/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
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

// openKeeper opens the settings store and a keeper restored from it. The
// caller closes the store. With persistence disabled the store is nil.
func (c *commandContext) openKeeper(ctx context.Context) (*settings.Keeper, *store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}

	opts := settings.KeeperOptions{
		Key:      cfg.Settings.PersistKey,
		Debounce: cfg.SettingsDebounce(),
		Presets:  cfg.Settings.Presets,
		Logger:   logger,
	}
	var st *store.Store
	if cfg.Settings.Persist {
		st, err = store.Open(cfg)
		if err != nil {
			return nil, nil, err
		}
		opts.Persister = st
	}

	keeper := settings.NewKeeper(opts)
	if err := keeper.Load(ctx); err != nil {
		if st != nil {
			st.Close()
		}
		return nil, nil, err
	}
	return keeper, st, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
