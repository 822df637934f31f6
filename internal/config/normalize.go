package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSync()
	c.normalizeParser()
	c.normalizePlayback()
	c.normalizeSettings()
	c.normalizeFetch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSync() {
	if c.Sync.ChunkSize == 0 {
		c.Sync.ChunkSize = defaultChunkSize
	}
	c.Sync.RelayBind = strings.TrimSpace(c.Sync.RelayBind)
	if c.Sync.RelayBind == "" {
		c.Sync.RelayBind = defaultRelayBind
	}
	c.Sync.RelayURL = strings.TrimSpace(c.Sync.RelayURL)
	c.Sync.DisplayName = strings.TrimSpace(c.Sync.DisplayName)
	if c.Sync.DisplayName == "" {
		if value, ok := os.LookupEnv("SUBSYNC_DISPLAY_NAME"); ok {
			c.Sync.DisplayName = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeParser() {
	if c.Parser.FrameBudgetMS <= 0 {
		c.Parser.FrameBudgetMS = defaultFrameBudgetMS
	}
	c.Parser.LinesPerFrame = max(0, c.Parser.LinesPerFrame)
}

func (c *Config) normalizePlayback() {
	if c.Playback.FrameRate <= 0 {
		c.Playback.FrameRate = defaultFrameRate
	}
}

func (c *Config) normalizeSettings() {
	c.Settings.PersistKey = strings.TrimSpace(c.Settings.PersistKey)
	if c.Settings.PersistKey == "" {
		c.Settings.PersistKey = defaultPersistKey
	}
	if c.Settings.DebounceMS < 0 {
		c.Settings.DebounceMS = 0
	}
	presets := c.Settings.Presets[:0]
	for _, preset := range c.Settings.Presets {
		if trimmed := strings.TrimSpace(preset); trimmed != "" {
			presets = append(presets, trimmed)
		}
	}
	c.Settings.Presets = presets
}

func (c *Config) normalizeFetch() {
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = defaultFetchTimeout
	}
	if c.Fetch.MaxBytes <= 0 {
		c.Fetch.MaxBytes = defaultFetchMaxBytes
	}
	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = defaultFetchUserAgent
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
