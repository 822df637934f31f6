package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validatePlayback(); err != nil {
		return err
	}
	if err := c.validateStatus(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.ChunkSize < minChunkSize || c.Sync.ChunkSize > maxChunkSize {
		return fmt.Errorf("sync.chunk_size must be between %d and %d, got %d", minChunkSize, maxChunkSize, c.Sync.ChunkSize)
	}
	return nil
}

func (c *Config) validatePlayback() error {
	if c.Playback.UpdateRate < 0 || c.Playback.UpdateRate > maxUpdateRate {
		return fmt.Errorf("playback.update_rate must be between 0 and %d, got %d", maxUpdateRate, c.Playback.UpdateRate)
	}
	if c.Playback.FrameRate > 240 {
		return errors.New("playback.frame_rate must not exceed 240")
	}
	return nil
}

func (c *Config) validateStatus() error {
	if c.Status.TemporarySeconds < 0 {
		return errors.New("status.temporary_seconds must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
