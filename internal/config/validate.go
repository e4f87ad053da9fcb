package config

import (
	"errors"
	"fmt"
	"regexp"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateCrop(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAudio() error {
	for _, pattern := range c.Audio.ReencodePatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("audio.reencode_patterns: invalid pattern %q: %w", pattern, err)
		}
	}
	if c.Audio.Quality < 0 || c.Audio.Quality > 10 {
		return errors.New("audio.quality must be between 0 and 10")
	}
	return nil
}

func (c *Config) validateCrop() error {
	if c.Crop.SkipFraction < 0 || c.Crop.SkipFraction >= 0.5 {
		return errors.New("crop.skip_fraction must be in [0, 0.5)")
	}
	if c.Crop.TrimPixels < 0 {
		return errors.New("crop.trim_pixels must not be negative")
	}
	return nil
}

func (c *Config) validateCache() error {
	if !c.Cache.Enabled {
		return nil
	}
	if c.Cache.Dir == "" {
		return errors.New("cache.dir must be set when the cache is enabled")
	}
	if c.Cache.MaxMiB < 0 {
		return errors.New("cache.max_mib must not be negative")
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
