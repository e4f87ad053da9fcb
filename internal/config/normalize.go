package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error

	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobeBinary
	}
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}

	c.Audio.PreferredLanguages = normalizeLanguages(c.Audio.PreferredLanguages)
	c.Audio.ExcludedLanguages = normalizeLanguages(c.Audio.ExcludedLanguages)
	c.Audio.TargetCodec = strings.TrimSpace(c.Audio.TargetCodec)
	if c.Audio.TargetCodec == "" {
		c.Audio.TargetCodec = defaultTargetCodec
	}
	if c.Audio.Quality == 0 {
		c.Audio.Quality = defaultQuality
	}

	if c.Crop.SkipFraction == 0 {
		c.Crop.SkipFraction = defaultSkipFraction
	}

	if c.Cache.Dir, err = expandPath(c.Cache.Dir); err != nil {
		return fmt.Errorf("cache.dir: %w", err)
	}
	if c.Cache.MaxMiB == 0 {
		c.Cache.MaxMiB = defaultCacheMaxMiB
	}

	c.normalizeLogging()
	return nil
}

func normalizeLanguages(values []string) []string {
	normalized := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		normalized = append(normalized, value)
	}
	return normalized
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
	if dir := strings.TrimSpace(c.Logging.Dir); dir != "" {
		if expanded, err := expandPath(dir); err == nil {
			c.Logging.Dir = expanded
		}
	}
}
