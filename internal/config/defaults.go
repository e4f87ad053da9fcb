package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultFFprobeBinary = "ffprobe"
	defaultFFmpegBinary  = "ffmpeg"
	defaultTargetCodec   = "libvorbis"
	defaultQuality       = 5
	defaultSkipFraction  = 0.10
	defaultTrimPixels    = 0
	defaultCacheMaxMiB   = 256
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Tools: Tools{
			FFprobe: defaultFFprobeBinary,
			FFmpeg:  defaultFFmpegBinary,
		},
		Audio: Audio{
			ExcludedLanguages: []string{"nar"},
			ReencodePatterns:  []string{"pcm.*", "dts", "truehd", "mlp", "flac", "alac"},
			TargetCodec:       defaultTargetCodec,
			Quality:           defaultQuality,
		},
		Crop: Crop{
			Enabled:      true,
			SkipFraction: defaultSkipFraction,
			TrimPixels:   defaultTrimPixels,
		},
		Cache: Cache{
			Enabled: true,
			Dir:     defaultCacheDir(),
			MaxMiB:  defaultCacheMaxMiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "reelprep")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/reelprep"
	}
	return filepath.Join(home, ".cache", "reelprep")
}
