package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Tools.FFprobe != "ffprobe" || cfg.Tools.FFmpeg != "ffmpeg" {
		t.Fatalf("unexpected tool defaults: %+v", cfg.Tools)
	}
	if len(cfg.Audio.ExcludedLanguages) != 1 || cfg.Audio.ExcludedLanguages[0] != "nar" {
		t.Fatalf("unexpected excluded languages: %v", cfg.Audio.ExcludedLanguages)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, path, exists, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatalf("expected missing config at %s", path)
	}
	if cfg.Audio.TargetCodec != "libvorbis" || cfg.Audio.Quality != 5 {
		t.Fatalf("unexpected audio defaults: %+v", cfg.Audio)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[audio]
preferred_languages = [" ENG ", "jpn"]
target_codec = "libopus"

[crop]
skip_fraction = 0.15

[logging]
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if got := cfg.Audio.PreferredLanguages; len(got) != 2 || got[0] != "eng" || got[1] != "jpn" {
		t.Fatalf("unexpected preferred languages: %v", got)
	}
	if cfg.Audio.TargetCodec != "libopus" {
		t.Fatalf("unexpected target codec: %q", cfg.Audio.TargetCodec)
	}
	if cfg.Crop.SkipFraction != 0.15 {
		t.Fatalf("unexpected skip fraction: %v", cfg.Crop.SkipFraction)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"bad pattern", "[audio]\nreencode_patterns = [\"(\"]\n", "reencode_patterns"},
		{"bad skip fraction", "[crop]\nskip_fraction = 0.9\n", "skip_fraction"},
		{"bad log format", "[logging]\nformat = \"xml\"\n", "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if err := CreateSample(path); err == nil {
		t.Fatal("expected error when config already exists")
	}

	// The generated sample must itself load cleanly.
	if _, _, _, err := Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Logging.Dir = filepath.Join(dir, "logs")
	cfg.Cache.Dir = filepath.Join(dir, "cache")
	cfg.Cache.Enabled = true

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, sub := range []string{"logs", "cache"} {
		if info, err := os.Stat(filepath.Join(dir, sub)); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", sub, err)
		}
	}
}
