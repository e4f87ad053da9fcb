// Package config loads, normalizes, and validates reelprep's TOML
// configuration. Defaults live in Default(); Load layers an optional config
// file over them, expands paths, and rejects unusable values before any
// analysis starts.
package config
