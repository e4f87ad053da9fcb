// Package logging assembles the structured slog loggers used across reelprep.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context helpers so analysis code automatically tags log lines
// with per-run correlation IDs. Prefer these constructors over hand-rolled
// slog setup so every component emits data with the same shape.
package logging
