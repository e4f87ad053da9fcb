// Package plancache persists per-file analysis results (probe JSON and crop
// rectangles) in a SQLite database keyed by path, size, and mtime. It lets
// repeated planning of unchanged files skip the external probing and sampling
// processes. The cache is derived data only: a changed file invalidates its
// entries, and a missing or disabled cache simply means every lookup misses.
package plancache
