// Package deps verifies that the external tools reelprep shells out to are
// present on PATH before any analysis starts.
package deps
