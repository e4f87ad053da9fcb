// Package audioselect decides which audio streams of a probed container to
// keep. It applies a language filter (a preferred set, or an exclusion set
// when no preference is given) and collapses duplicate encodings of the same
// master track using the per-stream source identifier, preferring the larger
// encoding and keeping the first on ties.
package audioselect
