// Package ffprobe builds immutable stream-metadata snapshots by invoking
// ffprobe and decoding its JSON report.
//
// Probed metadata is inherently partial: containers disagree on which fields
// and tags they carry. Every accessor on Probe is therefore total — a missing
// or malformed field resolves to an explicit absent result rather than an
// error. The only hard failures are a missing input file (ErrNotFound),
// undecodable ffprobe output (ErrProbe), and out-of-range stream indices,
// which panic because they are caller bugs rather than data problems.
package ffprobe
