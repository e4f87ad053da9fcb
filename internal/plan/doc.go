// Package plan assembles the per-file transcoding plan: it probes the
// container, selects and deduplicates audio streams, decides copy versus
// transcode per kept track, and attaches the detected crop rectangle. The
// resulting Plan renders as ffmpeg-style argument tokens for the external
// encoding process; reelprep itself never encodes.
package plan
