// Package cropdetect derives a crop rectangle for a video file from a sampled
// ffmpeg cropdetect pass. The analyzer samples the stable middle window of
// the file at a low frame rate, masks the station-logo corner, and parses the
// last cropdetect marker line of the diagnostic output into a Geometry that
// supports incremental tightening.
package cropdetect
