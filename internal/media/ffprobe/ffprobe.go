package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Sentinel errors distinguishing probe failure modes for callers.
var (
	// ErrNotFound indicates the input path does not resolve to a regular file.
	ErrNotFound = errors.New("media file not found")
	// ErrProbe indicates ffprobe produced structurally invalid output.
	ErrProbe = errors.New("probe output invalid")
)

// StreamType classifies a stream's codec_type field.
type StreamType string

const (
	TypeVideo    StreamType = "video"
	TypeAudio    StreamType = "audio"
	TypeSubtitle StreamType = "subtitle"
	TypeOther    StreamType = "other"
	// TypeUnknown is reported when codec_type is absent. It never matches a
	// type filter.
	TypeUnknown StreamType = "unknown"
)

// Tag keys read from per-stream metadata. The statistics tags are written by
// muxers such as mkvmerge; the source tag is an opaque identifier linking
// multiple encodings of the same master audio.
const (
	tagDuration  = "DURATION"
	tagByteCount = "NUMBER_OF_BYTES"
	tagSourceID  = "SOURCE_ID"
)

// stream mirrors one entry of ffprobe's streams array. Pointer fields keep
// absence distinguishable from a zero value.
type stream struct {
	Index       int               `json:"index"`
	CodecType   string            `json:"codec_type"`
	CodecName   string            `json:"codec_name"`
	Channels    *int              `json:"channels"`
	Width       *int              `json:"width"`
	Height      *int              `json:"height"`
	Duration    string            `json:"duration"`
	Disposition map[string]int    `json:"disposition"`
	Tags        map[string]string `json:"tags"`
}

type document struct {
	Streams []stream `json:"streams"`
}

// Probe is an immutable snapshot of a container's streams. Every accessor is
// total: missing or malformed metadata degrades to an explicit absent result,
// never an error. Out-of-range indices are a caller bug and panic.
type Probe struct {
	path    string
	streams []stream
	raw     []byte
}

// Inspect runs ffprobe against path and parses its JSON stream report.
// It returns ErrNotFound when path is not a regular file and ErrProbe when
// the output cannot be decoded.
func Inspect(ctx context.Context, binary, path string) (*Probe, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		detail := ""
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail = strings.TrimSpace(string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("%w: %v: %s", ErrProbe, err, detail)
	}

	probe, err := FromJSON(output)
	if err != nil {
		return nil, err
	}
	probe.path = path
	return probe, nil
}

// FromJSON builds a probe from a previously captured ffprobe JSON payload.
// The plan cache uses this to rebuild probes without re-running ffprobe.
func FromJSON(data []byte) (*Probe, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProbe, err)
	}
	return &Probe{
		streams: doc.Streams,
		raw:     append([]byte(nil), data...),
	}, nil
}

// Path returns the inspected file path, or "" for probes rebuilt from JSON.
func (p *Probe) Path() string { return p.path }

// RawJSON returns the raw ffprobe payload the probe was built from.
func (p *Probe) RawJSON() []byte { return append([]byte(nil), p.raw...) }

// StreamCount returns the number of streams in the container.
func (p *Probe) StreamCount() int { return len(p.streams) }

func (p *Probe) stream(i int) stream {
	if i < 0 || i >= len(p.streams) {
		panic(fmt.Sprintf("ffprobe: stream index %d out of range [0,%d)", i, len(p.streams)))
	}
	return p.streams[i]
}

// CodecType reports the stream's type, or TypeUnknown when absent.
func (p *Probe) CodecType(i int) StreamType {
	switch strings.ToLower(strings.TrimSpace(p.stream(i).CodecType)) {
	case "video":
		return TypeVideo
	case "audio":
		return TypeAudio
	case "subtitle":
		return TypeSubtitle
	case "":
		return TypeUnknown
	default:
		return TypeOther
	}
}

// CodecName reports the short codec identifier, or "" when absent.
func (p *Probe) CodecName(i int) string {
	return strings.TrimSpace(p.stream(i).CodecName)
}

// Channels reports the audio channel count when present.
func (p *Probe) Channels(i int) (int, bool) {
	c := p.stream(i).Channels
	if c == nil || *c < 0 {
		return 0, false
	}
	return *c, true
}

// IsDefault reports whether the stream carries the default disposition flag.
func (p *Probe) IsDefault(i int) bool {
	d := p.stream(i).Disposition
	return d != nil && d["default"] == 1
}

// Language reports the lowercased language tag when present.
func (p *Probe) Language(i int) (string, bool) {
	value := lookupTag(p.stream(i).Tags, "language")
	if value == "" {
		return "", false
	}
	return strings.ToLower(value), true
}

// Width reports the video frame width when present and positive.
func (p *Probe) Width(i int) (int, bool) {
	w := p.stream(i).Width
	if w == nil || *w <= 0 {
		return 0, false
	}
	return *w, true
}

// Height reports the video frame height when present and positive.
func (p *Probe) Height(i int) (int, bool) {
	h := p.stream(i).Height
	if h == nil || *h <= 0 {
		return 0, false
	}
	return *h, true
}

// DurationSeconds reports the stream duration in seconds. It prefers the
// stream's own duration field and falls back to the colon-delimited DURATION
// tag; when neither parses, the duration is absent.
func (p *Probe) DurationSeconds(i int) (float64, bool) {
	s := p.stream(i)
	if value := strings.TrimSpace(s.Duration); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed >= 0 {
			return parsed, true
		}
	}
	if tag := lookupTag(s.Tags, tagDuration); tag != "" {
		if seconds, ok := parseClockDuration(tag); ok {
			return seconds, true
		}
	}
	return 0, false
}

// SourceID reports the opaque source-identifier tag linking multiple
// encodings of the same master audio, when present.
func (p *Probe) SourceID(i int) (string, bool) {
	value := lookupTag(p.stream(i).Tags, tagSourceID)
	if value == "" {
		return "", false
	}
	return value, true
}

// ByteCount reports the stream's byte-count statistics tag, or 0 when absent.
// Meaningful only as a dedup tie-break.
func (p *Probe) ByteCount(i int) int64 {
	value := lookupTag(p.stream(i).Tags, tagByteCount)
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

// FirstVideoStream returns the lowest index whose type is video.
func (p *Probe) FirstVideoStream() (int, bool) {
	for i := range p.streams {
		if p.CodecType(i) == TypeVideo {
			return i, true
		}
	}
	return 0, false
}

// lookupTag resolves a tag by exact key first, then case-insensitively, since
// muxers disagree on tag key casing.
func lookupTag(tags map[string]string, key string) string {
	if len(tags) == 0 {
		return ""
	}
	if value, ok := tags[key]; ok {
		return strings.TrimSpace(value)
	}
	for k, value := range tags {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// parseClockDuration parses HOUR:MINUTE:SECOND durations such as the
// "00:47:32.523000000" values mkvmerge writes.
func parseClockDuration(value string) (float64, bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, false
	}
	total := hours*3600 + minutes*60 + seconds
	if total < 0 {
		return 0, false
	}
	return total, true
}
