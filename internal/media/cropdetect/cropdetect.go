package cropdetect

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"reelprep/internal/media/ffprobe"
)

// ErrParse indicates the sampling report contained no crop marker line. The
// analyzer refuses to guess: callers must not encode with an unanalyzed crop.
var ErrParse = errors.New("crop marker line not found")

// markerPrefix anchors report parsing. ffmpeg's cropdetect filter logs one
// such line per analyzed frame, ending in "crop=W:H:X:Y".
const markerPrefix = "[Parsed_cropdetect"

// Defaults for the sampling pass.
const (
	// DefaultSkipFraction is the share of the duration skipped at each end of
	// the file, avoiding unstable credits and intro/outro frames.
	DefaultSkipFraction = 0.10
	// DefaultTrim is the per-edge pixel amount for trim operations.
	DefaultTrim = 8
	// sampleSeconds spaces analyzed frames two seconds apart.
	sampleSeconds = 2
	// logoMask sizes the opaque rectangle drawn over the top-left corner
	// before detection, neutralizing station logos: width/6 by height/5.7.
	logoMask = "drawbox=x=0:y=0:w=iw/6:h=ih/5.7:color=black:t=fill"
)

// Executor runs the external sampling process and returns its diagnostic
// output. Implemented by commandExecutor; tests substitute stubs.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (string, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	// cropdetect logs to stderr; the encode target is the null muxer.
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("crop sampling: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// Option configures the analyzer.
type Option func(*Analyzer)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(executor Executor) Option {
	return func(a *Analyzer) {
		if executor != nil {
			a.exec = executor
		}
	}
}

// WithSkipFraction overrides the fraction of the duration skipped at each end.
func WithSkipFraction(fraction float64) Option {
	return func(a *Analyzer) {
		if fraction > 0 && fraction < 0.5 {
			a.skipFraction = fraction
		}
	}
}

// Analyzer runs a sampled crop-detection pass over a video file.
type Analyzer struct {
	binary       string
	skipFraction float64
	exec         Executor
}

// New constructs an analyzer using the given ffmpeg binary.
func New(binary string, opts ...Option) *Analyzer {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	analyzer := &Analyzer{
		binary:       binary,
		skipFraction: DefaultSkipFraction,
		exec:         commandExecutor{},
	}
	for _, opt := range opts {
		opt(analyzer)
	}
	return analyzer
}

// Detect samples the file and returns the detected crop rectangle.
//
// When the probe knows the video stream's duration D, only the middle
// [f·D, (1−f)·D] window is analyzed; otherwise the whole file is. Frames are
// sampled every two seconds with the logo corner masked before detection.
func (a *Analyzer) Detect(ctx context.Context, path string, probe *ffprobe.Probe) (*Geometry, error) {
	args := []string{"-hide_banner", "-nostats"}
	if start, window, ok := sampleWindow(probe, a.skipFraction); ok {
		args = append(args,
			"-ss", formatSeconds(start),
			"-t", formatSeconds(window),
		)
	}
	args = append(args,
		"-i", path,
		"-vf", fmt.Sprintf("fps=1/%d,%s,cropdetect", sampleSeconds, logoMask),
		"-f", "null", "-",
	)

	report, err := a.exec.Run(ctx, a.binary, args)
	if err != nil {
		return nil, err
	}
	return ParseReport(report)
}

func sampleWindow(probe *ffprobe.Probe, fraction float64) (start, window float64, ok bool) {
	if probe == nil {
		return 0, 0, false
	}
	video, found := probe.FirstVideoStream()
	if !found {
		return 0, 0, false
	}
	duration, known := probe.DurationSeconds(video)
	if !known || duration <= 0 {
		return 0, 0, false
	}
	start = duration * fraction
	window = duration * (1 - 2*fraction)
	if window <= 0 {
		return 0, 0, false
	}
	return start, window, true
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 2, 64)
}

// ParseReport extracts the crop rectangle from the sampler's diagnostic text.
// Only lines starting with the cropdetect marker are meaningful, and the last
// one wins: detection converges as more frames are sampled, so later lines
// reflect more evidence. Returns ErrParse when no marker line exists.
func ParseReport(report string) (*Geometry, error) {
	last := ""
	for _, line := range strings.Split(report, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), markerPrefix) {
			last = strings.TrimSpace(line)
		}
	}
	if last == "" {
		return nil, fmt.Errorf("%w: no %s line in report", ErrParse, markerPrefix)
	}

	eq := strings.LastIndexByte(last, '=')
	if eq < 0 || eq == len(last)-1 {
		return nil, fmt.Errorf("%w: marker line %q has no crop value", ErrParse, last)
	}
	fields := strings.Split(last[eq+1:], ":")
	if len(fields) != 4 {
		return nil, fmt.Errorf("%w: crop value %q is not W:H:X:Y", ErrParse, last[eq+1:])
	}

	values := make([]int, 4)
	for i, field := range fields {
		parsed, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("%w: crop component %q", ErrParse, field)
		}
		values[i] = parsed
	}
	return &Geometry{W: values[0], H: values[1], X: values[2], Y: values[3]}, nil
}
