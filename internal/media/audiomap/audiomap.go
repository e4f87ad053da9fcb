package audiomap

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"reelprep/internal/media/ffprobe"
)

// ErrTypeMismatch indicates a selected index does not refer to an audio
// stream. Selection must only ever hand audio indices to the builder, so this
// is a contract violation between the two, not a data problem.
var ErrTypeMismatch = errors.New("selected stream is not audio")

// Action is the per-track decision emitted for the external encoder.
type Action string

const (
	ActionCopy      Action = "copy"
	ActionTranscode Action = "transcode"
)

// Directive instructs the external encoder how to handle one output track.
type Directive struct {
	// InputIndex is the stream index within the probed container.
	InputIndex int
	// Track is the sequential output audio track position, starting at 0.
	// It is purely positional and independent of InputIndex.
	Track  int
	Action Action
	// Codec and Quality are set for transcode directives only.
	Codec   string
	Quality float64
}

// Tokens renders the directive as ffmpeg-style argument tokens. inputFile is
// the positional index of the input file in the assembled command line.
func (d Directive) Tokens(inputFile int) []string {
	tokens := []string{"-map", fmt.Sprintf("%d:%d", inputFile, d.InputIndex)}
	track := strconv.Itoa(d.Track)
	if d.Action == ActionTranscode {
		return append(tokens,
			"-c:a:"+track, d.Codec,
			"-q:a:"+track, strconv.FormatFloat(d.Quality, 'f', -1, 64),
		)
	}
	return append(tokens, "-c:a:"+track, "copy")
}

// Options configures the copy-vs-transcode policy.
type Options struct {
	// ReencodePatterns are anchored regular expressions matched against the
	// stream's codec name. Any match means the track is transcoded. A nil
	// slice means the default pattern set; an empty slice copies everything.
	ReencodePatterns []string
	TargetCodec      string
	Quality          float64
}

// DefaultReencodePatterns returns the stock classification policy: lossless
// and uncompressed codec families are transcoded, everything else is copied
// untouched. Patterns rather than exact names, because a single family (PCM
// especially) has many named sub-variants.
func DefaultReencodePatterns() []string {
	return []string{"pcm.*", "dts", "truehd", "mlp", "flac", "alac"}
}

const (
	defaultTargetCodec = "libvorbis"
	defaultQuality     = 5
)

// Build emits one map-and-encode directive per selected stream, in the given
// order. The output track position is the position within selectedIndices.
func Build(probe *ffprobe.Probe, selectedIndices []int, opts Options) ([]Directive, error) {
	patterns := opts.ReencodePatterns
	if patterns == nil {
		patterns = DefaultReencodePatterns()
	}
	matchers, err := compilePatterns(patterns)
	if err != nil {
		return nil, err
	}

	codec := opts.TargetCodec
	if codec == "" {
		codec = defaultTargetCodec
	}
	quality := opts.Quality
	if quality == 0 {
		quality = defaultQuality
	}

	directives := make([]Directive, 0, len(selectedIndices))
	for track, index := range selectedIndices {
		if got := probe.CodecType(index); got != ffprobe.TypeAudio {
			return nil, fmt.Errorf("%w: stream %d is %s", ErrTypeMismatch, index, got)
		}
		directive := Directive{
			InputIndex: index,
			Track:      track,
			Action:     ActionCopy,
		}
		if matchesAny(matchers, probe.CodecName(index)) {
			directive.Action = ActionTranscode
			directive.Codec = codec
			directive.Quality = quality
		}
		directives = append(directives, directive)
	}
	return directives, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	matchers := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			return nil, fmt.Errorf("reencode pattern %q: %w", pattern, err)
		}
		matchers = append(matchers, re)
	}
	return matchers, nil
}

func matchesAny(matchers []*regexp.Regexp, codecName string) bool {
	if codecName == "" {
		// Absent codec names never match a re-encode pattern.
		return false
	}
	for _, re := range matchers {
		if re.MatchString(codecName) {
			return true
		}
	}
	return false
}
