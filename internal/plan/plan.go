package plan

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"reelprep/internal/media/audiomap"
	"reelprep/internal/media/cropdetect"
	"reelprep/internal/media/ffprobe"
)

// AudioTrack summarizes one kept audio stream alongside its encode directive.
type AudioTrack struct {
	StreamIndex  int     `json:"stream_index"`
	Codec        string  `json:"codec"`
	Channels     int     `json:"channels,omitempty"`
	Language     string  `json:"language,omitempty"`
	LanguageName string  `json:"language_name,omitempty"`
	Action       string  `json:"action"`
	TargetCodec  string  `json:"target_codec,omitempty"`
	Quality      float64 `json:"quality,omitempty"`
}

// Plan is the complete transcoding plan for one container file.
type Plan struct {
	Path       string               `json:"path"`
	Audio      []AudioTrack         `json:"audio"`
	Directives []audiomap.Directive `json:"-"`
	Crop       *cropdetect.Geometry `json:"crop,omitempty"`
	CropFilter string               `json:"crop_filter,omitempty"`

	probe *ffprobe.Probe
}

// Probe exposes the underlying stream snapshot the plan was built from.
func (p *Plan) Probe() *ffprobe.Probe { return p.probe }

// EncoderArgs renders the plan as ffmpeg-style argument tokens for the
// external encoding process: one map+codec group per audio track, plus the
// crop video filter when one was detected.
func (p *Plan) EncoderArgs() []string {
	var args []string
	if p.Crop != nil {
		args = append(args, "-vf", p.Crop.FilterExpression())
	}
	for _, directive := range p.Directives {
		args = append(args, directive.Tokens(0)...)
	}
	return args
}

func newAudioTrack(probe *ffprobe.Probe, directive audiomap.Directive) AudioTrack {
	track := AudioTrack{
		StreamIndex: directive.InputIndex,
		Codec:       probe.CodecName(directive.InputIndex),
		Action:      string(directive.Action),
	}
	if channels, ok := probe.Channels(directive.InputIndex); ok {
		track.Channels = channels
	}
	if lang, ok := probe.Language(directive.InputIndex); ok {
		track.Language = lang
		track.LanguageName = languageName(lang)
	}
	if directive.Action == audiomap.ActionTranscode {
		track.TargetCodec = directive.Codec
		track.Quality = directive.Quality
	}
	return track
}

// languageName resolves a probed language code to a human-readable name, or
// returns the code unchanged when it is not a recognizable tag.
func languageName(code string) string {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" && !strings.EqualFold(name, code) {
		return name
	}
	return code
}
