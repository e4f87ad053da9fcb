package audiomap

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"reelprep/internal/media/ffprobe"
)

func buildProbe(t *testing.T, codecNamesByType map[int][2]string) *ffprobe.Probe {
	t.Helper()
	max := -1
	for idx := range codecNamesByType {
		if idx > max {
			max = idx
		}
	}
	streams := make([]map[string]any, max+1)
	for i := range streams {
		streams[i] = map[string]any{}
	}
	for idx, pair := range codecNamesByType {
		streams[idx] = map[string]any{"codec_type": pair[0], "codec_name": pair[1]}
	}
	payload, err := json.Marshal(map[string]any{"streams": streams})
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	probe, err := ffprobe.FromJSON(payload)
	if err != nil {
		t.Fatalf("build probe: %v", err)
	}
	return probe
}

func TestBuildPreservesOrderAndPositions(t *testing.T) {
	probe := buildProbe(t, map[int][2]string{
		2: {"audio", "aac"},
		5: {"audio", "ac3"},
		9: {"audio", "opus"},
	})

	directives, err := Build(probe, []int{5, 2, 9}, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(directives) != 3 {
		t.Fatalf("expected 3 directives, got %d", len(directives))
	}
	wantInputs := []int{5, 2, 9}
	for i, d := range directives {
		if d.Track != i {
			t.Fatalf("directive %d has track %d", i, d.Track)
		}
		if d.InputIndex != wantInputs[i] {
			t.Fatalf("directive %d maps input %d, want %d", i, d.InputIndex, wantInputs[i])
		}
	}
}

func TestBuildClassifiesCodecs(t *testing.T) {
	probe := buildProbe(t, map[int][2]string{
		0: {"audio", "pcm_s16le"},
		1: {"audio", "opus"},
		2: {"audio", "dts"},
	})

	directives, err := Build(probe, []int{0, 1, 2}, Options{ReencodePatterns: []string{"pcm.*", "dts"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if directives[0].Action != ActionTranscode {
		t.Fatalf("pcm_s16le should transcode, got %v", directives[0].Action)
	}
	if directives[0].Codec != "libvorbis" || directives[0].Quality != 5 {
		t.Fatalf("unexpected transcode parameters: %+v", directives[0])
	}
	if directives[1].Action != ActionCopy {
		t.Fatalf("opus should copy, got %v", directives[1].Action)
	}
	if directives[2].Action != ActionTranscode {
		t.Fatalf("dts should transcode, got %v", directives[2].Action)
	}
}

func TestBuildPatternsAreAnchored(t *testing.T) {
	probe := buildProbe(t, map[int][2]string{0: {"audio", "eac3"}})

	// "ac3" must not match inside "eac3".
	directives, err := Build(probe, []int{0}, Options{ReencodePatterns: []string{"ac3"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if directives[0].Action != ActionCopy {
		t.Fatalf("expected anchored pattern to miss eac3, got %v", directives[0].Action)
	}
}

func TestBuildRejectsNonAudioIndex(t *testing.T) {
	probe := buildProbe(t, map[int][2]string{
		0: {"video", "h264"},
		1: {"audio", "aac"},
	})

	_, err := Build(probe, []int{1, 0}, Options{})
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestBuildRejectsInvalidPattern(t *testing.T) {
	probe := buildProbe(t, map[int][2]string{0: {"audio", "aac"}})

	_, err := Build(probe, []int{0}, Options{ReencodePatterns: []string{"("}})
	if err == nil || !strings.Contains(err.Error(), "reencode pattern") {
		t.Fatalf("expected pattern compile error, got %v", err)
	}
}

func TestBuildEmptySelection(t *testing.T) {
	probe := buildProbe(t, map[int][2]string{0: {"audio", "aac"}})

	directives, err := Build(probe, nil, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(directives) != 0 {
		t.Fatalf("expected no directives, got %v", directives)
	}
}

func TestDirectiveTokens(t *testing.T) {
	copyDirective := Directive{InputIndex: 5, Track: 0, Action: ActionCopy}
	got := strings.Join(copyDirective.Tokens(0), " ")
	if got != "-map 0:5 -c:a:0 copy" {
		t.Fatalf("unexpected copy tokens: %q", got)
	}

	transcode := Directive{InputIndex: 2, Track: 1, Action: ActionTranscode, Codec: "libvorbis", Quality: 5}
	got = strings.Join(transcode.Tokens(0), " ")
	if got != "-map 0:2 -c:a:1 libvorbis -q:a:1 5" {
		t.Fatalf("unexpected transcode tokens: %q", got)
	}
}
