package audioselect

import (
	"encoding/json"
	"testing"

	"reelprep/internal/media/ffprobe"
)

// testStream is a compact fixture for building probe JSON in tests.
type testStream struct {
	CodecType string            `json:"codec_type,omitempty"`
	Tags      map[string]string `json:"tags,omitempty"`
}

func audioStream(lang, sourceID, bytes string) testStream {
	tags := map[string]string{}
	if lang != "" {
		tags["language"] = lang
	}
	if sourceID != "" {
		tags["SOURCE_ID"] = sourceID
	}
	if bytes != "" {
		tags["NUMBER_OF_BYTES"] = bytes
	}
	return testStream{CodecType: "audio", Tags: tags}
}

func buildProbe(t *testing.T, streams ...testStream) *ffprobe.Probe {
	t.Helper()
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

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSelectKeepsLargestPerSourceGroup(t *testing.T) {
	probe := buildProbe(t,
		audioStream("eng", "A", "100"),
		audioStream("eng", "A", "50"),
		audioStream("eng", "A", "300"),
	)

	got := Select(probe, Options{})
	if !equalInts(got, []int{2}) {
		t.Fatalf("expected only the 300-byte stream, got %v", got)
	}
}

func TestSelectTieKeepsEarlierStream(t *testing.T) {
	probe := buildProbe(t,
		audioStream("eng", "A", "100"),
		audioStream("eng", "A", "100"),
	)

	got := Select(probe, Options{})
	if !equalInts(got, []int{0}) {
		t.Fatalf("expected the first of two equal-size duplicates, got %v", got)
	}
}

func TestSelectWithoutSourceIDNeverDeduplicates(t *testing.T) {
	probe := buildProbe(t,
		audioStream("eng", "", "900"),
		audioStream("eng", "", "900"),
		audioStream("eng", "", "1"),
	)

	got := Select(probe, Options{})
	if !equalInts(got, []int{0, 1, 2}) {
		t.Fatalf("expected every keyless stream kept, got %v", got)
	}
}

func TestSelectPreferredLanguagesExcludeOthers(t *testing.T) {
	probe := buildProbe(t,
		audioStream("eng", "", ""),
		audioStream("jpn", "", ""),
		audioStream("", "", ""), // untagged, never matches a preference
	)

	got := Select(probe, Options{Preferred: []string{"eng"}})
	if !equalInts(got, []int{0}) {
		t.Fatalf("expected only the eng stream, got %v", got)
	}
}

func TestSelectDefaultExclusionDropsNarration(t *testing.T) {
	probe := buildProbe(t,
		audioStream("nar", "", ""),
		audioStream("", "", ""), // untagged streams pass the exclusion filter
		audioStream("eng", "", ""),
	)

	got := Select(probe, Options{})
	if !equalInts(got, []int{1, 2}) {
		t.Fatalf("expected narration dropped and untagged kept, got %v", got)
	}
}

func TestSelectEmptyExclusionDisablesFilter(t *testing.T) {
	probe := buildProbe(t, audioStream("nar", "", ""))

	got := Select(probe, Options{Excluded: []string{}})
	if !equalInts(got, []int{0}) {
		t.Fatalf("expected narration kept with empty exclusion set, got %v", got)
	}
}

func TestSelectReplacementConfirmsAtWinningPosition(t *testing.T) {
	probe := buildProbe(t,
		audioStream("eng", "A", "100"),
		audioStream("eng", "", ""),
		audioStream("eng", "A", "200"), // displaces stream 0, confirmed here
	)

	got := Select(probe, Options{})
	if !equalInts(got, []int{1, 2}) {
		t.Fatalf("expected replacement ordered after the keyless stream, got %v", got)
	}
}

func TestSelectIgnoresNonAudioStreams(t *testing.T) {
	probe := buildProbe(t,
		testStream{CodecType: "video"},
		audioStream("eng", "", ""),
		testStream{CodecType: "subtitle"},
		testStream{}, // unknown type never matches
	)

	got := Select(probe, Options{})
	if !equalInts(got, []int{1}) {
		t.Fatalf("expected only the audio stream, got %v", got)
	}
}

func TestSelectNoCandidatesYieldsEmptySelection(t *testing.T) {
	probe := buildProbe(t, testStream{CodecType: "video"})

	if got := Select(probe, Options{}); len(got) != 0 {
		t.Fatalf("expected empty selection, got %v", got)
	}
}

func TestSelectIsDeterministic(t *testing.T) {
	probe := buildProbe(t,
		audioStream("eng", "A", "100"),
		audioStream("eng", "B", "50"),
		audioStream("eng", "A", "300"),
		audioStream("eng", "", ""),
	)

	first := Select(probe, Options{})
	for run := 0; run < 20; run++ {
		if got := Select(probe, Options{}); !equalInts(got, first) {
			t.Fatalf("selection changed between runs: %v vs %v", first, got)
		}
	}
}

func TestSelectLanguageComparisonIsCaseInsensitive(t *testing.T) {
	probe := buildProbe(t,
		audioStream("ENG", "", ""),
		audioStream("NAR", "", ""),
	)

	got := Select(probe, Options{Preferred: []string{"Eng"}})
	if !equalInts(got, []int{0}) {
		t.Fatalf("expected case-insensitive preference match, got %v", got)
	}

	got = Select(probe, Options{})
	if !equalInts(got, []int{0}) {
		t.Fatalf("expected case-insensitive exclusion match, got %v", got)
	}
}
