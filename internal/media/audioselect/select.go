package audioselect

import (
	"sort"
	"strings"

	"reelprep/internal/media/ffprobe"
)

// Options controls which audio streams survive selection.
type Options struct {
	// Preferred restricts the selection to streams whose language tag is a
	// member of the set. When nil, no preference filter applies and Excluded
	// governs instead. Streams without a language tag never match a
	// preference set.
	Preferred []string
	// Excluded drops streams whose language tag is a member of the set. Only
	// consulted when Preferred is nil. A nil slice means the default
	// exclusions; an explicitly empty slice disables exclusion entirely.
	Excluded []string
}

// DefaultExcluded returns the stock exclusion set. It contains the narration
// marker only; additional variants are a configuration decision, not a code
// change.
func DefaultExcluded() []string {
	return []string{"nar"}
}

// Select scans every stream in ascending index order and returns the audio
// stream indices to keep, in the order they were finally confirmed.
//
// Streams sharing a source identifier are duplicate encodings of one master
// track; at most one survives. The competitor with the strictly greater byte
// count wins, and an exact tie keeps the earlier stream — a stable preference
// for the first-declared track. A replacement loses the loser's original
// position and is confirmed at the point it won. Streams without a source
// identifier carry no grouping key and are always kept.
func Select(probe *ffprobe.Probe, opts Options) []int {
	preferred := normalizeSet(opts.Preferred)
	excluded := normalizeSet(opts.Excluded)
	if opts.Excluded == nil {
		excluded = normalizeSet(DefaultExcluded())
	}

	type pick struct {
		index int
		bytes int64
		seq   int
	}

	seq := 0
	holders := make(map[string]pick)
	var keyless []pick

	for i := 0; i < probe.StreamCount(); i++ {
		if probe.CodecType(i) != ffprobe.TypeAudio {
			continue
		}
		if !accept(probe, i, preferred, excluded, opts.Preferred != nil) {
			continue
		}

		id, hasID := probe.SourceID(i)
		if !hasID {
			keyless = append(keyless, pick{index: i, seq: seq})
			seq++
			continue
		}

		bytes := probe.ByteCount(i)
		current, held := holders[id]
		if held && bytes <= current.bytes {
			continue
		}
		holders[id] = pick{index: i, bytes: bytes, seq: seq}
		seq++
	}

	final := make([]pick, 0, len(keyless)+len(holders))
	final = append(final, keyless...)
	for _, p := range holders {
		final = append(final, p)
	}
	sort.Slice(final, func(a, b int) bool { return final[a].seq < final[b].seq })

	indices := make([]int, 0, len(final))
	for _, p := range final {
		indices = append(indices, p.index)
	}
	return indices
}

func accept(probe *ffprobe.Probe, i int, preferred, excluded map[string]struct{}, hasPreference bool) bool {
	lang, hasLang := probe.Language(i)
	if hasPreference {
		if !hasLang {
			return false
		}
		_, ok := preferred[lang]
		return ok
	}
	if !hasLang {
		return true
	}
	_, dropped := excluded[lang]
	return !dropped
}

func normalizeSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		set[value] = struct{}{}
	}
	return set
}
