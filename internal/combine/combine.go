// Package combine stitches per-chunk transcription results back into one
// transcript with continuous timestamps. Parts must be supplied in chunk
// index order; offsets are each chunk's start time in the source recording,
// so shifted timestamps are monotonic by construction.
package combine

import (
	"strings"

	"github.com/RodimusGPT/wisekeep-sub001/internal/memo"
)

// Part is one chunk's transcription result: its raw text, its segments with
// chunk-relative timestamps, and the chunk's start offset in seconds.
type Part struct {
	Text     string
	Segments []memo.NoteLine
	Offset   float64
}

// Result is the reassembled transcript.
type Result struct {
	Text     string
	Segments []memo.NoteLine
}

// Combine flattens parts into a single transcript. Text fragments are
// space-joined, skipping empty ones. Each segment's timestamp is shifted by
// its part's offset; identifiers are reassigned sequentially from 1. No
// other segment field is altered. Combining a single part with offset 0 is
// an identity apart from renumbering.
func Combine(parts []Part) Result {
	var texts []string
	var segments []memo.NoteLine

	for _, p := range parts {
		if t := strings.TrimSpace(p.Text); t != "" {
			texts = append(texts, t)
		}
		for _, seg := range p.Segments {
			seg.ID = len(segments) + 1
			seg.Timestamp += p.Offset
			segments = append(segments, seg)
		}
	}

	return Result{
		Text:     strings.Join(texts, " "),
		Segments: segments,
	}
}
