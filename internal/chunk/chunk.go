// Package chunk plans and performs the splitting of an audio payload into
// upload-sized segments. The transcription API rejects uploads over 25MB;
// we slice at 20MB for safety margin. Slicing is by byte offset, not audio
// frame boundary: a cut may land mid-frame for compressed containers, and
// decoding across that cut is delegated to the transcription service.
package chunk

import (
	"fmt"
	"math"
	"strings"
)

// MaxChunkBytes is the byte ceiling per chunk. The transcription API limit
// is 25MB; 20MB leaves margin for container overhead.
const MaxChunkBytes = 20 * 1024 * 1024

// Accepted container types for chunk uploads. The transcription API accepts
// a small fixed set; anything else is normalized to a fallback.
const (
	MIMEMP4  = "audio/mp4"
	MIMEWebM = "audio/webm"
	MIMEWAV  = "audio/wav"
	MIMEMPEG = "audio/mpeg"
)

// Plan is the chunking decision for a payload: whether splitting is needed
// and the estimated uniform segment layout. It is an estimate only; Split
// computes the true byte boundaries.
type Plan struct {
	ChunkCount           int
	NeedsChunking        bool
	ChunkDurationSeconds float64
}

// AudioChunk is one contiguous byte-range slice of a recording's payload,
// tagged with its estimated time window. Chunks are transient: created
// immediately before upload and discarded once a remote URL exists.
type AudioChunk struct {
	Index     int
	Data      []byte
	StartTime float64 // seconds
	EndTime   float64 // seconds
	IsLast    bool
	MIMEType  string
}

// PlanFor decides whether a payload needs chunking and estimates the
// segment layout. Pure; no side effects.
func PlanFor(sizeBytes int64, durationSeconds float64) Plan {
	if sizeBytes <= MaxChunkBytes {
		return Plan{ChunkCount: 1, NeedsChunking: false, ChunkDurationSeconds: durationSeconds}
	}
	count := int(math.Ceil(float64(sizeBytes) / float64(MaxChunkBytes)))
	return Plan{
		ChunkCount:           count,
		NeedsChunking:        true,
		ChunkDurationSeconds: durationSeconds / float64(count),
	}
}

// Split slices the payload into ordered chunks of at most MaxChunkBytes.
// Time windows are running cumulative sums derived from the payload's
// average byte rate, so consecutive chunks are exactly contiguous:
// chunk[i].EndTime == chunk[i+1].StartTime, chunk[0].StartTime == 0, and
// the final EndTime equals durationSeconds.
//
// A payload at or under the ceiling yields exactly one whole-payload chunk.
// An empty payload is an error; no chunk is ever zero bytes.
func Split(payload []byte, durationSeconds float64, mimeType string) ([]AudioChunk, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}
	if durationSeconds < 0 {
		return nil, fmt.Errorf("negative duration %f", durationSeconds)
	}

	normalized := NormalizeMIME(mimeType)
	total := int64(len(payload))
	plan := PlanFor(total, durationSeconds)

	if !plan.NeedsChunking {
		return []AudioChunk{{
			Index:     0,
			Data:      payload,
			StartTime: 0,
			EndTime:   durationSeconds,
			IsLast:    true,
			MIMEType:  normalized,
		}}, nil
	}

	bytesPerSecond := float64(total) / durationSeconds

	chunks := make([]AudioChunk, 0, plan.ChunkCount)
	var offset int64
	start := 0.0
	for offset < total {
		end := min(offset+MaxChunkBytes, total)
		size := end - offset
		last := end == total

		// The final boundary is pinned to the exact duration so float
		// accumulation cannot leave a gap at the end.
		chunkEnd := start + float64(size)/bytesPerSecond
		if last {
			chunkEnd = durationSeconds
		}

		chunks = append(chunks, AudioChunk{
			Index:     len(chunks),
			Data:      payload[offset:end],
			StartTime: start,
			EndTime:   chunkEnd,
			IsLast:    last,
			MIMEType:  normalized,
		})

		offset = end
		start = chunkEnd
	}

	if len(chunks) != plan.ChunkCount {
		return nil, fmt.Errorf("%w: produced %d chunks, planned %d",
			ErrChunkCountMismatch, len(chunks), plan.ChunkCount)
	}

	return chunks, nil
}

// NormalizeMIME maps a reported content type into the accepted set,
// defaulting to audio/mp4 (the recorder's native container) when the type
// is unrecognized. Codec parameters ("audio/webm;codecs=opus") are ignored.
func NormalizeMIME(mimeType string) string {
	base := strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(base, ";"); idx != -1 {
		base = strings.TrimSpace(base[:idx])
	}

	switch base {
	case MIMEMP4, "audio/m4a", "audio/x-m4a", "audio/aac":
		return MIMEMP4
	case MIMEWebM, "video/webm", "audio/ogg":
		return MIMEWebM
	case MIMEWAV, "audio/x-wav", "audio/wave":
		return MIMEWAV
	case MIMEMPEG, "audio/mp3":
		return MIMEMPEG
	default:
		return MIMEMP4
	}
}

// Ext returns the blob object extension for a normalized MIME type.
func Ext(mimeType string) string {
	switch NormalizeMIME(mimeType) {
	case MIMEWebM:
		return "webm"
	case MIMEWAV:
		return "wav"
	case MIMEMPEG:
		return "mp3"
	default:
		return "m4a"
	}
}
