package backend

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/RodimusGPT/wisekeep-sub001/internal/memo"
)

// WarnFunc receives notices about malformed optional fields dropped during
// row decoding. Nil suppresses warnings.
type WarnFunc func(msg string)

// rawRow is the wire shape of a recordings row. Optional fields are kept
// raw so a malformed value can be dropped without rejecting the row.
type rawRow struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Duration        float64         `json:"duration"`
	AudioURL        string          `json:"audio_url"`
	ChunkURLs       json.RawMessage `json:"chunk_urls"`
	ChunkStartTimes json.RawMessage `json:"chunk_start_times"`
	Status          string          `json:"status"`
	Notes           json.RawMessage `json:"notes"`
	Summary         json.RawMessage `json:"summary"`
	Label           string          `json:"label"`
	Language        string          `json:"language"`
	ErrorMessage    string          `json:"error_message"`
	CreatedAt       time.Time       `json:"created_at"`
}

// decodeRow validates a row against the Recording schema. Required fields
// (id, a known status) reject the whole row; malformed optional fields
// (notes, summary, chunk_urls) are dropped with a warning.
func decodeRow(data []byte, warn WarnFunc) (memo.Recording, error) {
	var row rawRow
	if err := json.Unmarshal(data, &row); err != nil {
		return memo.Recording{}, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}

	if row.ID == "" {
		return memo.Recording{}, fmt.Errorf("%w: missing id", ErrMalformedRow)
	}
	status, err := memo.ParseStatus(row.Status)
	if err != nil {
		return memo.Recording{}, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	if row.Duration < 0 {
		return memo.Recording{}, fmt.Errorf("%w: negative duration", ErrMalformedRow)
	}

	rec := memo.Recording{
		ID:           row.ID,
		UserID:       row.UserID,
		CreatedAt:    row.CreatedAt,
		Duration:     row.Duration,
		AudioURL:     row.AudioURL,
		Status:       status,
		Label:        row.Label,
		Language:     row.Language,
		ErrorMessage: row.ErrorMessage,
	}

	if len(row.Notes) > 0 {
		var notes []memo.NoteLine
		if err := json.Unmarshal(row.Notes, &notes); err != nil {
			warnf(warn, "recording %s: dropping malformed notes: %v", row.ID, err)
		} else {
			rec.Notes = notes
		}
	}
	if len(row.Summary) > 0 {
		var summary []string
		if err := json.Unmarshal(row.Summary, &summary); err != nil {
			warnf(warn, "recording %s: dropping malformed summary: %v", row.ID, err)
		} else {
			rec.Summary = summary
		}
	}
	if len(row.ChunkURLs) > 0 {
		var urls []string
		if err := json.Unmarshal(row.ChunkURLs, &urls); err != nil {
			warnf(warn, "recording %s: dropping malformed chunk_urls: %v", row.ID, err)
		} else {
			rec.ChunkURLs = urls
		}
	}
	if len(row.ChunkStartTimes) > 0 {
		var starts []float64
		if err := json.Unmarshal(row.ChunkStartTimes, &starts); err != nil {
			warnf(warn, "recording %s: dropping malformed chunk_start_times: %v", row.ID, err)
		} else {
			rec.ChunkStartTimes = starts
		}
	}

	return rec, nil
}

func warnf(warn WarnFunc, format string, args ...any) {
	if warn != nil {
		warn(fmt.Sprintf(format, args...))
	}
}

// updatePayload converts a memo.Update into the wire object sent to the
// row-update endpoint. Only set fields appear, matching the merge-a-partial
// semantics of the backend.
func updatePayload(u memo.Update) map[string]any {
	payload := make(map[string]any)
	if u.Status != nil {
		payload["status"] = string(*u.Status)
	}
	if u.AudioURL != nil {
		payload["audio_url"] = *u.AudioURL
	}
	if u.ChunkURLs != nil {
		payload["chunk_urls"] = *u.ChunkURLs
	}
	if u.ChunkStartTimes != nil {
		payload["chunk_start_times"] = *u.ChunkStartTimes
	}
	if u.Notes != nil {
		payload["notes"] = *u.Notes
	}
	if u.Summary != nil {
		payload["summary"] = *u.Summary
	}
	if u.Label != nil {
		payload["label"] = *u.Label
	}
	if u.Language != nil {
		payload["language"] = *u.Language
	}
	if u.ErrorMessage != nil {
		payload["error_message"] = *u.ErrorMessage
	}
	if u.Duration != nil {
		payload["duration"] = *u.Duration
	}
	return payload
}
