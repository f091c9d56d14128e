// Package memo defines the Recording domain model: the central entity of
// the voice-memo pipeline, its lifecycle status machine, and the
// partial-update merge applied by every mutation path.
package memo

import (
	"fmt"
	"time"
)

// NoteLine is one utterance of a recording's transcript. Lines within a
// recording are ordered ascending by Timestamp.
type NoteLine struct {
	ID        int     `json:"id"`
	Timestamp float64 `json:"timestamp"` // seconds from recording start
	Text      string  `json:"text"`
	Speaker   string  `json:"speaker,omitempty"`
}

// Recording is the central entity: one captured voice memo and everything
// derived from it. The local store holds an optimistic copy; once uploaded,
// the backend row is authoritative and poll results overwrite local fields.
type Recording struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Duration  float64   `json:"duration"` // seconds
	AudioURL  string    `json:"audio_url"`
	ChunkURLs []string  `json:"chunk_urls,omitempty"`
	// ChunkStartTimes holds each chunk's window start in seconds,
	// parallel to ChunkURLs. The splitter's windows are byte-share
	// proportional, so they cannot be rederived from count alone.
	ChunkStartTimes []float64  `json:"chunk_start_times,omitempty"`
	Status          Status     `json:"status"`
	Notes           []NoteLine `json:"notes,omitempty"`
	Summary         []string   `json:"summary,omitempty"`
	Label           string     `json:"label,omitempty"`
	Language        string     `json:"language,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
}

// Validate checks the recording's structural invariants: a known status,
// non-negative duration, and note timestamps that never decrease.
func (r *Recording) Validate() error {
	if !r.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, r.Status)
	}
	if r.Duration < 0 {
		return fmt.Errorf("negative duration %f", r.Duration)
	}
	for i := 1; i < len(r.Notes); i++ {
		if r.Notes[i].Timestamp < r.Notes[i-1].Timestamp {
			return fmt.Errorf("notes out of order at index %d (%.3f < %.3f)",
				i, r.Notes[i].Timestamp, r.Notes[i-1].Timestamp)
		}
	}
	return nil
}

// Update is a partial update to a Recording. Nil fields are left untouched
// by Apply; non-nil fields overwrite. This is the single merge shape used
// by every mutation path (save, poller, retry), so concurrent writers never
// conflict below the field level.
type Update struct {
	Status          *Status
	AudioURL        *string
	ChunkURLs       *[]string
	ChunkStartTimes *[]float64
	Notes           *[]NoteLine
	Summary         *[]string
	Label           *string
	Language        *string
	ErrorMessage    *string
	Duration        *float64
}

// Apply merges the update into the recording. Last writer wins per field;
// there is no record-level compare-and-swap.
func (r *Recording) Apply(u Update) {
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.AudioURL != nil {
		r.AudioURL = *u.AudioURL
	}
	if u.ChunkURLs != nil {
		r.ChunkURLs = *u.ChunkURLs
	}
	if u.ChunkStartTimes != nil {
		r.ChunkStartTimes = *u.ChunkStartTimes
	}
	if u.Notes != nil {
		r.Notes = *u.Notes
	}
	if u.Summary != nil {
		r.Summary = *u.Summary
	}
	if u.Label != nil {
		r.Label = *u.Label
	}
	if u.Language != nil {
		r.Language = *u.Language
	}
	if u.ErrorMessage != nil {
		r.ErrorMessage = *u.ErrorMessage
	}
	if u.Duration != nil {
		r.Duration = *u.Duration
	}
}

// Transition moves the recording to next, enforcing the lifecycle rules.
// A transition to error records the given message verbatim.
func (r *Recording) Transition(next Status, errMsg string) error {
	if !r.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, next)
	}
	r.Status = next
	if next == StatusError {
		r.ErrorMessage = errMsg
	} else {
		r.ErrorMessage = ""
	}
	return nil
}

// StatusPtr is a convenience for building Updates.
func StatusPtr(s Status) *Status { return &s }

// StringPtr is a convenience for building Updates.
func StringPtr(s string) *string { return &s }
