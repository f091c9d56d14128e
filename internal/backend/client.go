// Package backend is the client for the recordings service: the
// authoritative store of recording rows, the processing trigger, and the
// usage endpoint. Rows coming back are validated at this boundary;
// malformed optional fields are dropped with a warning instead of being
// propagated into local state.
package backend

import (
	"context"

	"github.com/RodimusGPT/wisekeep-sub001/internal/blob"
	"github.com/RodimusGPT/wisekeep-sub001/internal/memo"
	"github.com/RodimusGPT/wisekeep-sub001/internal/usage"
)

// ProcessRequest asks the backend to transcribe and summarize a recording.
// The call is fire-and-forget: the work happens asynchronously and is
// observed only by polling the recording's row.
type ProcessRequest struct {
	RecordingID     string          `json:"recording_id"`
	UserID          string          `json:"user_id"`
	Chunks          []blob.ChunkRef `json:"chunks"`
	Language        string          `json:"language,omitempty"`
	DurationSeconds float64         `json:"duration_seconds"`
}

// Client is the recordings-service API surface the pipeline depends on.
type Client interface {
	// CreateRecording inserts a new recording row.
	CreateRecording(ctx context.Context, rec memo.Recording) error

	// FetchRecording returns the authoritative row for a recording.
	FetchRecording(ctx context.Context, id string) (memo.Recording, error)

	// UpdateRecording merges a partial update into the row.
	UpdateRecording(ctx context.Context, id string, u memo.Update) error

	// DeleteRecording removes the row.
	DeleteRecording(ctx context.Context, id string) error

	// TriggerProcessing requests transcription/summarization of a recording.
	TriggerProcessing(ctx context.Context, req ProcessRequest) error

	// FetchUsage returns the user's quota snapshot.
	FetchUsage(ctx context.Context, userID string) (usage.Info, error)

	// ListPending returns recordings awaiting processing, oldest first.
	// Used by the worker loop.
	ListPending(ctx context.Context) ([]memo.Recording, error)
}
