package blob

import (
	"context"
	"fmt"

	"github.com/RodimusGPT/wisekeep-sub001/internal/chunk"
)

// ChunkRef is a successfully uploaded chunk: its index, remote URL, and the
// time window it covers in the source recording.
type ChunkRef struct {
	Index     int     `json:"index"`
	URL       string  `json:"url"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// UploadResult aggregates the per-chunk upload outcomes. The first chunk's
// URL is the recording's primary audio reference.
type UploadResult struct {
	Chunks        []ChunkRef
	NeedsChunking bool
}

// AudioURL returns the primary audio reference.
func (r UploadResult) AudioURL() string {
	if len(r.Chunks) == 0 {
		return ""
	}
	return r.Chunks[0].URL
}

// URLs returns the chunk URLs in index order.
func (r UploadResult) URLs() []string {
	urls := make([]string, len(r.Chunks))
	for i, c := range r.Chunks {
		urls[i] = c.URL
	}
	return urls
}

// ObjectPath builds the deterministic storage path for a chunk. A
// single-chunk recording gets {userID}/{recordingID}.{ext}; multi-chunk
// recordings suffix the index: {userID}/{recordingID}-chunk{index}.{ext}.
func ObjectPath(userID, recordingID string, index int, multiChunk bool, mimeType string) string {
	ext := chunk.Ext(mimeType)
	if !multiChunk {
		return fmt.Sprintf("%s/%s.%s", userID, recordingID, ext)
	}
	return fmt.Sprintf("%s/%s-chunk%d.%s", userID, recordingID, index, ext)
}

// Uploader pushes a recording's chunks to blob storage.
type Uploader struct {
	storage Storage
}

// NewUploader creates an Uploader backed by the given storage.
func NewUploader(storage Storage) *Uploader {
	return &Uploader{storage: storage}
}

// UploadAll uploads chunks strictly sequentially in index order: chunk N+1
// does not begin until chunk N's upload settles, so the resulting URL list
// is in index order and partial progress is a clean prefix. On any failure
// the remaining chunks are not attempted and the error is returned;
// already-uploaded objects are NOT deleted. Orphaned blobs from a
// mid-sequence failure are documented behavior, not a bug to fix here.
func (u *Uploader) UploadAll(ctx context.Context, userID, recordingID string, chunks []chunk.AudioChunk) (UploadResult, error) {
	if len(chunks) == 0 {
		return UploadResult{}, chunk.ErrEmptyPayload
	}

	multiChunk := len(chunks) > 1
	result := UploadResult{
		Chunks:        make([]ChunkRef, 0, len(chunks)),
		NeedsChunking: multiChunk,
	}

	for _, c := range chunks {
		path := ObjectPath(userID, recordingID, c.Index, multiChunk, c.MIMEType)
		url, err := u.storage.Put(ctx, path, c.MIMEType, c.Data)
		if err != nil {
			return UploadResult{}, fmt.Errorf("chunk %d of %d: %w", c.Index, len(chunks), err)
		}
		result.Chunks = append(result.Chunks, ChunkRef{
			Index:     c.Index,
			URL:       url,
			StartTime: c.StartTime,
			EndTime:   c.EndTime,
		})
	}

	return result, nil
}

// DeleteAll removes a recording's objects from storage, continuing past
// individual failures and returning the first error encountered.
func (u *Uploader) DeleteAll(ctx context.Context, userID, recordingID string, chunkCount int, mimeType string) error {
	multiChunk := chunkCount > 1
	var firstErr error
	for i := 0; i < max(chunkCount, 1); i++ {
		path := ObjectPath(userID, recordingID, i, multiChunk, mimeType)
		if err := u.storage.Delete(ctx, path); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
