package summarize

import "errors"

// Sentinel errors for summarization failures.
var (
	// ErrEmptyNotes indicates there was no text to summarize.
	ErrEmptyNotes = errors.New("no notes to summarize")

	// ErrNotesTooLong indicates the input exceeds the configured limit.
	ErrNotesTooLong = errors.New("notes exceed input limit")

	// ErrEmptyResponse indicates the API returned no usable content.
	ErrEmptyResponse = errors.New("empty response from API")
)
