package export

import "errors"

// Sentinel errors for export failures.
var (
	// ErrUnknownFormat indicates an unsupported export format.
	ErrUnknownFormat = errors.New("unknown export format")

	// ErrNoNotes indicates the recording has nothing to export.
	ErrNoNotes = errors.New("recording has no notes")
)
