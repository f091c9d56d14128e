package process

import "errors"

// Sentinel errors for processing failures.
var (
	// ErrNoAudio indicates the recording has no uploaded audio objects.
	ErrNoAudio = errors.New("recording has no audio")

	// ErrEmptyTranscript indicates transcription produced no text at all.
	ErrEmptyTranscript = errors.New("transcription produced no text")
)
