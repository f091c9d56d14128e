package memo

import "fmt"

// Status is the lifecycle stage of a Recording. It is a closed string
// enumeration; the backend stores the same strings in its recordings rows.
type Status string

// Lifecycle statuses, in forward order. Error is reachable from any
// non-terminal status; Ready and Error are terminal.
const (
	StatusRecording         Status = "recording"
	StatusUploading         Status = "uploading"
	StatusRecorded          Status = "recorded"
	StatusProcessingNotes   Status = "processing_notes"
	StatusNotesReady        Status = "notes_ready"
	StatusProcessingSummary Status = "processing_summary"
	StatusReady             Status = "ready"
	StatusError             Status = "error"
)

// rank orders statuses along the forward progression. Error has no rank;
// it is an escape hatch, not a stage.
var rank = map[Status]int{
	StatusRecording:         0,
	StatusUploading:         1,
	StatusRecorded:          2,
	StatusProcessingNotes:   3,
	StatusNotesReady:        4,
	StatusProcessingSummary: 5,
	StatusReady:             6,
}

// ParseStatus validates a status string coming from the backend.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// Valid reports whether the status is one of the known enumeration values.
func (s Status) Valid() bool {
	if s == StatusError {
		return true
	}
	_, ok := rank[s]
	return ok
}

// Terminal reports whether the status ends the processing lifecycle.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusError
}

// CanTransition reports whether moving from s to next is a legal lifecycle
// transition. Progression is strictly forward; no transition may skip
// backward. The two exceptions are the error escape hatch (any non-terminal
// status may fail) and the explicit user retry, which resets error back to
// recorded.
func (s Status) CanTransition(next Status) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == next {
		return false
	}
	if next == StatusError {
		return !s.Terminal()
	}
	if s == StatusError {
		// User retry only.
		return next == StatusRecorded
	}
	return rank[next] > rank[s]
}
