package memo

import "errors"

// ErrUnknownStatus indicates a status string outside the closed enumeration.
var ErrUnknownStatus = errors.New("unknown recording status")

// ErrInvalidTransition indicates a lifecycle transition that would move
// backward or out of a terminal state without a user retry.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrNotFound indicates no recording exists with the given identifier.
var ErrNotFound = errors.New("recording not found")
