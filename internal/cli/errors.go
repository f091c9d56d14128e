package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrAPIKeyMissing indicates WISEKEEP_API_KEY is not set.
	ErrAPIKeyMissing = errors.New("WISEKEEP_API_KEY environment variable not set")

	// ErrOpenAIKeyMissing indicates OPENAI_API_KEY is not set.
	ErrOpenAIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

	// ErrUserIDMissing indicates no user id is configured.
	ErrUserIDMissing = errors.New("user id not configured (set user-id or WISEKEEP_USER_ID)")

	// ErrBackendURLMissing indicates no backend URL is configured.
	ErrBackendURLMissing = errors.New("backend url not configured (set backend-url or WISEKEEP_BACKEND_URL)")

	// ErrStorageURLMissing indicates no blob storage URL is configured.
	ErrStorageURLMissing = errors.New("storage url not configured (set storage-url or WISEKEEP_STORAGE_URL)")

	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrUnsupportedFormat indicates an audio file has an unsupported extension.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrOutputExists indicates the output file already exists.
	ErrOutputExists = errors.New("output file already exists")

	// ErrNotFailed indicates retry was requested for a recording that is
	// not in the error status.
	ErrNotFailed = errors.New("recording is not in the error status")

	// ErrQuotaReached indicates the user's plan does not allow the recording.
	ErrQuotaReached = errors.New("plan limit reached")
)
