package chunk

import "errors"

// ErrEmptyPayload indicates a recording with no audio bytes to upload.
var ErrEmptyPayload = errors.New("empty audio payload")

// ErrChunkCountMismatch indicates the splitter produced a different number
// of chunks than the plan estimated. This should never happen.
var ErrChunkCountMismatch = errors.New("chunk count mismatch")
