// Package transcribe converts audio chunks to text through OpenAI's
// transcription API, with segment-level timestamps for note alignment.
package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/RodimusGPT/wisekeep-sub001/internal/apierr"
	"github.com/RodimusGPT/wisekeep-sub001/internal/chunk"
	"github.com/RodimusGPT/wisekeep-sub001/internal/lang"
	"github.com/RodimusGPT/wisekeep-sub001/internal/memo"
)

// Default transcription model and retry configuration.
const (
	defaultModel      = openai.Whisper1
	defaultMaxRetries = 5
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Result is one chunk's transcription: raw text plus segments with
// chunk-relative timestamps.
type Result struct {
	Text     string
	Segments []memo.NoteLine
}

// Transcriber transcribes a single audio chunk.
type Transcriber interface {
	// Transcribe converts a chunk's payload to text. language is an ISO
	// 639-1 code or empty for auto-detect. Segment timestamps are relative
	// to the chunk, not the source recording.
	Transcribe(ctx context.Context, c chunk.AudioChunk, language string) (Result, error)
}

// audioTranscriber is the slice of the OpenAI client we use.
// *openai.Client implements this implicitly; tests inject mocks.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Transcriber      = (*OpenAITranscriber)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// OpenAITranscriber transcribes chunks using OpenAI's transcription API,
// retrying transient errors with exponential backoff.
type OpenAITranscriber struct {
	client     audioTranscriber
	model      string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// Option configures an OpenAITranscriber.
type Option func(*OpenAITranscriber)

// WithModel sets the transcription model.
func WithModel(model string) Option {
	return func(t *OpenAITranscriber) {
		if model != "" {
			t.model = model
		}
	}
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) Option {
	return func(t *OpenAITranscriber) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) Option {
	return func(t *OpenAITranscriber) {
		if base > 0 {
			t.baseDelay = base
		}
		if max > 0 {
			t.maxDelay = max
		}
	}
}

// New creates an OpenAITranscriber. The client is injected to enable
// testing with mocks.
func New(client audioTranscriber, opts ...Option) *OpenAITranscriber {
	t := &OpenAITranscriber{
		client:     client,
		model:      defaultModel,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe sends the chunk payload for transcription, requesting
// verbose JSON so segment timestamps come back.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, c chunk.AudioChunk, language string) (Result, error) {
	if len(c.Data) == 0 {
		return Result{}, chunk.ErrEmptyPayload
	}

	req := openai.AudioRequest{
		Model:    t.model,
		FilePath: fmt.Sprintf("chunk_%03d.%s", c.Index, chunk.Ext(c.MIMEType)),
		Reader:   bytes.NewReader(c.Data),
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: lang.BaseCode(language),
	}

	cfg := apierr.RetryConfig{MaxRetries: t.maxRetries, BaseDelay: t.baseDelay, MaxDelay: t.maxDelay}

	return apierr.RetryWithBackoff(ctx, cfg, func() (Result, error) {
		resp, err := t.client.CreateTranscription(ctx, req)
		if err != nil {
			return Result{}, classifyError(err)
		}
		return toResult(resp), nil
	}, apierr.IsRetryable)
}

// toResult converts the API response into chunk-relative note lines.
// Segment IDs are provisional; the combiner renumbers them across chunks.
func toResult(resp openai.AudioResponse) Result {
	result := Result{Text: strings.TrimSpace(resp.Text)}
	for i, seg := range resp.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		result.Segments = append(result.Segments, memo.NoteLine{
			ID:        i + 1,
			Timestamp: seg.Start,
			Text:      text,
		})
	}
	return result
}

// classifyError maps OpenAI API errors to apierr sentinels.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			// A quota message means a billing problem, which retrying
			// cannot fix; plain rate limits are retryable.
			if strings.Contains(apiErr.Message, "quota") ||
				strings.Contains(apiErr.Message, "billing") {
				return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrQuotaExceeded)
			}
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrRateLimit)
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrAuthFailed)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrTimeout)
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrUnavailable)
		case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrBadRequest)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}

	return err
}
