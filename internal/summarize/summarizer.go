// Package summarize condenses a recording's notes into a short bullet
// summary through OpenAI's chat completion API.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/RodimusGPT/wisekeep-sub001/internal/apierr"
)

// Default configuration values.
const (
	defaultModel           = openai.GPT4oMini
	defaultMaxInputChars   = 300000
	defaultMaxOutputTokens = 1024

	// Fewer retries than the transcriber since completions take longer.
	defaultMaxRetries = 3
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// summaryPrompt asks for a compact, scannable summary. One bullet per
// line keeps the output easy to render in the show/export commands.
const summaryPrompt = `Summarize the following voice memo transcript as 3-7 short bullet points.
Each bullet on its own line, starting with "- ".
Capture decisions, action items, and key facts. Do not add commentary.`

// Summarizer produces a summary from transcript text.
type Summarizer interface {
	// Summarize condenses notes into bullet points. language is an ISO
	// 639-1 code steering the output language; empty matches the input.
	Summarize(ctx context.Context, notes, language string) (string, error)
}

// chatCompleter is the slice of the OpenAI client we use.
// *openai.Client implements this implicitly; tests inject mocks.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Summarizer    = (*OpenAISummarizer)(nil)
	_ chatCompleter = (*openai.Client)(nil)
)

// OpenAISummarizer summarizes notes using OpenAI's chat completion API,
// retrying transient errors with exponential backoff.
type OpenAISummarizer struct {
	client        chatCompleter
	model         string
	maxInputChars int
	maxRetries    int
	baseDelay     time.Duration
	maxDelay      time.Duration
}

// Option configures an OpenAISummarizer.
type Option func(*OpenAISummarizer)

// WithModel sets the completion model.
func WithModel(model string) Option {
	return func(s *OpenAISummarizer) {
		if model != "" {
			s.model = model
		}
	}
}

// WithMaxInputChars sets the input size limit.
func WithMaxInputChars(n int) Option {
	return func(s *OpenAISummarizer) {
		if n > 0 {
			s.maxInputChars = n
		}
	}
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) Option {
	return func(s *OpenAISummarizer) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) Option {
	return func(s *OpenAISummarizer) {
		if base > 0 {
			s.baseDelay = base
		}
		if max > 0 {
			s.maxDelay = max
		}
	}
}

// New creates an OpenAISummarizer. The client is injected to enable
// testing with mocks.
func New(client chatCompleter, opts ...Option) *OpenAISummarizer {
	s := &OpenAISummarizer{
		client:        client,
		model:         defaultModel,
		maxInputChars: defaultMaxInputChars,
		maxRetries:    defaultMaxRetries,
		baseDelay:     defaultBaseDelay,
		maxDelay:      defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize condenses notes into bullet points.
// Returns ErrEmptyNotes when there is nothing to summarize and
// ErrNotesTooLong when the input exceeds the configured limit.
func (s *OpenAISummarizer) Summarize(ctx context.Context, notes, language string) (string, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return "", ErrEmptyNotes
	}
	if len(notes) > s.maxInputChars {
		return "", fmt.Errorf("notes too long (%dK chars, max %dK): %w",
			len(notes)/1000, s.maxInputChars/1000, ErrNotesTooLong)
	}

	prompt := summaryPrompt
	if language != "" {
		prompt = fmt.Sprintf("Respond in the language with ISO 639-1 code %q.\n\n%s", language, prompt)
	}

	req := openai.ChatCompletionRequest{
		Model:     s.model,
		MaxTokens: defaultMaxOutputTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: notes},
		},
		Temperature: 0,
	}

	cfg := apierr.RetryConfig{MaxRetries: s.maxRetries, BaseDelay: s.baseDelay, MaxDelay: s.maxDelay}

	return apierr.RetryWithBackoff(ctx, cfg, func() (string, error) {
		resp, err := s.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", classifyError(err)
		}
		if len(resp.Choices) == 0 {
			return "", ErrEmptyResponse
		}
		summary := strings.TrimSpace(resp.Choices[0].Message.Content)
		if summary == "" {
			return "", ErrEmptyResponse
		}
		return summary, nil
	}, apierr.IsRetryable)
}

// Points splits a bullet summary into individual points, one per
// non-blank line, with the "- " markers stripped. This is the shape
// stored on the recording row; renderers add their own markers back.
func Points(summary string) []string {
	var points []string
	for _, line := range strings.Split(summary, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		if line == "" {
			continue
		}
		points = append(points, line)
	}
	return points
}

// classifyError maps OpenAI API errors to apierr sentinels.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
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
