package summarize_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/RodimusGPT/wisekeep-sub001/internal/apierr"
	"github.com/RodimusGPT/wisekeep-sub001/internal/summarize"
)

// ----------------------------------------------------------------------------
// Mocks
// ----------------------------------------------------------------------------

type mockCompleter struct {
	calls     int
	requests  []openai.ChatCompletionRequest
	responses []mockResponse
}

type mockResponse struct {
	content string
	err     error
}

func (m *mockCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.requests = append(m.requests, req)
	i := m.calls
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	m.calls++
	r := m.responses[i]
	if r.err != nil {
		return openai.ChatCompletionResponse{}, r.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: r.content}},
		},
	}, nil
}

// ----------------------------------------------------------------------------
// Tests
// ----------------------------------------------------------------------------

func TestSummarize_Success(t *testing.T) {
	t.Parallel()

	mock := &mockCompleter{responses: []mockResponse{
		{content: "- decided on the venue\n- follow up with Ana\n"},
	}}

	s := summarize.New(mock)
	got, err := s.Summarize(context.Background(), "long meeting transcript", "")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	want := "- decided on the venue\n- follow up with Ana"
	if got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}
}

func TestSummarize_RequestShape(t *testing.T) {
	t.Parallel()

	mock := &mockCompleter{responses: []mockResponse{{content: "- ok"}}}
	s := summarize.New(mock, summarize.WithModel("gpt-4o"))

	if _, err := s.Summarize(context.Background(), "some notes", "pt"); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	req := mock.requests[0]
	if req.Model != "gpt-4o" {
		t.Errorf("Model = %q, want %q", req.Model, "gpt-4o")
	}
	if len(req.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(req.Messages))
	}
	if req.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Errorf("first message role = %q, want system", req.Messages[0].Role)
	}
	if !strings.Contains(req.Messages[0].Content, `"pt"`) {
		t.Errorf("system prompt should carry the language code, got %q", req.Messages[0].Content)
	}
	if req.Messages[1].Content != "some notes" {
		t.Errorf("user message = %q, want the notes", req.Messages[1].Content)
	}
	if req.Temperature != 0 {
		t.Errorf("Temperature = %v, want 0", req.Temperature)
	}
}

func TestSummarize_EmptyNotes(t *testing.T) {
	t.Parallel()

	mock := &mockCompleter{responses: []mockResponse{{content: "- ok"}}}
	s := summarize.New(mock)

	_, err := s.Summarize(context.Background(), "   \n\t", "")
	if !errors.Is(err, summarize.ErrEmptyNotes) {
		t.Fatalf("error = %v, want ErrEmptyNotes", err)
	}
	if mock.calls != 0 {
		t.Errorf("got %d calls, want 0", mock.calls)
	}
}

func TestSummarize_NotesTooLong(t *testing.T) {
	t.Parallel()

	mock := &mockCompleter{responses: []mockResponse{{content: "- ok"}}}
	s := summarize.New(mock, summarize.WithMaxInputChars(10))

	_, err := s.Summarize(context.Background(), strings.Repeat("a", 11), "")
	if !errors.Is(err, summarize.ErrNotesTooLong) {
		t.Fatalf("error = %v, want ErrNotesTooLong", err)
	}
	if mock.calls != 0 {
		t.Errorf("got %d calls, want 0", mock.calls)
	}
}

func TestSummarize_RetriesTransientErrors(t *testing.T) {
	t.Parallel()

	mock := &mockCompleter{responses: []mockResponse{
		{err: &openai.APIError{HTTPStatusCode: http.StatusServiceUnavailable, Message: "overloaded"}},
		{content: "- recovered"},
	}}

	s := summarize.New(mock,
		summarize.WithMaxRetries(2),
		summarize.WithRetryDelays(time.Millisecond, time.Millisecond))

	got, err := s.Summarize(context.Background(), "notes", "")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != "- recovered" {
		t.Errorf("summary = %q, want %q", got, "- recovered")
	}
	if mock.calls != 2 {
		t.Errorf("got %d calls, want 2", mock.calls)
	}
}

func TestSummarize_DoesNotRetryAuthFailure(t *testing.T) {
	t.Parallel()

	mock := &mockCompleter{responses: []mockResponse{
		{err: &openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "invalid api key"}},
	}}

	s := summarize.New(mock,
		summarize.WithMaxRetries(3),
		summarize.WithRetryDelays(time.Millisecond, time.Millisecond))

	_, err := s.Summarize(context.Background(), "notes", "")
	if !errors.Is(err, apierr.ErrAuthFailed) {
		t.Fatalf("error = %v, want ErrAuthFailed", err)
	}
	if mock.calls != 1 {
		t.Errorf("got %d calls, want 1", mock.calls)
	}
}

func TestSummarize_EmptyResponse(t *testing.T) {
	t.Parallel()

	mock := &mockCompleter{responses: []mockResponse{{content: "   "}}}
	s := summarize.New(mock, summarize.WithMaxRetries(0))

	_, err := s.Summarize(context.Background(), "notes", "")
	if !errors.Is(err, summarize.ErrEmptyResponse) {
		t.Fatalf("error = %v, want ErrEmptyResponse", err)
	}
}

func TestPoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "dashed bullets",
			in:   "- ship the uploader\n- review quota limits",
			want: []string{"ship the uploader", "review quota limits"},
		},
		{
			name: "starred bullets and blank lines",
			in:   "* first\n\n* second\n",
			want: []string{"first", "second"},
		},
		{
			name: "unmarked lines pass through",
			in:   "plain sentence",
			want: []string{"plain sentence"},
		},
		{
			name: "empty input",
			in:   "   \n\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := summarize.Points(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Points(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("point %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
