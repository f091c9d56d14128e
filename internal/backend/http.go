package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/RodimusGPT/wisekeep-sub001/internal/apierr"
	"github.com/RodimusGPT/wisekeep-sub001/internal/memo"
	"github.com/RodimusGPT/wisekeep-sub001/internal/usage"
)

// httpDoer abstracts the HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Compile-time interface compliance check.
var _ Client = (*HTTPClient)(nil)

// Default HTTP and retry configuration for backend calls.
const (
	defaultHTTPTimeout = 30 * time.Second
	defaultMaxRetries  = 2
	defaultBaseDelay   = 500 * time.Millisecond
	defaultMaxDelay    = 5 * time.Second
)

// HTTPClient talks to the recordings service over its JSON HTTP API.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient httpDoer
	warn       WarnFunc
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(c httpDoer) ClientOption {
	return func(h *HTTPClient) {
		h.httpClient = c
	}
}

// WithWarnFunc sets a callback for dropped-field warnings during row
// decoding. By default warnings are discarded.
func WithWarnFunc(fn WarnFunc) ClientOption {
	return func(h *HTTPClient) {
		h.warn = fn
	}
}

// WithRetries sets the retry budget and backoff delays for transient
// failures.
func WithRetries(maxRetries int, base, max time.Duration) ClientOption {
	return func(h *HTTPClient) {
		if maxRetries >= 0 {
			h.maxRetries = maxRetries
		}
		if base > 0 {
			h.baseDelay = base
		}
		if max > 0 {
			h.maxDelay = max
		}
	}
}

// NewHTTPClient creates a backend client for the given base URL.
func NewHTTPClient(baseURL, apiKey string, opts ...ClientOption) *HTTPClient {
	h := &HTTPClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.httpClient == nil {
		h.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return h
}

// CreateRecording inserts a new recording row.
func (h *HTTPClient) CreateRecording(ctx context.Context, rec memo.Recording) error {
	_, err := h.do(ctx, http.MethodPost, "/recordings", rec)
	return err
}

// FetchRecording returns the authoritative row for a recording.
func (h *HTTPClient) FetchRecording(ctx context.Context, id string) (memo.Recording, error) {
	body, err := h.do(ctx, http.MethodGet, "/recordings/"+url.PathEscape(id), nil)
	if err != nil {
		return memo.Recording{}, err
	}
	return decodeRow(body, h.warn)
}

// UpdateRecording merges a partial update into the row.
func (h *HTTPClient) UpdateRecording(ctx context.Context, id string, u memo.Update) error {
	_, err := h.do(ctx, http.MethodPatch, "/recordings/"+url.PathEscape(id), updatePayload(u))
	return err
}

// DeleteRecording removes the row. A missing row is treated as deleted.
func (h *HTTPClient) DeleteRecording(ctx context.Context, id string) error {
	_, err := h.do(ctx, http.MethodDelete, "/recordings/"+url.PathEscape(id), nil)
	if errors.Is(err, apierr.ErrNotFound) {
		return nil
	}
	return err
}

// triggerResponse is the processing trigger's reply.
type triggerResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// TriggerProcessing requests transcription/summarization. Fire-and-forget:
// a success reply only means the job was accepted.
func (h *HTTPClient) TriggerProcessing(ctx context.Context, req ProcessRequest) error {
	body, err := h.do(ctx, http.MethodPost, "/process", req)
	if err != nil {
		return err
	}
	var resp triggerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	if !resp.Success {
		if resp.Error != "" {
			return fmt.Errorf("%w: %s", ErrProcessingRejected, resp.Error)
		}
		return ErrProcessingRejected
	}
	return nil
}

// FetchUsage returns the user's quota snapshot.
func (h *HTTPClient) FetchUsage(ctx context.Context, userID string) (usage.Info, error) {
	body, err := h.do(ctx, http.MethodGet, "/usage?user_id="+url.QueryEscape(userID), nil)
	if err != nil {
		return usage.Info{}, err
	}
	var info usage.Info
	if err := json.Unmarshal(body, &info); err != nil {
		return usage.Info{}, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	return info, nil
}

// ListPending returns recordings awaiting processing. Rows failing schema
// validation are skipped with a warning rather than failing the listing.
func (h *HTTPClient) ListPending(ctx context.Context) ([]memo.Recording, error) {
	body, err := h.do(ctx, http.MethodGet, "/recordings?status=recorded", nil)
	if err != nil {
		return nil, err
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	recs := make([]memo.Recording, 0, len(rows))
	for _, raw := range rows {
		rec, err := decodeRow(raw, h.warn)
		if err != nil {
			warnf(h.warn, "skipping pending row: %v", err)
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// do executes one JSON request with retry on transient failures, returning
// the response body.
func (h *HTTPClient) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var encoded []byte
	if payload != nil {
		var err error
		encoded, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	cfg := apierr.RetryConfig{MaxRetries: h.maxRetries, BaseDelay: h.baseDelay, MaxDelay: h.maxDelay}

	return apierr.RetryWithBackoff(ctx, cfg, func() ([]byte, error) {
		var body io.Reader
		if encoded != nil {
			body = bytes.NewReader(encoded)
		}
		req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, body)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		if encoded != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Authorization", "Bearer "+h.apiKey)

		resp, err := h.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %v: %w", method, path, err, apierr.ErrUnavailable)
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			msg := fmt.Sprintf("%s %s: HTTP %d", method, path, resp.StatusCode)
			if excerpt := strings.TrimSpace(string(respBody)); excerpt != "" && len(excerpt) <= 256 {
				msg += ": " + excerpt
			}
			return nil, apierr.ClassifyStatus(resp.StatusCode, msg)
		}
		return respBody, nil
	}, apierr.IsRetryable)
}
