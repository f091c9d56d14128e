// Package blob uploads audio chunks to remote blob storage and assembles
// the per-chunk URL set a recording's processing is driven from.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RodimusGPT/wisekeep-sub001/internal/apierr"
)

// Storage is remote blob storage: raw bytes in, a publicly resolvable URL
// out. Object paths follow the {userID}/{recordingID}[-chunk{index}].{ext}
// convention built by ObjectPath.
type Storage interface {
	Put(ctx context.Context, objectPath, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, objectPath string) error
}

// httpDoer abstracts the HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Compile-time interface compliance check.
var _ Storage = (*HTTPStorage)(nil)

// Default HTTP and retry configuration for storage calls.
const (
	defaultHTTPTimeout = 2 * time.Minute
	defaultMaxRetries  = 3
	defaultBaseDelay   = 500 * time.Millisecond
	defaultMaxDelay    = 10 * time.Second
)

// HTTPStorage talks to an object-storage HTTP endpoint: PUT uploads an
// object and DELETE removes it. Transient failures are retried with
// exponential backoff.
type HTTPStorage struct {
	baseURL    string
	publicURL  string
	apiKey     string
	httpClient httpDoer
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// StorageOption configures an HTTPStorage.
type StorageOption func(*HTTPStorage)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(c httpDoer) StorageOption {
	return func(s *HTTPStorage) {
		s.httpClient = c
	}
}

// WithPublicURL sets the base for the returned object URLs when it differs
// from the upload endpoint (CDN fronting the bucket).
func WithPublicURL(url string) StorageOption {
	return func(s *HTTPStorage) {
		s.publicURL = strings.TrimSuffix(url, "/")
	}
}

// WithRetries sets the retry budget and backoff delays.
func WithRetries(maxRetries int, base, max time.Duration) StorageOption {
	return func(s *HTTPStorage) {
		if maxRetries >= 0 {
			s.maxRetries = maxRetries
		}
		if base > 0 {
			s.baseDelay = base
		}
		if max > 0 {
			s.maxDelay = max
		}
	}
}

// NewHTTPStorage creates a storage client for the given endpoint.
func NewHTTPStorage(baseURL, apiKey string, opts ...StorageOption) *HTTPStorage {
	s := &HTTPStorage{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.publicURL == "" {
		s.publicURL = s.baseURL
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return s
}

// Put uploads an object and returns its public URL.
func (s *HTTPStorage) Put(ctx context.Context, objectPath, contentType string, data []byte) (string, error) {
	cfg := apierr.RetryConfig{MaxRetries: s.maxRetries, BaseDelay: s.baseDelay, MaxDelay: s.maxDelay}

	return apierr.RetryWithBackoff(ctx, cfg, func() (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut,
			s.baseURL+"/"+objectPath, bytes.NewReader(data))
		if err != nil {
			return "", fmt.Errorf("failed to build upload request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("upload %s: %w", objectPath, classifyTransport(err))
		}
		defer func() { _ = resp.Body.Close() }()

		if err := apierr.ClassifyStatus(resp.StatusCode, readErrorBody(resp.Body)); err != nil {
			return "", fmt.Errorf("upload %s: %w", objectPath, err)
		}
		return s.publicURL + "/" + objectPath, nil
	}, apierr.IsRetryable)
}

// Delete removes an object. A missing object is treated as already deleted.
func (s *HTTPStorage) Delete(ctx context.Context, objectPath string) error {
	cfg := apierr.RetryConfig{MaxRetries: s.maxRetries, BaseDelay: s.baseDelay, MaxDelay: s.maxDelay}

	_, err := apierr.RetryWithBackoff(ctx, cfg, func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
			s.baseURL+"/"+objectPath, nil)
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to build delete request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+s.apiKey)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return struct{}{}, fmt.Errorf("delete %s: %w", objectPath, classifyTransport(err))
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode == http.StatusNotFound {
			return struct{}{}, nil
		}
		if err := apierr.ClassifyStatus(resp.StatusCode, readErrorBody(resp.Body)); err != nil {
			return struct{}{}, fmt.Errorf("delete %s: %w", objectPath, err)
		}
		return struct{}{}, nil
	}, apierr.IsRetryable)
	return err
}

// classifyTransport maps transport-level failures (connection refused,
// timeouts) to retryable sentinels.
func classifyTransport(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%v: %w", err, apierr.ErrUnavailable)
}

// readErrorBody returns a short excerpt of an error response body for
// wrapping into the classified error.
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(body))
}
