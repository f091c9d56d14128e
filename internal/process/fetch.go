package process

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/RodimusGPT/wisekeep-sub001/internal/apierr"
	"github.com/RodimusGPT/wisekeep-sub001/internal/chunk"
)

// httpDoer abstracts the HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

var _ Fetcher = (*HTTPFetcher)(nil)

// HTTPFetcher downloads audio objects over plain GET, retrying
// transient failures.
type HTTPFetcher struct {
	client httpDoer
	retry  apierr.RetryConfig
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithFetchClient sets a custom HTTP client.
func WithFetchClient(client httpDoer) FetcherOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithFetchRetries sets the retry parameters.
func WithFetchRetries(maxRetries int, base, max time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.retry = apierr.RetryConfig{MaxRetries: maxRetries, BaseDelay: base, MaxDelay: max}
	}
}

// NewHTTPFetcher creates a fetcher with sane timeouts for audio payloads.
func NewHTTPFetcher(opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client: &http.Client{Timeout: 2 * time.Minute},
		retry:  apierr.RetryConfig{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads one object. The payload is held in memory; objects
// never exceed the chunk ceiling so this is bounded.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return apierr.RetryWithBackoff(ctx, f.retry, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("GET %s: %w: %v", url, apierr.ErrUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, apierr.ClassifyStatus(resp.StatusCode, fmt.Sprintf("GET %s: HTTP %d", url, resp.StatusCode))
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, chunk.MaxChunkBytes+1))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w: %v", url, apierr.ErrUnavailable, err)
		}
		return data, nil
	}, apierr.IsRetryable)
}
