// Package poll watches a recording's remote status until it reaches a
// terminal state or the attempt budget runs out. The backend is
// authoritative: every successful fetch overwrites the local copy
// wholesale, never merges.
package poll

import (
	"context"
	"time"

	"github.com/RodimusGPT/wisekeep-sub001/internal/memo"
)

// Default polling cadence: 2s ticks, 60 attempts, so a watch gives up
// after roughly two minutes.
const (
	DefaultInterval    = 2 * time.Second
	DefaultMaxAttempts = 60
)

// statusFetcher fetches the authoritative recording row.
// backend.Client satisfies this.
type statusFetcher interface {
	FetchRecording(ctx context.Context, id string) (memo.Recording, error)
}

// localPutter overwrites the local copy of a recording.
// store.Store satisfies this.
type localPutter interface {
	Put(rec memo.Recording) error
}

// sleepFunc waits for d or until the context is done. Injectable so tests
// run without real delays.
type sleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Poller drives the fixed-interval status watch.
type Poller struct {
	fetcher     statusFetcher
	local       localPutter
	interval    time.Duration
	maxAttempts int
	sleep       sleepFunc
	observe     func(rec memo.Recording)
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the tick interval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithMaxAttempts sets the attempt budget.
func WithMaxAttempts(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithSleep sets the sleep function (for testing).
func WithSleep(fn sleepFunc) Option {
	return func(p *Poller) {
		p.sleep = fn
	}
}

// WithObserver sets a callback invoked after every successful fetch,
// before the terminal check. Used for progress reporting.
func WithObserver(fn func(rec memo.Recording)) Option {
	return func(p *Poller) {
		if fn != nil {
			p.observe = fn
		}
	}
}

// New creates a Poller copying remote state from fetcher into local.
func New(fetcher statusFetcher, local localPutter, opts ...Option) *Poller {
	p := &Poller{
		fetcher:     fetcher,
		local:       local,
		interval:    DefaultInterval,
		maxAttempts: DefaultMaxAttempts,
		sleep:       defaultSleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is the outcome of a watch.
type Result struct {
	// Recording is the last successfully fetched remote state. Zero when
	// no fetch ever succeeded.
	Recording memo.Recording

	// Terminal reports whether the watch ended on ready/error. False means
	// the attempt budget ran out; the recording keeps its last-observed
	// status, deliberately not forced to error (the user can retry).
	Terminal bool

	// Attempts is the number of ticks consumed.
	Attempts int
}

// Watch polls the recording's row until it is terminal, the attempt budget
// is exhausted, or ctx is cancelled. Each successful fetch overwrites the
// local record with the server's copy. Individual fetch failures are
// swallowed and the next tick retries; only context cancellation aborts
// the loop with an error.
func (p *Poller) Watch(ctx context.Context, recordingID string) (Result, error) {
	var result Result

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := p.sleep(ctx, p.interval); err != nil {
				return result, err
			}
		}
		result.Attempts = attempt

		rec, err := p.fetcher.FetchRecording(ctx, recordingID)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			// Transient fetch failure; retry on the next tick.
			continue
		}

		// Remote wins: copy the server's state over the local record.
		result.Recording = rec
		if err := p.local.Put(rec); err != nil {
			return result, err
		}
		if p.observe != nil {
			p.observe(rec)
		}

		if rec.Status.Terminal() {
			result.Terminal = true
			return result, nil
		}
	}

	// Budget exhausted without a terminal status. Give up without
	// mutating the recording; its last-observed status stands.
	return result, nil
}
