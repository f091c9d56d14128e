// Package process drives a recording through its processing pipeline:
// transcribing uploaded chunks, combining the results into notes, then
// producing a summary. It advances the recording's status as each stage
// completes so clients polling the backend can follow progress.
package process

import (
	"context"
	"fmt"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/RodimusGPT/wisekeep-sub001/internal/backend"
	"github.com/RodimusGPT/wisekeep-sub001/internal/chunk"
	"github.com/RodimusGPT/wisekeep-sub001/internal/combine"
	"github.com/RodimusGPT/wisekeep-sub001/internal/memo"
	"github.com/RodimusGPT/wisekeep-sub001/internal/summarize"
	"github.com/RodimusGPT/wisekeep-sub001/internal/transcribe"
)

// defaultMaxParallel bounds concurrent chunk transcriptions per recording.
const defaultMaxParallel = 3

// Fetcher downloads a stored audio object by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// WarnFunc receives printf-style notices about non-fatal failures the
// pipeline absorbs instead of aborting on.
type WarnFunc func(format string, args ...any)

// Engine processes recordings end to end. All collaborators are
// injected so tests can run against fakes.
type Engine struct {
	backend     backend.Client
	fetcher     Fetcher
	transcriber transcribe.Transcriber
	summarizer  summarize.Summarizer
	maxParallel int
	warn        WarnFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxParallel bounds concurrent chunk transcriptions.
func WithMaxParallel(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxParallel = n
		}
	}
}

// WithWarnFunc sets the callback for non-fatal processing warnings.
func WithWarnFunc(warn WarnFunc) Option {
	return func(e *Engine) {
		if warn != nil {
			e.warn = warn
		}
	}
}

// NewEngine creates a processing engine.
func NewEngine(bc backend.Client, f Fetcher, t transcribe.Transcriber, s summarize.Summarizer, opts ...Option) *Engine {
	e := &Engine{
		backend:     bc,
		fetcher:     f,
		transcriber: t,
		summarizer:  s,
		maxParallel: defaultMaxParallel,
		warn:        func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process runs the full pipeline for one recording. On failure the
// recording is moved to the error status with a message so the client
// can surface it and offer a retry; the original error is returned.
func (e *Engine) Process(ctx context.Context, rec memo.Recording) error {
	if err := e.run(ctx, &rec); err != nil {
		e.fail(ctx, &rec, err)
		return err
	}
	return nil
}

func (e *Engine) run(ctx context.Context, rec *memo.Recording) error {
	urls := chunkURLs(rec)
	if len(urls) == 0 {
		return ErrNoAudio
	}

	if err := e.advance(ctx, rec, memo.StatusProcessingNotes, memo.Update{}); err != nil {
		return err
	}

	results, sizes, err := e.transcribeAll(ctx, rec, urls)
	if err != nil {
		return err
	}

	// Chunk windows are proportional to byte share, not uniform: the
	// splitter fills every chunk to the ceiling and only the final one
	// runs short. Rebuilding offsets from the fetched byte sizes
	// reproduces those windows exactly.
	var total int64
	for _, n := range sizes {
		total += n
	}
	parts := make([]combine.Part, len(results))
	var consumed int64
	for i, r := range results {
		offset := 0.0
		if total > 0 {
			offset = float64(consumed) / float64(total) * rec.Duration
		}
		parts[i] = combine.Part{
			Text:     r.Text,
			Segments: r.Segments,
			Offset:   offset,
		}
		consumed += sizes[i]
	}
	combined := combine.Combine(parts)
	if combined.Text == "" {
		return ErrEmptyTranscript
	}

	notes := combined.Segments
	if err := e.advance(ctx, rec, memo.StatusProcessingSummary, memo.Update{Notes: &notes}); err != nil {
		return err
	}

	summary, err := e.summarizer.Summarize(ctx, combined.Text, rec.Language)
	if err != nil {
		return fmt.Errorf("summarizing: %w", err)
	}

	points := summarize.Points(summary)
	return e.advance(ctx, rec, memo.StatusReady, memo.Update{Summary: &points})
}

// transcribeAll fetches and transcribes every chunk, bounded by
// maxParallel, preserving chunk order. It also reports each chunk's
// fetched byte size so the caller can reconstruct time windows.
func (e *Engine) transcribeAll(ctx context.Context, rec *memo.Recording, urls []string) ([]transcribe.Result, []int64, error) {
	results := make([]transcribe.Result, len(urls))
	sizes := make([]int64, len(urls))
	sem := make(chan struct{}, e.maxParallel)

	g, ctx := errgroup.WithContext(ctx)
	for i, url := range urls {
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			defer func() { <-sem }()

			data, err := e.fetcher.Fetch(ctx, url)
			if err != nil {
				return fmt.Errorf("fetching chunk %d: %w", i, err)
			}
			sizes[i] = int64(len(data))

			c := chunk.AudioChunk{
				Index:    i,
				Data:     data,
				IsLast:   i == len(urls)-1,
				MIMEType: mimeForURL(url),
			}
			result, err := e.transcriber.Transcribe(ctx, c, rec.Language)
			if err != nil {
				return fmt.Errorf("transcribing chunk %d: %w", i, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return results, sizes, nil
}

// advance moves the recording to the next status and pushes the change
// plus any accumulated fields to the backend.
func (e *Engine) advance(ctx context.Context, rec *memo.Recording, next memo.Status, u memo.Update) error {
	if err := rec.Transition(next, ""); err != nil {
		return err
	}
	rec.Apply(u)
	st := rec.Status
	u.Status = &st
	if err := e.backend.UpdateRecording(ctx, rec.ID, u); err != nil {
		return fmt.Errorf("updating recording %s: %w", rec.ID, err)
	}
	return nil
}

// fail moves the recording to the error status, best effort. The
// update failure only warns since the pipeline error is what matters.
func (e *Engine) fail(ctx context.Context, rec *memo.Recording, cause error) {
	msg := cause.Error()
	if err := rec.Transition(memo.StatusError, msg); err != nil {
		e.warn("recording %s: cannot mark errored: %v", rec.ID, err)
		return
	}
	u := memo.Update{Status: &rec.Status, ErrorMessage: &msg}
	if err := e.backend.UpdateRecording(ctx, rec.ID, u); err != nil {
		e.warn("recording %s: reporting failure: %v", rec.ID, err)
	}
}

// chunkURLs returns the recording's audio objects in upload order,
// falling back to the single audio URL when it was never chunked.
func chunkURLs(rec *memo.Recording) []string {
	if len(rec.ChunkURLs) > 0 {
		return rec.ChunkURLs
	}
	if rec.AudioURL != "" {
		return []string{rec.AudioURL}
	}
	return nil
}

// mimeForURL recovers the container type from the object's extension.
func mimeForURL(url string) string {
	switch strings.ToLower(path.Ext(url)) {
	case ".webm":
		return chunk.MIMEWebM
	case ".wav":
		return chunk.MIMEWAV
	case ".mp3":
		return chunk.MIMEMPEG
	default:
		return chunk.MIMEMP4
	}
}
