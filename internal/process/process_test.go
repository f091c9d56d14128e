package process

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RodimusGPT/wisekeep-sub001/internal/backend"
	"github.com/RodimusGPT/wisekeep-sub001/internal/chunk"
	"github.com/RodimusGPT/wisekeep-sub001/internal/memo"
	"github.com/RodimusGPT/wisekeep-sub001/internal/transcribe"
	"github.com/RodimusGPT/wisekeep-sub001/internal/usage"
)

// ----------------------------------------------------------------------------
// Fakes
// ----------------------------------------------------------------------------

type fakeBackend struct {
	mu        sync.Mutex
	updates   []appliedUpdate
	updateErr error
	pending   [][]memo.Recording
	listErr   error
	lists     int
}

type appliedUpdate struct {
	id string
	u  memo.Update
}

func (b *fakeBackend) CreateRecording(context.Context, memo.Recording) error { return nil }
func (b *fakeBackend) FetchRecording(context.Context, string) (memo.Recording, error) {
	return memo.Recording{}, nil
}
func (b *fakeBackend) DeleteRecording(context.Context, string) error           { return nil }
func (b *fakeBackend) TriggerProcessing(context.Context, backend.ProcessRequest) error {
	return nil
}
func (b *fakeBackend) FetchUsage(context.Context, string) (usage.Info, error) {
	return usage.Info{}, nil
}

func (b *fakeBackend) UpdateRecording(_ context.Context, id string, u memo.Update) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.updateErr != nil {
		return b.updateErr
	}
	b.updates = append(b.updates, appliedUpdate{id: id, u: u})
	return nil
}

func (b *fakeBackend) ListPending(context.Context) ([]memo.Recording, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listErr != nil {
		return nil, b.listErr
	}
	i := b.lists
	b.lists++
	if i >= len(b.pending) {
		return nil, nil
	}
	return b.pending[i], nil
}

// statuses returns the ordered status values pushed for one recording.
func (b *fakeBackend) statuses() []memo.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []memo.Status
	for _, au := range b.updates {
		if au.u.Status != nil {
			out = append(out, *au.u.Status)
		}
	}
	return out
}

type fakeFetcher struct {
	mu      sync.Mutex
	fetched []string
	err     error
	payload func(url string) []byte
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, url)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.payload != nil {
		return f.payload(url), nil
	}
	return []byte(url), nil
}

type fakeTranscriber struct {
	mu    sync.Mutex
	calls int
	err   error
	// text returns the transcript for a chunk; defaults to "chunk <index>".
	text func(c chunk.AudioChunk) string
}

func (t *fakeTranscriber) Transcribe(_ context.Context, c chunk.AudioChunk, _ string) (transcribe.Result, error) {
	t.mu.Lock()
	t.calls++
	t.mu.Unlock()
	if t.err != nil {
		return transcribe.Result{}, t.err
	}
	text := fmt.Sprintf("chunk %d", c.Index)
	if t.text != nil {
		text = t.text(c)
	}
	return transcribe.Result{
		Text: text,
		Segments: []memo.NoteLine{
			{ID: 1, Timestamp: 1.0, Text: text},
		},
	}, nil
}

type fakeSummarizer struct {
	calls int
	err   error
	out   string
}

func (s *fakeSummarizer) Summarize(_ context.Context, notes, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if s.out != "" {
		return s.out, nil
	}
	return "- summary of: " + notes, nil
}

func pendingRecording(id string, chunks int) memo.Recording {
	rec := memo.Recording{
		ID:       id,
		UserID:   "user-1",
		Duration: float64(chunks) * 30,
		Status:   memo.StatusRecorded,
	}
	for i := 0; i < chunks; i++ {
		rec.ChunkURLs = append(rec.ChunkURLs, fmt.Sprintf("https://blobs/%s-chunk%d.m4a", id, i))
	}
	return rec
}

// ----------------------------------------------------------------------------
// Engine tests
// ----------------------------------------------------------------------------

func TestProcess_HappyPath(t *testing.T) {
	t.Parallel()

	bk := &fakeBackend{}
	eng := NewEngine(bk, &fakeFetcher{}, &fakeTranscriber{}, &fakeSummarizer{out: "- done"})

	if err := eng.Process(context.Background(), pendingRecording("rec-1", 3)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	want := []memo.Status{memo.StatusProcessingNotes, memo.StatusProcessingSummary, memo.StatusReady}
	got := bk.statuses()
	if len(got) != len(want) {
		t.Fatalf("got status updates %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("status update %d = %q, want %q", i, got[i], want[i])
		}
	}

	// The notes land with the processing_summary update, the summary
	// with the ready update.
	mid := bk.updates[1].u
	if mid.Notes == nil || len(*mid.Notes) != 3 {
		t.Fatalf("processing_summary update should carry 3 notes, got %+v", mid.Notes)
	}
	notes := *mid.Notes
	for i, n := range notes {
		if n.ID != i+1 {
			t.Errorf("note %d ID = %d, want %d", i, n.ID, i+1)
		}
	}
	// Equal chunk payloads mean equal 30s windows; each chunk's single
	// segment sits 1s in.
	if notes[1].Timestamp != 31.0 || notes[2].Timestamp != 61.0 {
		t.Errorf("offset-shifted timestamps = %v, %v, want 31, 61", notes[1].Timestamp, notes[2].Timestamp)
	}

	last := bk.updates[2].u
	if last.Summary == nil || len(*last.Summary) != 1 || (*last.Summary)[0] != "done" {
		t.Errorf("ready update summary = %+v, want [done]", last.Summary)
	}
}

func TestProcess_OffsetsFollowByteShare(t *testing.T) {
	t.Parallel()

	// The splitter fills every chunk to the ceiling and only the last
	// one runs short, so time windows are byte-proportional, not
	// uniform. 4000+4000+1000 bytes over 90s puts the chunk starts at
	// 0s, 40s, and 80s.
	sizes := []int{4000, 4000, 1000}
	fetcher := &fakeFetcher{payload: func(url string) []byte {
		for i := range sizes {
			if strings.Contains(url, fmt.Sprintf("chunk%d", i)) {
				return make([]byte, sizes[i])
			}
		}
		return nil
	}}

	bk := &fakeBackend{}
	eng := NewEngine(bk, fetcher, &fakeTranscriber{}, &fakeSummarizer{})

	if err := eng.Process(context.Background(), pendingRecording("rec-8", 3)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	mid := bk.updates[1].u
	if mid.Notes == nil || len(*mid.Notes) != 3 {
		t.Fatalf("processing_summary update should carry 3 notes, got %+v", mid.Notes)
	}
	notes := *mid.Notes
	// Each chunk's single segment sits 1s into its window.
	want := []float64{1, 41, 81}
	for i, n := range notes {
		if n.Timestamp != want[i] {
			t.Errorf("note %d timestamp = %v, want %v", i, n.Timestamp, want[i])
		}
	}
}

func TestProcess_SingleAudioURLFallback(t *testing.T) {
	t.Parallel()

	bk := &fakeBackend{}
	fetcher := &fakeFetcher{}
	eng := NewEngine(bk, fetcher, &fakeTranscriber{}, &fakeSummarizer{})

	rec := memo.Recording{
		ID:       "rec-2",
		UserID:   "user-1",
		Duration: 40,
		AudioURL: "https://blobs/rec-2.m4a",
		Status:   memo.StatusRecorded,
	}
	if err := eng.Process(context.Background(), rec); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(fetcher.fetched) != 1 || fetcher.fetched[0] != rec.AudioURL {
		t.Errorf("fetched = %v, want just the audio URL", fetcher.fetched)
	}
}

func TestProcess_NoAudio(t *testing.T) {
	t.Parallel()

	bk := &fakeBackend{}
	eng := NewEngine(bk, &fakeFetcher{}, &fakeTranscriber{}, &fakeSummarizer{})

	rec := memo.Recording{ID: "rec-3", Status: memo.StatusRecorded, Duration: 10}
	err := eng.Process(context.Background(), rec)
	if !errors.Is(err, ErrNoAudio) {
		t.Fatalf("error = %v, want ErrNoAudio", err)
	}

	// The only update is the error status with a message.
	st := bk.statuses()
	if len(st) != 1 || st[0] != memo.StatusError {
		t.Fatalf("status updates = %v, want single error", st)
	}
	u := bk.updates[0].u
	if u.ErrorMessage == nil || *u.ErrorMessage == "" {
		t.Errorf("error update should carry a message, got %+v", u.ErrorMessage)
	}
}

func TestProcess_TranscriptionFailureMarksError(t *testing.T) {
	t.Parallel()

	bk := &fakeBackend{}
	boom := errors.New("decode failed")
	eng := NewEngine(bk, &fakeFetcher{}, &fakeTranscriber{err: boom}, &fakeSummarizer{})

	err := eng.Process(context.Background(), pendingRecording("rec-4", 2))
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped transcriber error", err)
	}

	st := bk.statuses()
	if len(st) != 2 || st[0] != memo.StatusProcessingNotes || st[1] != memo.StatusError {
		t.Fatalf("status updates = %v, want [processing_notes error]", st)
	}
	u := bk.updates[1].u
	if u.ErrorMessage == nil || !strings.Contains(*u.ErrorMessage, "decode failed") {
		t.Errorf("error message = %+v, want the cause", u.ErrorMessage)
	}
}

func TestProcess_SummaryFailureMarksError(t *testing.T) {
	t.Parallel()

	bk := &fakeBackend{}
	boom := errors.New("quota exceeded")
	eng := NewEngine(bk, &fakeFetcher{}, &fakeTranscriber{}, &fakeSummarizer{err: boom})

	err := eng.Process(context.Background(), pendingRecording("rec-5", 1))
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped summarizer error", err)
	}

	st := bk.statuses()
	want := []memo.Status{memo.StatusProcessingNotes, memo.StatusProcessingSummary, memo.StatusError}
	if len(st) != len(want) {
		t.Fatalf("status updates = %v, want %v", st, want)
	}
	for i := range want {
		if st[i] != want[i] {
			t.Fatalf("status update %d = %q, want %q", i, st[i], want[i])
		}
	}
}

func TestProcess_EmptyTranscript(t *testing.T) {
	t.Parallel()

	bk := &fakeBackend{}
	silent := &fakeTranscriber{text: func(chunk.AudioChunk) string { return "" }}
	eng := NewEngine(bk, &fakeFetcher{}, silent, &fakeSummarizer{})

	err := eng.Process(context.Background(), pendingRecording("rec-6", 2))
	if !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("error = %v, want ErrEmptyTranscript", err)
	}
}

func TestProcess_ParallelBounded(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	active, peak := 0, 0
	fetcher := &fakeFetcher{payload: func(url string) []byte {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return []byte(url)
	}}

	bk := &fakeBackend{}
	eng := NewEngine(bk, fetcher, &fakeTranscriber{}, &fakeSummarizer{}, WithMaxParallel(2))

	if err := eng.Process(context.Background(), pendingRecording("rec-7", 6)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestProcess_WarnsWhenFailureReportFails(t *testing.T) {
	t.Parallel()

	down := errors.New("backend down")
	bk := &fakeBackend{updateErr: down}

	var warned []string
	eng := NewEngine(bk, &fakeFetcher{}, &fakeTranscriber{}, &fakeSummarizer{},
		WithWarnFunc(func(format string, args ...any) {
			warned = append(warned, fmt.Sprintf(format, args...))
		}))

	err := eng.Process(context.Background(), pendingRecording("rec-9", 1))
	if !errors.Is(err, down) {
		t.Fatalf("error = %v, want the update failure", err)
	}

	// The error-status push also failed; that only warns, with the
	// recording id and cause in the message.
	if len(warned) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warned)
	}
	if !strings.Contains(warned[0], "rec-9") || !strings.Contains(warned[0], "backend down") {
		t.Errorf("warning = %q, want recording id and cause", warned[0])
	}
}

// ----------------------------------------------------------------------------
// Worker tests
// ----------------------------------------------------------------------------

func TestWorker_ProcessesPendingThenIdles(t *testing.T) {
	t.Parallel()

	bk := &fakeBackend{pending: [][]memo.Recording{
		{pendingRecording("rec-a", 1), pendingRecording("rec-b", 1)},
	}}
	eng := NewEngine(bk, &fakeFetcher{}, &fakeTranscriber{}, &fakeSummarizer{})

	sleeps := 0
	w := NewWorker(eng, withSleep(func(ctx context.Context, _ time.Duration) error {
		sleeps++
		if sleeps >= 2 {
			return context.Canceled
		}
		return nil
	}))

	err := w.Run(context.Background())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}

	// Two recordings, three status pushes each.
	if got := len(bk.updates); got != 6 {
		t.Errorf("got %d updates, want 6", got)
	}
}

func TestWorker_ContinuesPastRecordingFailure(t *testing.T) {
	t.Parallel()

	bad := pendingRecording("rec-bad", 1)
	bad.ChunkURLs = nil
	bad.AudioURL = ""
	good := pendingRecording("rec-good", 1)

	bk := &fakeBackend{pending: [][]memo.Recording{{bad, good}}}
	eng := NewEngine(bk, &fakeFetcher{}, &fakeTranscriber{}, &fakeSummarizer{})

	var warned []string
	w := NewWorker(eng,
		WithWorkerWarnFunc(func(format string, args ...any) {
			warned = append(warned, fmt.Sprintf(format, args...))
		}),
		withSleep(func(context.Context, time.Duration) error {
			return context.Canceled
		}))

	if err := w.Run(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}

	if len(warned) != 1 || !strings.Contains(warned[0], "rec-bad") {
		t.Errorf("warnings = %v, want one for rec-bad", warned)
	}

	// The good recording still finished.
	finished := false
	for _, st := range bk.statuses() {
		if st == memo.StatusReady {
			finished = true
		}
	}
	if !finished {
		t.Error("rec-good never reached ready")
	}
}

func TestWorker_ListErrorSleepsAndRetries(t *testing.T) {
	t.Parallel()

	bk := &fakeBackend{listErr: errors.New("backend down")}
	eng := NewEngine(bk, &fakeFetcher{}, &fakeTranscriber{}, &fakeSummarizer{})

	sleeps := 0
	w := NewWorker(eng, withSleep(func(context.Context, time.Duration) error {
		sleeps++
		if sleeps >= 3 {
			return context.Canceled
		}
		return nil
	}))

	if err := w.Run(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if sleeps != 3 {
		t.Errorf("sleeps = %d, want 3", sleeps)
	}
}
