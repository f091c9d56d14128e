package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RodimusGPT/wisekeep-sub001/internal/backend"
	"github.com/RodimusGPT/wisekeep-sub001/internal/blob"
	"github.com/RodimusGPT/wisekeep-sub001/internal/memo"
	"github.com/RodimusGPT/wisekeep-sub001/internal/poll"
)

// TranscribeCmd creates the transcribe command.
func TranscribeCmd(env *Env) *cobra.Command {
	var noWait bool

	cmd := &cobra.Command{
		Use:   "transcribe <recording-id>",
		Short: "Queue a recording for transcription",
		Long: `Queue a recording for transcription and summarization.

Processing happens on the service. By default the command follows
progress by polling the recording's status until it reaches ready or
error; --no-wait returns immediately after queueing. If polling times
out the work continues server side; check back with show.`,
		Example: `  wisekeep transcribe 3e9fdc41-5c30-4b36-9a7e-2f3de1c7a9b1
  wisekeep transcribe 3e9fdc41-5c30-4b36-9a7e-2f3de1c7a9b1 --no-wait`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd, env, args[0], noWait)
		},
	}

	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Queue without following progress")

	return cmd
}

func runTranscribe(cmd *cobra.Command, env *Env, recordingID string, noWait bool) error {
	ctx := cmd.Context()

	s, err := loadSetup(env)
	if err != nil {
		return err
	}

	rec, err := s.store.Get(recordingID)
	if err != nil {
		return err
	}
	if rec.Status.Terminal() {
		return fmt.Errorf("recording %s is already %s", rec.ID, statusLabel(rec.Status))
	}

	client := env.BackendFactory.NewClient(s.cfg.BackendURL, s.apiKey)

	req := backend.ProcessRequest{
		RecordingID:     rec.ID,
		UserID:          rec.UserID,
		Chunks:          chunkRefs(rec),
		Language:        rec.Language,
		DurationSeconds: rec.Duration,
	}
	if err := client.TriggerProcessing(ctx, req); err != nil {
		return fmt.Errorf("queueing transcription: %w", err)
	}
	fmt.Fprintf(env.Stdout, "Queued recording %s for transcription\n", rec.ID)

	if noWait {
		return nil
	}

	return followProcessing(cmd, env, s, client, rec.ID)
}

// followProcessing polls the recording until it settles or the poll
// budget runs out. Timing out is not an error; the service keeps
// working and a later show/transcribe picks up the result.
func followProcessing(cmd *cobra.Command, env *Env, s *setup, client backend.Client, recordingID string) error {
	ctx := cmd.Context()

	last := memo.Status("")
	poller := poll.New(client, s.store, poll.WithObserver(func(rec memo.Recording) {
		if rec.Status != last {
			last = rec.Status
			fmt.Fprintf(env.Stdout, "  %s...\n", statusLabel(rec.Status))
		}
	}))

	result, err := poller.Watch(ctx, recordingID)
	if err != nil {
		return err
	}
	if !result.Terminal {
		fmt.Fprintf(env.Stdout,
			"Still processing after %d checks; run `wisekeep show %s` later\n",
			result.Attempts, recordingID)
		return nil
	}

	if result.Recording.Status == memo.StatusError {
		return fmt.Errorf("processing failed: %s", result.Recording.ErrorMessage)
	}
	fmt.Fprintf(env.Stdout, "Recording %s is ready (%d notes)\n",
		recordingID, len(result.Recording.Notes))
	return nil
}

// chunkRefs reconstructs upload refs from a stored recording. Chunk
// windows come from the start times persisted at upload; they are
// byte-share proportional, so count alone cannot recover them. Rows
// without persisted starts fall back to uniform spans.
func chunkRefs(rec memo.Recording) []blob.ChunkRef {
	urls := rec.ChunkURLs
	if len(urls) == 0 {
		if rec.AudioURL == "" {
			return nil
		}
		urls = []string{rec.AudioURL}
	}

	starts := rec.ChunkStartTimes
	if len(starts) != len(urls) {
		span := rec.Duration / float64(len(urls))
		starts = make([]float64, len(urls))
		for i := range starts {
			starts[i] = float64(i) * span
		}
	}

	refs := make([]blob.ChunkRef, len(urls))
	for i, url := range urls {
		end := rec.Duration
		if i+1 < len(urls) {
			end = starts[i+1]
		}
		refs[i] = blob.ChunkRef{
			Index:     i,
			URL:       url,
			StartTime: starts[i],
			EndTime:   end,
		}
	}
	return refs
}
