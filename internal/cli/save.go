package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/RodimusGPT/wisekeep-sub001/internal/backend"
	"github.com/RodimusGPT/wisekeep-sub001/internal/blob"
	"github.com/RodimusGPT/wisekeep-sub001/internal/chunk"
	"github.com/RodimusGPT/wisekeep-sub001/internal/lang"
	"github.com/RodimusGPT/wisekeep-sub001/internal/memo"
	"github.com/RodimusGPT/wisekeep-sub001/internal/usage"
)

// SaveCmd creates the save command.
func SaveCmd(env *Env) *cobra.Command {
	var (
		label    string
		language string
		duration float64
		process  bool
	)

	cmd := &cobra.Command{
		Use:   "save <audio-file>",
		Short: "Upload a recording",
		Long: `Upload an audio file as a new recording.

Payloads over the 20MB ceiling are split into chunks and uploaded
sequentially; each chunk keeps a contiguous slice of the recording's
time window so notes line up after transcription.

With --process the recording is queued for transcription immediately.`,
		Example: `  wisekeep save memo.m4a --duration 95
  wisekeep save standup.webm --duration 300 --label "Monday standup" --process
  wisekeep save interview.mp3 --duration 2400 -l pt-BR`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(cmd, env, args[0], label, language, duration, process)
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "Recording label shown in lists")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Audio language (ISO 639-1 code, e.g., en, pt-BR)")
	cmd.Flags().Float64Var(&duration, "duration", 0, "Recording length in seconds (required)")
	cmd.Flags().BoolVar(&process, "process", false, "Queue for transcription after upload")
	_ = cmd.MarkFlagRequired("duration")

	return cmd
}

func runSave(cmd *cobra.Command, env *Env, audioPath, label, language string, duration float64, triggerProcess bool) error {
	ctx := cmd.Context()

	if duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", duration)
	}
	if err := lang.Validate(language); err != nil {
		return err
	}
	mime, err := mimeForFile(audioPath)
	if err != nil {
		return err
	}

	payload, err := os.ReadFile(audioPath) // #nosec G304 -- user-specified input file
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", audioPath, ErrFileNotFound)
		}
		return fmt.Errorf("reading %s: %w", audioPath, err)
	}

	s, err := loadSetup(env)
	if err != nil {
		return err
	}
	if s.cfg.StorageURL == "" {
		return ErrStorageURLMissing
	}
	if language == "" {
		language = s.cfg.Language
	}

	client := env.BackendFactory.NewClient(s.cfg.BackendURL, s.apiKey)

	// Check plan limits before moving any bytes.
	info, err := client.FetchUsage(ctx, s.cfg.UserID)
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: cannot check plan limits: %v\n", err)
	} else if ok, reason := usage.CanRecord(info); !ok {
		return fmt.Errorf("%s: %w", reason, ErrQuotaReached)
	}

	chunks, err := chunk.Split(payload, duration, mime)
	if err != nil {
		return err
	}
	if len(chunks) > 1 {
		fmt.Fprintf(env.Stdout, "Splitting into %d chunks...\n", len(chunks))
	}

	recordingID := uuid.NewString()
	uploader := blob.NewUploader(env.StorageFactory.NewStorage(s.cfg.StorageURL, s.apiKey))
	uploaded, err := uploader.UploadAll(ctx, s.cfg.UserID, recordingID, chunks)
	if err != nil {
		return fmt.Errorf("uploading: %w", err)
	}

	rec := memo.Recording{
		ID:        recordingID,
		UserID:    s.cfg.UserID,
		CreatedAt: env.Now().UTC(),
		Duration:  duration,
		AudioURL:  uploaded.AudioURL(),
		Status:    memo.StatusRecorded,
		Label:     label,
		Language:  language,
	}
	if uploaded.NeedsChunking {
		rec.ChunkURLs = uploaded.URLs()
		for _, ref := range uploaded.Chunks {
			rec.ChunkStartTimes = append(rec.ChunkStartTimes, ref.StartTime)
		}
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	if err := client.CreateRecording(ctx, rec); err != nil {
		return fmt.Errorf("registering recording: %w", err)
	}
	if err := s.store.Put(rec); err != nil {
		return fmt.Errorf("saving local state: %w", err)
	}

	fmt.Fprintf(env.Stdout, "Saved recording %s (%s, %s)\n",
		rec.ID, formatDuration(rec.Duration), statusLabel(rec.Status))

	if triggerProcess {
		req := backend.ProcessRequest{
			RecordingID:     rec.ID,
			UserID:          rec.UserID,
			Chunks:          uploaded.Chunks,
			Language:        rec.Language,
			DurationSeconds: rec.Duration,
		}
		if err := client.TriggerProcessing(ctx, req); err != nil {
			return fmt.Errorf("queueing transcription: %w", err)
		}
		fmt.Fprintf(env.Stdout, "Queued for transcription; run `wisekeep transcribe %s` to follow progress\n", rec.ID)
	}

	return nil
}
