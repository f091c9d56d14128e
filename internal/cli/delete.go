package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RodimusGPT/wisekeep-sub001/internal/blob"
)

// DeleteCmd creates the delete command.
func DeleteCmd(env *Env) *cobra.Command {
	var keepAudio bool

	cmd := &cobra.Command{
		Use:   "delete <recording-id>",
		Short: "Delete a recording",
		Long: `Delete a recording everywhere: the service row, the stored audio,
and the local copy.

Audio deletion is best effort; a failed object delete is reported but
does not block removing the recording.`,
		Example: `  wisekeep delete 3e9fdc41-5c30-4b36-9a7e-2f3de1c7a9b1
  wisekeep delete 3e9fdc41-5c30-4b36-9a7e-2f3de1c7a9b1 --keep-audio`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, env, args[0], keepAudio)
		},
	}

	cmd.Flags().BoolVar(&keepAudio, "keep-audio", false, "Leave audio objects in storage")

	return cmd
}

func runDelete(cmd *cobra.Command, env *Env, recordingID string, keepAudio bool) error {
	ctx := cmd.Context()

	s, err := loadSetup(env)
	if err != nil {
		return err
	}

	rec, err := s.store.Get(recordingID)
	if err != nil {
		return err
	}

	if !keepAudio && s.cfg.StorageURL != "" {
		storage := env.StorageFactory.NewStorage(s.cfg.StorageURL, s.apiKey)
		uploader := blob.NewUploader(storage)
		count := len(rec.ChunkURLs)
		if count == 0 && rec.AudioURL != "" {
			count = 1
		}
		if count > 0 {
			mime := mimeForStoredURL(rec.AudioURL)
			if err := uploader.DeleteAll(ctx, rec.UserID, rec.ID, count, mime); err != nil {
				fmt.Fprintf(env.Stderr, "Warning: deleting audio: %v\n", err)
			}
		}
	}

	client := env.BackendFactory.NewClient(s.cfg.BackendURL, s.apiKey)
	if err := client.DeleteRecording(ctx, recordingID); err != nil {
		return fmt.Errorf("deleting recording: %w", err)
	}
	if err := s.store.Delete(recordingID); err != nil {
		return fmt.Errorf("removing local state: %w", err)
	}

	fmt.Fprintf(env.Stdout, "Deleted recording %s\n", recordingID)
	return nil
}
