package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RodimusGPT/wisekeep-sub001/internal/memo"
)

// ShowCmd creates the show command.
func ShowCmd(env *Env) *cobra.Command {
	var sync bool

	cmd := &cobra.Command{
		Use:   "show <recording-id>",
		Short: "Show a recording's notes and summary",
		Long: `Show a recording's details, notes, and summary.

With --sync the recording is refreshed from the service first; the
server's copy overwrites the local one.`,
		Example: `  wisekeep show 3e9fdc41-5c30-4b36-9a7e-2f3de1c7a9b1
  wisekeep show 3e9fdc41-5c30-4b36-9a7e-2f3de1c7a9b1 --sync`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, env, args[0], sync)
		},
	}

	cmd.Flags().BoolVar(&sync, "sync", false, "Refresh from the service first")

	return cmd
}

func runShow(cmd *cobra.Command, env *Env, recordingID string, sync bool) error {
	ctx := cmd.Context()

	var rec memo.Recording
	if sync {
		s, err := loadSetup(env)
		if err != nil {
			return err
		}
		client := env.BackendFactory.NewClient(s.cfg.BackendURL, s.apiKey)
		rec, err = client.FetchRecording(ctx, recordingID)
		if err != nil {
			return fmt.Errorf("refreshing recording: %w", err)
		}
		if err := s.store.Put(rec); err != nil {
			return fmt.Errorf("saving local state: %w", err)
		}
	} else {
		s, err := loadLocal(env)
		if err != nil {
			return err
		}
		rec, err = s.store.Get(recordingID)
		if err != nil {
			return err
		}
	}

	printRecording(env, rec)
	return nil
}

func printRecording(env *Env, rec memo.Recording) {
	out := env.Stdout

	label := rec.Label
	if label == "" {
		label = "(no label)"
	}
	fmt.Fprintf(out, "%s\n", label)
	fmt.Fprintf(out, "  id:       %s\n", rec.ID)
	fmt.Fprintf(out, "  created:  %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "  length:   %s\n", formatDuration(rec.Duration))
	fmt.Fprintf(out, "  status:   %s\n", statusLabel(rec.Status))
	if rec.Language != "" {
		fmt.Fprintf(out, "  language: %s\n", rec.Language)
	}
	if len(rec.ChunkURLs) > 1 {
		fmt.Fprintf(out, "  chunks:   %d\n", len(rec.ChunkURLs))
	}
	if rec.Status == memo.StatusError && rec.ErrorMessage != "" {
		fmt.Fprintf(out, "  error:    %s\n", rec.ErrorMessage)
		fmt.Fprintf(out, "\nRun `wisekeep retry %s` to try again\n", rec.ID)
	}

	if len(rec.Summary) > 0 {
		fmt.Fprintf(out, "\nSummary\n")
		for _, point := range rec.Summary {
			fmt.Fprintf(out, "  - %s\n", point)
		}
	}
	if len(rec.Notes) > 0 {
		fmt.Fprintf(out, "\nNotes\n")
		for _, note := range rec.Notes {
			fmt.Fprintf(out, "  [%s] %s\n", formatTimestamp(note.Timestamp), note.Text)
		}
	}
}
