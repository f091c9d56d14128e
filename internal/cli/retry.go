package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RodimusGPT/wisekeep-sub001/internal/memo"
)

// RetryCmd creates the retry command.
func RetryCmd(env *Env) *cobra.Command {
	var noWait bool

	cmd := &cobra.Command{
		Use:   "retry <recording-id>",
		Short: "Retry a failed recording",
		Long: `Reset a failed recording back to recorded and queue it for
processing again. The previous error message is cleared. Only
recordings in the error status can be retried.`,
		Example: `  wisekeep retry 3e9fdc41-5c30-4b36-9a7e-2f3de1c7a9b1`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRetry(cmd, env, args[0], noWait)
		},
	}

	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Queue without following progress")

	return cmd
}

func runRetry(cmd *cobra.Command, env *Env, recordingID string, noWait bool) error {
	ctx := cmd.Context()

	s, err := loadSetup(env)
	if err != nil {
		return err
	}

	rec, err := s.store.Get(recordingID)
	if err != nil {
		return err
	}
	if rec.Status != memo.StatusError {
		return fmt.Errorf("recording %s is %s: %w", rec.ID, statusLabel(rec.Status), ErrNotFailed)
	}

	if err := rec.Transition(memo.StatusRecorded, ""); err != nil {
		return err
	}

	client := env.BackendFactory.NewClient(s.cfg.BackendURL, s.apiKey)

	cleared := ""
	u := memo.Update{Status: &rec.Status, ErrorMessage: &cleared}
	if err := client.UpdateRecording(ctx, rec.ID, u); err != nil {
		return fmt.Errorf("resetting recording: %w", err)
	}
	if err := s.store.Put(rec); err != nil {
		return fmt.Errorf("saving local state: %w", err)
	}

	fmt.Fprintf(env.Stdout, "Reset recording %s to %s\n", rec.ID, statusLabel(rec.Status))
	return runTranscribe(cmd, env, rec.ID, noWait)
}
