package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/RodimusGPT/wisekeep-sub001/internal/config"
	"github.com/RodimusGPT/wisekeep-sub001/internal/process"
)

// WorkerCmd creates the worker command.
func WorkerCmd(env *Env) *cobra.Command {
	var idleSleep time.Duration

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the processing worker",
		Long: `Run the processing loop: claim recordings awaiting transcription,
transcribe their chunks, combine the notes, and summarize.

This is the service-side counterpart of save/transcribe. It needs both
the service credentials and an OpenAI API key. Stop with Ctrl-C.`,
		Example: `  wisekeep worker
  wisekeep worker --idle-sleep 30s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd, env, idleSleep)
		},
	}

	cmd.Flags().DurationVar(&idleSleep, "idle-sleep", 10*time.Second, "Pause between empty queue checks")

	return cmd
}

func runWorker(cmd *cobra.Command, env *Env, idleSleep time.Duration) error {
	ctx := cmd.Context()

	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return err
	}
	if cfg.BackendURL == "" {
		return ErrBackendURLMissing
	}
	apiKey := env.Getenv(config.EnvAPIKey)
	if apiKey == "" {
		return ErrAPIKeyMissing
	}
	openaiKey := env.Getenv(config.EnvOpenAIKey)
	if openaiKey == "" {
		return ErrOpenAIKeyMissing
	}

	client := env.BackendFactory.NewClient(cfg.BackendURL, apiKey)
	engine := env.EngineFactory.NewEngine(client, openaiKey)

	worker := process.NewWorker(engine,
		process.WithIdleSleep(idleSleep),
		process.WithWorkerWarnFunc(func(format string, args ...any) {
			fmt.Fprintf(env.Stderr, "Warning: "+format+"\n", args...)
		}),
	)

	fmt.Fprintln(env.Stdout, "Worker started; waiting for recordings")
	err = worker.Run(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(env.Stdout, "Worker stopped")
	}
	return err
}
