package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/RodimusGPT/wisekeep-sub001/internal/apierr"
	"github.com/RodimusGPT/wisekeep-sub001/internal/backend"
	"github.com/RodimusGPT/wisekeep-sub001/internal/chunk"
	"github.com/RodimusGPT/wisekeep-sub001/internal/cli"
	"github.com/RodimusGPT/wisekeep-sub001/internal/export"
	"github.com/RodimusGPT/wisekeep-sub001/internal/lang"
	"github.com/RodimusGPT/wisekeep-sub001/internal/memo"
	"github.com/RodimusGPT/wisekeep-sub001/internal/process"
	"github.com/RodimusGPT/wisekeep-sub001/internal/store"
	"github.com/RodimusGPT/wisekeep-sub001/internal/summarize"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitProcessing = 5
	ExitInterrupt  = 130
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// Context with signal cancellation.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env := cli.DefaultEnv()

	rootCmd := &cobra.Command{
		Use:     "wisekeep",
		Short:   "Save, transcribe, and summarize voice memos",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(cli.SaveCmd(env))
	rootCmd.AddCommand(cli.TranscribeCmd(env))
	rootCmd.AddCommand(cli.ListCmd(env))
	rootCmd.AddCommand(cli.ShowCmd(env))
	rootCmd.AddCommand(cli.DeleteCmd(env))
	rootCmd.AddCommand(cli.RetryCmd(env))
	rootCmd.AddCommand(cli.ExportCmd(env))
	rootCmd.AddCommand(cli.UsageCmd(env))
	rootCmd.AddCommand(cli.WorkerCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Interrupt.
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Usage errors: Cobra flag/arg parsing failures.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	// Setup errors: missing credentials or configuration.
	if errors.Is(err, cli.ErrAPIKeyMissing) || errors.Is(err, cli.ErrOpenAIKeyMissing) ||
		errors.Is(err, cli.ErrUserIDMissing) || errors.Is(err, cli.ErrBackendURLMissing) ||
		errors.Is(err, cli.ErrStorageURLMissing) {
		return ExitSetup
	}

	// Validation errors: bad input or local state.
	if errors.Is(err, cli.ErrFileNotFound) || errors.Is(err, cli.ErrUnsupportedFormat) ||
		errors.Is(err, cli.ErrOutputExists) || errors.Is(err, cli.ErrNotFailed) ||
		errors.Is(err, cli.ErrQuotaReached) || errors.Is(err, lang.ErrInvalid) ||
		errors.Is(err, chunk.ErrEmptyPayload) || errors.Is(err, export.ErrUnknownFormat) ||
		errors.Is(err, export.ErrNoNotes) || errors.Is(err, memo.ErrNotFound) ||
		errors.Is(err, memo.ErrInvalidTransition) || errors.Is(err, store.ErrCorruptSnapshot) {
		return ExitValidation
	}

	// Processing errors: API and service failures.
	if errors.Is(err, apierr.ErrRateLimit) || errors.Is(err, apierr.ErrQuotaExceeded) ||
		errors.Is(err, apierr.ErrTimeout) || errors.Is(err, apierr.ErrAuthFailed) ||
		errors.Is(err, apierr.ErrUnavailable) || errors.Is(err, backend.ErrProcessingRejected) ||
		errors.Is(err, process.ErrNoAudio) || errors.Is(err, process.ErrEmptyTranscript) ||
		errors.Is(err, summarize.ErrNotesTooLong) {
		return ExitProcessing
	}

	return ExitGeneral
}

// isCobraUsageError detects Cobra's flag and argument parsing errors by
// message pattern; Cobra does not expose typed errors for these.
func isCobraUsageError(err error) bool {
	msg := err.Error()
	patterns := []string{
		"unknown command",
		"unknown flag",
		"unknown shorthand flag",
		"invalid argument",
		"requires at least",
		"accepts at most",
		"accepts ",
		"required flag",
		"needs an argument",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
