package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RodimusGPT/wisekeep-sub001/internal/usage"
)

// UsageCmd creates the usage command.
func UsageCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show plan usage and limits",
		Long: `Show the configured user's plan tier, monthly transcription
minutes, and storage consumption. Includes the support code to quote
when contacting support.`,
		Example: `  wisekeep usage`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsage(cmd, env)
		},
	}
}

func runUsage(cmd *cobra.Command, env *Env) error {
	ctx := cmd.Context()

	s, err := loadSetup(env)
	if err != nil {
		return err
	}

	client := env.BackendFactory.NewClient(s.cfg.BackendURL, s.apiKey)
	info, err := client.FetchUsage(ctx, s.cfg.UserID)
	if err != nil {
		return fmt.Errorf("fetching usage: %w", err)
	}

	out := env.Stdout
	fmt.Fprintf(out, "Plan:         %s\n", info.Tier)
	fmt.Fprintf(out, "Minutes:      %s\n", quota(info.MinutesUsed, info.MinutesLimit, "min"))
	fmt.Fprintf(out, "Storage:      %s\n", quota(float64(info.StorageUsed)/(1024*1024), float64(info.StorageLimit)/(1024*1024), "MB"))
	fmt.Fprintf(out, "Support code: %s\n", usage.SupportCode(s.cfg.UserID))

	if ok, reason := usage.CanRecord(info); !ok {
		fmt.Fprintf(out, "\nNote: %s\n", reason)
	}
	return nil
}

// quota renders "used / limit unit", or "used unit (unlimited)" when
// the plan is unmetered.
func quota(used, limit float64, unit string) string {
	if limit <= 0 {
		return fmt.Sprintf("%.0f %s (unlimited)", used, unit)
	}
	return fmt.Sprintf("%.0f / %.0f %s", used, limit, unit)
}
