package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// ListCmd creates the list command.
func ListCmd(env *Env) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recordings",
		Long: `List locally known recordings, newest first.

The list reflects the last synced state; transcribe and show refresh
individual recordings from the service.`,
		Example: `  wisekeep list
  wisekeep list --status ready
  wisekeep list --status error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(env, statusFilter)
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show recordings with this status")

	return cmd
}

func runList(env *Env, statusFilter string) error {
	s, err := loadLocal(env)
	if err != nil {
		return err
	}

	recs := s.store.List()
	if statusFilter != "" {
		filtered := recs[:0]
		for _, rec := range recs {
			if string(rec.Status) == statusFilter || statusLabel(rec.Status) == statusFilter {
				filtered = append(filtered, rec)
			}
		}
		recs = filtered
	}

	if len(recs) == 0 {
		fmt.Fprintln(env.Stdout, "No recordings")
		return nil
	}

	w := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tLENGTH\tSTATUS\tLABEL")
	for _, rec := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rec.ID,
			rec.CreatedAt.Local().Format("2006-01-02 15:04"),
			formatDuration(rec.Duration),
			statusLabel(rec.Status),
			rec.Label,
		)
	}
	return w.Flush()
}
