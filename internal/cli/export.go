package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RodimusGPT/wisekeep-sub001/internal/export"
)

// ExportCmd creates the export command.
func ExportCmd(env *Env) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export <recording-id>",
		Short: "Export a recording's notes",
		Long: `Export a recording's notes to a file.

Formats:
  txt    Label, summary, and timestamped notes (default)
  srt    SubRip subtitles
  vtt    WebVTT subtitles
  ttml   Timed Text Markup Language`,
		Example: `  wisekeep export 3e9fdc41-5c30-4b36-9a7e-2f3de1c7a9b1
  wisekeep export 3e9fdc41-5c30-4b36-9a7e-2f3de1c7a9b1 -f srt -o memo.srt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(env, args[0], format, output)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "txt", "Output format: txt, srt, vtt, ttml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: <recording-id>.<format>)")

	return cmd
}

func runExport(env *Env, recordingID, format, output string) error {
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}

	s, err := loadLocal(env)
	if err != nil {
		return err
	}
	rec, err := s.store.Get(recordingID)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, rec, f); err != nil {
		return err
	}

	if output == "" {
		output = recordingID + "." + f.Ext()
	}
	if err := writeFileAtomic(output, buf.Bytes()); err != nil {
		return err
	}

	fmt.Fprintf(env.Stdout, "Exported %s to %s\n", recordingID, output)
	return nil
}
