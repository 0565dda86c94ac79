package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/johnhika/dictate/internal/transcript"
)

// newExportCmd converts a saved JSON transcript into another format.
// JSON is the only export format that round-trips, so it acts as the
// interchange file between sessions.
func newExportCmd(app *appState) *cobra.Command {
	var (
		formatName string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "export <transcript.json>",
		Short: "Convert a saved JSON transcript to txt, json, or csv",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			format, err := transcript.ParseFormat(formatName)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open transcript: %w", err)
			}
			defer f.Close()

			records, err := transcript.LoadJSON(f)
			if err != nil {
				return fmt.Errorf("read transcript %s: %w", args[0], err)
			}

			if outputPath == "" || outputPath == "-" {
				return transcript.Export(app.outWriter(), format, records, app.now())
			}

			out, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", outputPath, err)
			}
			if err := transcript.Export(out, format, records, app.now()); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("close %s: %w", outputPath, err)
			}

			fmt.Fprintf(app.outWriter(), "Exported %d transcription(s) to %s\n", len(records), outputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&formatName, "format", "txt", "Output format: txt|json|csv")
	cmd.Flags().StringVar(&outputPath, "output", "", "Output file (default: stdout)")

	return cmd
}
