package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/johnhika/dictate/internal/fetch"
	"github.com/johnhika/dictate/internal/provider"
	"github.com/johnhika/dictate/internal/transcript"
)

func newTranscribeCmd(app *appState) *cobra.Command {
	var (
		copyResult bool
		sha256Sum  string
	)

	cmd := &cobra.Command{
		Use:   "transcribe <file-or-url>",
		Short: "Recognize a single audio file or URL and print the text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]

			audioPath := source
			recordSource := transcript.SourceFile
			if fetch.IsURL(source) {
				downloaded, err := fetch.AudioFile(cmd.Context(), fetch.Options{
					URL:            source,
					ExpectedSHA256: sha256Sum,
					NoProgress:     !app.progressEnabled(),
					Logger:         app.log(),
				})
				if err != nil {
					return err
				}
				defer os.Remove(downloaded)
				audioPath = downloaded
				recordSource = transcript.SourceURL
			}

			rec, err := app.recognizeFn(cmd.Context(), audioPath, recordSource)
			if err != nil {
				if hint := provider.Hint(err); hint != "" {
					return fmt.Errorf("%w\n%s", err, hint)
				}
				return err
			}

			fmt.Fprintln(app.outWriter(), rec.Text)

			if copyResult {
				if err := app.copyFn(cmd.Context(), rec.Text); err != nil {
					return fmt.Errorf("copy transcript: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&copyResult, "copy", false, "Copy the recognized text to the clipboard")
	cmd.Flags().StringVar(&sha256Sum, "sha256", "", "Expected SHA-256 of the downloaded audio (URLs only)")

	return cmd
}
