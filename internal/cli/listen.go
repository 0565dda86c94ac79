package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/johnhika/dictate/internal/language"
	"github.com/johnhika/dictate/internal/platform"
	"github.com/johnhika/dictate/internal/provider"
	"github.com/johnhika/dictate/internal/record"
	"github.com/johnhika/dictate/internal/transcript"
)

// sessionCommand is a keystroke issued while the listen loop runs.
type sessionCommand int

const (
	commandNone sessionCommand = iota
	commandPause
	commandResume
	commandQuit
)

func parseSessionCommand(line string) sessionCommand {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "p", "pause":
		return commandPause
	case "r", "resume":
		return commandResume
	case "q", "quit", "exit":
		return commandQuit
	default:
		return commandNone
	}
}

func newListenCmd(app *appState) *cobra.Command {
	var (
		listDevices bool
		copyLast    bool
	)

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Continuously record microphone audio and recognize it chunk by chunk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listDevices {
				return app.printDevices(cmd.Context())
			}
			if err := app.runListenLoop(cmd.Context()); err != nil {
				return err
			}
			if copyLast {
				return app.copyLastTranscript(cmd.Context())
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&app.chunkLength, "chunk-length", app.chunkLength, "Length of each recorded audio chunk")
	cmd.Flags().BoolVar(&listDevices, "list-devices", false, "List capture devices for the selected backend and exit")
	cmd.Flags().BoolVar(&copyLast, "copy", false, "Copy the last recognized text to the clipboard on exit")

	return cmd
}

func (a *appState) printDevices(ctx context.Context) error {
	backend, err := record.NewBackend(a.backend)
	if err != nil {
		return err
	}
	listing, err := backend.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("list devices with %s: %w", backend.Name(), err)
	}
	fmt.Fprintln(a.outWriter(), listing)
	return nil
}

// runListenLoop records fixed-length chunks and recognizes each one until
// the user quits. Keyboard commands while listening: p pause, r resume,
// q quit (each followed by Enter). Input comes from the session-wide line
// reader, so leftover input stays with the menu when the loop exits.
func (a *appState) runListenLoop(ctx context.Context) error {
	if a.chunkLength < time.Second {
		return fmt.Errorf("chunk length %s is too short (minimum 1s)", a.chunkLength)
	}

	p := a.currentProvider()
	fmt.Fprintf(a.outWriter(), "Listening with %s (%s). Commands: p=pause, r=resume, q=quit (press Enter after each).\n",
		p.DisplayName(), language.DisplayName(a.languageTag))

	lines := a.lineChannel()
	paused := false
	for {
		// commands take effect between chunks
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				// input exhausted; only ctx or an error stops the loop now
				lines = nil
				continue
			}
			switch parseSessionCommand(line) {
			case commandQuit:
				a.printListenSummary()
				return nil
			case commandPause:
				if !paused {
					paused = true
					fmt.Fprintln(a.outWriter(), "Paused. Press r to resume.")
				}
			case commandResume:
				if paused {
					paused = false
					fmt.Fprintln(a.outWriter(), "Resumed.")
				}
			}
			continue
		default:
		}

		if paused {
			// Nothing to record; block until the next command.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case line, ok := <-lines:
				if !ok {
					a.printListenSummary()
					return nil
				}
				switch parseSessionCommand(line) {
				case commandQuit:
					a.printListenSummary()
					return nil
				case commandResume:
					paused = false
					fmt.Fprintln(a.outWriter(), "Resumed.")
				}
			}
			continue
		}

		chunkPath, err := a.recordChunkFn(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			return fmt.Errorf("record audio: %w", err)
		}

		rec, err := a.recognizeFn(ctx, chunkPath, transcript.SourceLive)
		_ = os.Remove(chunkPath)
		switch {
		case err == nil:
			fmt.Fprintf(a.outWriter(), "» %s\n", rec.Text)
		case errors.Is(err, provider.ErrUnintelligible):
			a.log().Debug("chunk produced no speech")
		case errors.Is(err, provider.ErrNotConfigured):
			a.reportRecognitionError(err)
			return err
		default:
			a.reportRecognitionError(err)
		}
	}
}

func (a *appState) printListenSummary() {
	fmt.Fprintf(a.outWriter(), "Stopped listening. %d transcription(s) this session.\n", a.session.Len())
}

// recordChunk captures one fixed-length chunk with the configured backend.
func (a *appState) recordChunk(ctx context.Context) (string, error) {
	backend, err := record.NewBackend(a.backend)
	if err != nil {
		return "", err
	}

	dir, err := platform.ResolveRecordingDir()
	if err != nil {
		return "", err
	}

	stop := startRecordingProgress(a.progressEnabled(), "Listening", a.chunkLength)
	defer stop()

	return record.Chunk(ctx, backend, dir, a.chunkLength, record.Config{
		SampleRate: 16000,
		Channels:   1,
		Input:      a.input,
		Format:     a.inputFormat,
		Logger:     a.log(),
	})
}

func (a *appState) copyLastTranscript(ctx context.Context) error {
	records := a.session.Records()
	if len(records) == 0 {
		return nil
	}
	last := records[len(records)-1]
	if err := a.copyFn(ctx, last.Text); err != nil {
		return fmt.Errorf("copy transcript: %w", err)
	}
	a.log().Info("copied last transcript to clipboard", zap.Int("chars", len(last.Text)))
	return nil
}
