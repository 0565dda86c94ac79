package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/johnhika/dictate/internal/audio"
	"github.com/johnhika/dictate/internal/clipboard"
	"github.com/johnhika/dictate/internal/config"
	"github.com/johnhika/dictate/internal/language"
	"github.com/johnhika/dictate/internal/logging"
	"github.com/johnhika/dictate/internal/platform"
	"github.com/johnhika/dictate/internal/provider"
	"github.com/johnhika/dictate/internal/transcript"
	"github.com/johnhika/dictate/internal/version"
)

type appState struct {
	configPath   string
	providerName string
	languageTag  string
	verbose      bool
	jsonLogs     bool
	noProgress   bool
	backend      string
	input        string
	inputFormat  string
	exportDir    string
	chunkLength  time.Duration
	silenceGate  bool
	silenceDBFS  float64

	cfg      *config.Config
	registry *provider.Registry
	session  *transcript.Log
	logger   *zap.Logger
	now      func() time.Time
	out      io.Writer
	in       io.Reader

	// one reader owns stdin for the whole session; see lineChannel
	lines     chan string
	linesOnce sync.Once

	// injectable for tests
	recognizeFn   func(ctx context.Context, audioPath, source string) (transcript.Record, error)
	recordChunkFn func(ctx context.Context) (string, error)
	copyFn        func(ctx context.Context, value string) error
	saveConfigFn  func() error
}

func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *appState) {
	app := &appState{
		chunkLength: 5 * time.Second,
		silenceGate: true,
		silenceDBFS: -65,
		registry:    provider.NewRegistry(nil),
		session:     transcript.NewLog(),
		now:         time.Now,
		out:         os.Stdout,
		in:          os.Stdin,
	}
	app.recognizeFn = app.recognizeFile
	app.recordChunkFn = app.recordChunk
	app.copyFn = clipboard.CopyText
	app.saveConfigFn = app.saveConfig

	cmd := &cobra.Command{
		Use:           "dictate",
		Short:         "Turn speech into text with cloud recognition services",
		Long:          "dictate records or accepts audio, sends it to a speech-to-text service,\nand collects the recognized text for viewing and export.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			logger, err := logging.New(logging.Options{Verbose: app.verbose, JSON: app.jsonLogs})
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			app.logger = logger
			return app.loadConfig()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runMenu(cmd.Context())
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	bindLoggingFlags(cmd, app)
	bindProgressFlag(cmd, app)
	bindConfigFlag(cmd, app)
	bindSelectionFlags(cmd, app)
	bindRecordingFlags(cmd, app)
	bindSilenceFlags(cmd, app)

	cmd.AddCommand(newListenCmd(app))
	cmd.AddCommand(newTranscribeCmd(app))
	cmd.AddCommand(newProvidersCmd(app))
	cmd.AddCommand(newLanguagesCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newSetupCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd, app
}

func bindLoggingFlags(cmd *cobra.Command, app *appState) {
	cmd.PersistentFlags().BoolVar(&app.verbose, "verbose", app.verbose, "Enable verbose logs")
	cmd.PersistentFlags().BoolVar(&app.jsonLogs, "json-logs", app.jsonLogs, "Enable JSON logging")
}

func bindProgressFlag(cmd *cobra.Command, app *appState) {
	cmd.PersistentFlags().BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable progress indicators")
}

func bindConfigFlag(cmd *cobra.Command, app *appState) {
	cmd.PersistentFlags().StringVar(&app.configPath, "config", app.configPath, "Config file path (default: per-OS config directory)")
	cmd.PersistentFlags().StringVar(&app.exportDir, "export-dir", app.exportDir, "Directory for saved transcripts (default: per-OS data directory)")
}

func bindSelectionFlags(cmd *cobra.Command, app *appState) {
	cmd.PersistentFlags().StringVar(&app.providerName, "provider", app.providerName, "Recognition service (google|google_cloud|wit|azure|bing|whisper)")
	cmd.PersistentFlags().StringVar(&app.languageTag, "language", app.languageTag, "Language tag, e.g. en-US (run \"dictate languages\" to list)")
}

func bindRecordingFlags(cmd *cobra.Command, app *appState) {
	cmd.PersistentFlags().StringVar(&app.backend, "backend", "auto", "Recording backend: auto|pw-record|arecord|ffmpeg")
	cmd.PersistentFlags().StringVar(&app.input, "input", app.input, "Input device (run \"dictate listen --list-devices\" to list)")
	cmd.PersistentFlags().StringVar(&app.inputFormat, "input-format", app.inputFormat, "Input format for the ffmpeg backend (pulse|alsa)")
}

func bindSilenceFlags(cmd *cobra.Command, app *appState) {
	cmd.PersistentFlags().BoolVar(&app.silenceGate, "silence-gate", app.silenceGate, "Skip recognition for near-silent audio chunks")
	cmd.PersistentFlags().Float64Var(&app.silenceDBFS, "silence-threshold-dbfs", app.silenceDBFS, "Silence gate threshold in dBFS")
}

// loadConfig reads the config file and applies flag overrides for the
// current run. Overrides are not written back unless a command saves.
func (a *appState) loadConfig() error {
	path, err := platform.ResolveConfigFile(a.configPath)
	if err != nil {
		return err
	}
	a.configPath = path

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.providerName == "" {
		a.providerName = cfg.DefaultProvider
	}
	if a.languageTag == "" {
		a.languageTag = cfg.DefaultLanguage
	}
	a.languageTag = language.Normalize(a.languageTag)

	if a.registry.Get(a.providerName) == nil {
		return fmt.Errorf("unknown provider %q (run \"dictate providers\" to list)", a.providerName)
	}
	return nil
}

func (a *appState) saveConfig() error {
	return a.cfg.Save(a.configPath)
}

func (a *appState) currentProvider() provider.Provider {
	return a.registry.Get(a.providerName)
}

// recognizeFile runs one audio file through the selected provider and
// appends the result to the session log.
func (a *appState) recognizeFile(ctx context.Context, audioPath, source string) (transcript.Record, error) {
	audioPath = filepath.Clean(audioPath)
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return transcript.Record{}, fmt.Errorf("read audio file: %w", err)
	}

	info, err := audio.InspectBytes(data)
	if err != nil {
		return transcript.Record{}, fmt.Errorf("inspect audio: %w", err)
	}

	if a.silenceGate && info.IsSilent(a.silenceDBFS) {
		a.log().Info(
			"audio considered silent; skipping recognition",
			zap.String("audio", audioPath),
			zap.Float64("rms_dbfs", info.RMSdBFS),
			zap.Float64("threshold_dbfs", a.silenceDBFS),
		)
		return transcript.Record{}, provider.ErrUnintelligible
	}

	p := a.currentProvider()
	apiKey := a.cfg.APIKey(p.Name())
	if p.RequiresKey() && apiKey == "" {
		return transcript.Record{}, fmt.Errorf("%s: %w", p.Name(), provider.ErrNotConfigured)
	}

	a.log().Debug("recognizing audio",
		zap.String("provider", p.Name()),
		zap.String("language", a.languageTag),
		zap.Duration("audio_duration", info.Duration),
	)

	stopSpinner := startSpinner(a.progressEnabled(), "Recognizing")
	started := time.Now()
	result, err := p.Recognize(ctx, provider.Request{
		Audio:    data,
		Info:     info,
		Language: a.languageTag,
		APIKey:   apiKey,
	})
	stopSpinner()
	if err != nil {
		a.log().Debug("recognition failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return transcript.Record{}, err
	}
	a.log().Debug("recognition finished", zap.Duration("elapsed", time.Since(started)))

	rec := a.session.Append(transcript.Record{
		Text:     result.Text,
		Provider: p.Name(),
		Language: a.languageTag,
		Source:   source,
	})
	return rec, nil
}

// reportRecognitionError prints the failure and an actionable hint; the
// session keeps running.
func (a *appState) reportRecognitionError(err error) {
	fmt.Fprintf(a.outWriter(), "Recognition failed: %v\n", err)
	if hint := provider.Hint(err); hint != "" {
		fmt.Fprintln(a.outWriter(), hint)
	}
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func (a *appState) outWriter() io.Writer {
	if a.out == nil {
		return os.Stdout
	}
	return a.out
}

func (a *appState) exportDirectory() (string, error) {
	return platform.ResolveExportDir(a.exportDir)
}
