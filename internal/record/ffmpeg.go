package record

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ffmpegBackend captures via ffmpeg with a platform input format:
// "pulse"/"alsa" on Linux, "avfoundation" on macOS.
type ffmpegBackend struct {
	inputFormat string
}

func newFFMPEGBackend(inputFormat string) Backend {
	return &ffmpegBackend{inputFormat: inputFormat}
}

func (b *ffmpegBackend) Name() string {
	return "ffmpeg"
}

func (b *ffmpegBackend) Available() bool {
	return commandAvailable("ffmpeg")
}

func (b *ffmpegBackend) Record(ctx context.Context, cfg Config) error {
	if cfg.OutputPath == "" {
		return errors.New("output path is required")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o755); err != nil {
		return err
	}

	format := b.inputFormat
	if cfg.Format != "" {
		format = cfg.Format
	}

	input := cfg.Input
	if input == "" {
		switch format {
		case "avfoundation":
			input = ":0"
		default:
			input = "default"
		}
	}

	args := []string{"-nostdin", "-hide_banner", "-loglevel", "error", "-y", "-f", format, "-i", input}
	if cfg.Duration > 0 {
		args = append(args, "-t", strconv.Itoa(int(cfg.Duration/time.Second)))
	}
	args = append(args,
		"-ac", strconv.Itoa(defaultChannels(cfg.Channels)),
		"-ar", strconv.Itoa(defaultSampleRate(cfg.SampleRate)),
		"-c:a", "pcm_s16le",
		cfg.OutputPath,
	)

	var cmd *exec.Cmd
	if cfg.Duration > 0 && !cfg.Interactive {
		cmd = exec.Command("ffmpeg", args...)
	} else {
		cmd = exec.CommandContext(ctx, "ffmpeg", args...)
	}
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if cfg.Interactive {
		return runInteractiveCommand(ctx, cmd, cfg.Logger)
	}

	if cfg.Duration > 0 {
		return runTimedCommand(ctx, cmd, cfg.Duration+time.Second, cfg.Logger)
	}

	return cmd.Run()
}

func (b *ffmpegBackend) ListDevices(ctx context.Context) (string, error) {
	var cmd *exec.Cmd
	if b.inputFormat == "avfoundation" {
		cmd = exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-f", "avfoundation", "-list_devices", "true", "-i", "")
	} else {
		cmd = exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-sources", b.inputFormat)
	}

	out, _ := cmd.CombinedOutput()
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return "", fmt.Errorf("ffmpeg returned no device output")
	}
	return trimmed, nil
}
