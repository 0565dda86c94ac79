// Package record captures microphone audio by shelling out to whichever
// capture tool the host has (pw-record, arecord, or ffmpeg). The live
// session records fixed-length WAV chunks; one-shot recording supports
// interactive press-Enter-to-stop capture.
package record

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"
)

var (
	ErrInteractiveRequiresTTY = errors.New("interactive recording requires terminal input")
	ErrNoBackendAvailable     = errors.New("no recording backend available")
)

// Config describes one capture. Duration > 0 records a timed chunk;
// Interactive waits for Enter to stop.
type Config struct {
	OutputPath  string
	Duration    time.Duration
	Interactive bool
	SampleRate  int
	Channels    int
	Input       string
	Format      string
	Logger      *zap.Logger
}

type Backend interface {
	Name() string
	Available() bool
	Record(ctx context.Context, cfg Config) error
	ListDevices(ctx context.Context) (string, error)
}

// DefaultBackends returns the capture tools tried on this OS, in
// preference order.
func DefaultBackends(goos string) []Backend {
	switch goos {
	case "linux":
		return []Backend{newPipeWireBackend(), newALSABackend(), newFFMPEGBackend("pulse")}
	case "darwin":
		return []Backend{newFFMPEGBackend("avfoundation")}
	default:
		return nil
	}
}

// SelectBackend picks the preferred backend by name, or the first
// available one when preferred is empty or "auto".
func SelectBackend(backends []Backend, preferred string) (Backend, error) {
	if len(backends) == 0 {
		return nil, errors.New("no backends configured")
	}

	if preferred != "" && preferred != "auto" {
		for _, backend := range backends {
			if backend.Name() == preferred {
				if !backend.Available() {
					return nil, fmt.Errorf("requested backend %q is not available", preferred)
				}
				return backend, nil
			}
		}
		return nil, fmt.Errorf("unknown backend %q", preferred)
	}

	for _, backend := range backends {
		if backend.Available() {
			return backend, nil
		}
	}

	return nil, ErrNoBackendAvailable
}

// NewBackend resolves a backend for the current OS.
func NewBackend(preferred string) (Backend, error) {
	backends := DefaultBackends(runtime.GOOS)
	if len(backends) == 0 {
		return nil, fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
	return SelectBackend(backends, preferred)
}

// Chunk records one fixed-length WAV chunk into dir and returns its path.
// This is the unit the live session feeds to a provider.
func Chunk(ctx context.Context, backend Backend, dir string, duration time.Duration, cfg Config) (string, error) {
	if duration <= 0 {
		return "", errors.New("chunk duration must be positive")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create recording directory %s: %w", dir, err)
	}

	cfg.OutputPath = filepath.Join(dir, fmt.Sprintf("chunk-%s.wav", time.Now().Format("20060102-150405.000")))
	cfg.Duration = duration
	cfg.Interactive = false

	if err := backend.Record(ctx, cfg); err != nil {
		if cleanupErr := removePartial(cfg.OutputPath); cleanupErr != nil && cfg.Logger != nil {
			cfg.Logger.Warn("failed to remove partial chunk", zap.String("path", cfg.OutputPath), zap.Error(cleanupErr))
		}
		return "", fmt.Errorf("record chunk with backend %s: %w", backend.Name(), err)
	}

	return cfg.OutputPath, nil
}

func removePartial(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// WaitForEnter blocks until the user presses Enter. Used before one-shot
// interactive recordings.
func WaitForEnter(in io.Reader, out io.Writer, message string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ErrInteractiveRequiresTTY
	}

	if message != "" {
		if _, err := fmt.Fprintln(out, message); err != nil {
			return err
		}
	}

	reader := bufio.NewReader(in)
	_, err := reader.ReadString('\n')
	return err
}

func runInteractiveCommand(ctx context.Context, cmd *exec.Cmd, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	if err := WaitForEnter(os.Stdin, os.Stderr, "Recording... press Enter to stop."); err != nil {
		_ = cmd.Process.Signal(os.Interrupt)
		_ = cmd.Wait()
		return err
	}

	stopSignalSent := cmd.Process.Signal(os.Interrupt) == nil
	err := cmd.Wait()
	if err == nil {
		return nil
	}

	if stopSignalSent {
		logger.Debug("recording process exited after stop signal", zap.Error(err))
		return nil
	}

	if exitedBySignal(err) {
		logger.Debug("recording process stopped by signal")
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return err
	}
}

func runTimedCommand(ctx context.Context, cmd *exec.Cmd, duration time.Duration, logger *zap.Logger) error {
	if duration <= 0 {
		return cmd.Run()
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		stopSignalSent := cmd.Process.Signal(os.Interrupt) == nil
		err := <-done
		if err == nil {
			return nil
		}
		if stopSignalSent {
			logger.Debug("recording process exited after timed stop signal", zap.Error(err))
			return nil
		}
		if exitedBySignal(err) {
			logger.Debug("recording process stopped by signal")
			return nil
		}
		return err
	case <-ctx.Done():
		_ = cmd.Process.Signal(os.Interrupt)
		<-done
		return ctx.Err()
	}
}

func exitedBySignal(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	return ok && status.Signaled()
}

func commandAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func commandOutput(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	trimmed := strings.TrimSpace(string(out))
	if err != nil {
		if trimmed != "" {
			return "", fmt.Errorf("%s %s failed: %w (%s)", name, strings.Join(args, " "), err, trimmed)
		}
		return "", fmt.Errorf("%s %s failed: %w", name, strings.Join(args, " "), err)
	}
	return trimmed, nil
}

func defaultSampleRate(rate int) int {
	if rate <= 0 {
		return 16000
	}
	return rate
}

func defaultChannels(channels int) int {
	if channels <= 0 {
		return 1
	}
	return channels
}
