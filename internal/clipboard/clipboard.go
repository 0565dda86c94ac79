// Package clipboard puts recognized text on the system clipboard through
// whichever clipboard command the machine has.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

var ErrUnavailable = errors.New("no clipboard command available")

const copyTimeout = 4 * time.Second

// candidate is one clipboard tool. detached marks tools that must outlive
// the process to keep holding the selection.
type candidate struct {
	name     string
	args     []string
	detached bool
}

// candidatesFor lists the tools tried on this OS, in preference order.
func candidatesFor(goos string) []candidate {
	if goos == "darwin" {
		return []candidate{{name: "pbcopy"}}
	}
	return []candidate{
		{name: "wl-copy"},
		{name: "xclip", args: []string{"-selection", "clipboard", "-in", "-silent"}, detached: true},
	}
}

// CopyText writes value to the clipboard, or ErrUnavailable when no
// clipboard tool is installed.
func CopyText(ctx context.Context, value string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	for _, tool := range candidatesFor(runtime.GOOS) {
		if _, err := exec.LookPath(tool.name); err != nil {
			continue
		}
		if tool.detached {
			return copyDetached(tool, value)
		}
		return copyAndWait(ctx, tool, value)
	}

	return ErrUnavailable
}

func copyAndWait(ctx context.Context, tool candidate, value string) error {
	ctx, cancel := context.WithTimeout(ctx, copyTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, tool.name, tool.args...)
	cmd.Stdin = strings.NewReader(value)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("copy to clipboard timed out: %w", ctx.Err())
		}
		return fmt.Errorf("copy to clipboard with %s: %w", tool.name, err)
	}
	return nil
}

// copyDetached starts the tool and leaves it running; xclip serves the
// selection for as long as it lives, so waiting on it would hang.
func copyDetached(tool candidate, value string) error {
	cmd := exec.Command(tool.name, tool.args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open clipboard stdin: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		return fmt.Errorf("start %s: %w", tool.name, err)
	}

	if _, err := io.WriteString(stdin, value); err != nil {
		stdin.Close()
		_ = cmd.Process.Kill()
		return fmt.Errorf("write clipboard data: %w", err)
	}
	if err := stdin.Close(); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("close clipboard stdin: %w", err)
	}

	_ = cmd.Process.Release()
	return nil
}
