package cli

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// newTestApp builds the root command with output captured, stdin empty,
// progress off, and the config file pointed at a temp directory.
func newTestApp(t *testing.T) (*cobra.Command, *appState, *bytes.Buffer) {
	t.Helper()

	cmd, app := newRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	app.out = out
	app.in = strings.NewReader("")
	app.noProgress = true
	app.configPath = filepath.Join(t.TempDir(), "config.json")
	app.exportDir = t.TempDir()
	return cmd, app, out
}

func runCommand(t *testing.T, args []string) (string, error) {
	t.Helper()

	cmd, _, out := newTestApp(t)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func makePCM16WAVForTest(samples []int16, sampleRate, channels int) []byte {
	bytesPerSample := 2
	dataSize := len(samples) * bytesPerSample
	fmtChunkSize := 16
	riffSize := 4 + (8 + fmtChunkSize) + (8 + dataSize)

	out := make([]byte, 12+8+fmtChunkSize+8+dataSize)
	off := 0

	copy(out[off:], []byte("RIFF"))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(riffSize))
	off += 4
	copy(out[off:], []byte("WAVE"))
	off += 4

	copy(out[off:], []byte("fmt "))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(fmtChunkSize))
	off += 4
	binary.LittleEndian.PutUint16(out[off:], 1)
	off += 2
	binary.LittleEndian.PutUint16(out[off:], uint16(channels))
	off += 2
	binary.LittleEndian.PutUint32(out[off:], uint32(sampleRate))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(sampleRate*channels*bytesPerSample))
	off += 4
	binary.LittleEndian.PutUint16(out[off:], uint16(channels*bytesPerSample))
	off += 2
	binary.LittleEndian.PutUint16(out[off:], 16)
	off += 2

	copy(out[off:], []byte("data"))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(dataSize))
	off += 4

	for _, s := range samples {
		binary.LittleEndian.PutUint16(out[off:], uint16(s))
		off += 2
	}

	return out
}

// writeLoudWAV writes a WAV with audible content, loud enough to pass the
// silence gate.
func writeLoudWAV(t *testing.T, dir string) string {
	t.Helper()

	samples := make([]int16, 1600)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 12000
		} else {
			samples[i] = -12000
		}
	}

	path := filepath.Join(dir, "audio.wav")
	require.NoError(t, os.WriteFile(path, makePCM16WAVForTest(samples, 16000, 1), 0o644))
	return path
}
