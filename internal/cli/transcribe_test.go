package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johnhika/dictate/internal/transcript"
)

func TestTranscribeCommandRecognizesFile(t *testing.T) {
	t.Parallel()

	cmd, app, out := newTestApp(t)
	path := writeLoudWAV(t, t.TempDir())

	app.recognizeFn = func(_ context.Context, audioPath, source string) (transcript.Record, error) {
		require.Equal(t, path, audioPath)
		require.Equal(t, transcript.SourceFile, source)
		return transcript.Record{Text: "from file"}, nil
	}

	cmd.SetArgs([]string{"transcribe", path})
	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "from file")
}

func TestTranscribeCommandDownloadsURL(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("remote audio"))
	}))
	defer server.Close()

	cmd, app, out := newTestApp(t)

	var recognizedPath string
	app.recognizeFn = func(_ context.Context, audioPath, source string) (transcript.Record, error) {
		require.Equal(t, transcript.SourceURL, source)
		recognizedPath = audioPath
		return transcript.Record{Text: "from url"}, nil
	}

	cmd.SetArgs([]string{"transcribe", server.URL + "/clip.wav"})
	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "from url")
	require.NotEmpty(t, recognizedPath)
	// the downloaded temp file is cleaned up afterwards
	require.NoFileExists(t, recognizedPath)
}

func TestTranscribeCommandCopiesResult(t *testing.T) {
	t.Parallel()

	cmd, app, _ := newTestApp(t)
	path := writeLoudWAV(t, t.TempDir())

	app.recognizeFn = func(context.Context, string, string) (transcript.Record, error) {
		return transcript.Record{Text: "copy me"}, nil
	}

	var copied string
	app.copyFn = func(_ context.Context, value string) error {
		copied = value
		return nil
	}

	cmd.SetArgs([]string{"transcribe", path, "--copy"})
	require.NoError(t, cmd.Execute())
	require.Equal(t, "copy me", copied)
}

func TestTranscribeCommandRequiresArgument(t *testing.T) {
	t.Parallel()

	_, err := runCommand(t, []string{"transcribe"})
	require.Error(t, err)
}
