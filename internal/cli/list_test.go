package cli

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johnhika/dictate/internal/config"
)

func TestProvidersCommandListsAllServices(t *testing.T) {
	t.Parallel()

	out, err := runCommand(t, []string{"providers"})
	require.NoError(t, err)
	require.Contains(t, out, "google")
	require.Contains(t, out, "google_cloud")
	require.Contains(t, out, "wit")
	require.Contains(t, out, "azure")
	require.Contains(t, out, "bing")
	require.Contains(t, out, "whisper")
	require.Contains(t, out, "no key needed")
	require.Contains(t, out, "key missing")
}

func TestProvidersCommandShowsConfiguredKeys(t *testing.T) {
	t.Parallel()

	cmd, app, out := newTestApp(t)

	cfg := config.Default()
	cfg.SetAPIKey("wit", "token")
	require.NoError(t, cfg.Save(app.configPath))

	cmd.SetArgs([]string{"providers"})
	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "key configured")
}

func TestLanguagesCommandListsSupportedTags(t *testing.T) {
	t.Parallel()

	out, err := runCommand(t, []string{"languages"})
	require.NoError(t, err)
	require.Contains(t, out, "en-US")
	require.Contains(t, out, "ar-SA")
	require.Contains(t, out, "Japanese")
	// the active language is marked
	require.Contains(t, out, "* en-US")
}

func TestVersionCommandPrintsVersion(t *testing.T) {
	t.Parallel()

	out, err := runCommand(t, []string{"version"})
	require.NoError(t, err)
	require.Contains(t, out, "dictate v")
}
