package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/johnhika/dictate/internal/language"
)

// newSetupCmd stores an API key for a provider, or updates the default
// provider and language. Keys are prompted for without echo when stdin is
// a terminal; --key and piped stdin skip the prompt.
func newSetupCmd(app *appState) *cobra.Command {
	var (
		apiKey          string
		removeKey       bool
		defaultProvider string
		defaultLanguage string
	)

	cmd := &cobra.Command{
		Use:   "setup [provider]",
		Short: "Store an API key or change the configured defaults",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			changed := false

			if len(args) == 1 {
				name := strings.ToLower(strings.TrimSpace(args[0]))
				p := app.registry.Get(name)
				if p == nil {
					return fmt.Errorf("unknown provider %q (run \"dictate providers\" to list)", name)
				}
				if !p.RequiresKey() && !removeKey {
					return fmt.Errorf("%s does not use an API key", p.DisplayName())
				}

				switch {
				case removeKey:
					app.cfg.SetAPIKey(name, "")
					fmt.Fprintf(app.outWriter(), "Removed API key for %s.\n", p.DisplayName())
				default:
					key := apiKey
					if key == "" {
						var err error
						key, err = readSecret(app, fmt.Sprintf("API key for %s: ", p.DisplayName()))
						if err != nil {
							return err
						}
					}
					if strings.TrimSpace(key) == "" {
						return fmt.Errorf("empty API key for %s", name)
					}
					app.cfg.SetAPIKey(name, strings.TrimSpace(key))
					fmt.Fprintf(app.outWriter(), "Stored API key for %s.\n", p.DisplayName())
				}
				changed = true
			}

			if defaultProvider != "" {
				name := strings.ToLower(strings.TrimSpace(defaultProvider))
				if app.registry.Get(name) == nil {
					return fmt.Errorf("unknown provider %q (run \"dictate providers\" to list)", name)
				}
				app.cfg.DefaultProvider = name
				changed = true
			}

			if defaultLanguage != "" {
				tag := language.Normalize(defaultLanguage)
				if !language.IsSupported(tag) {
					return fmt.Errorf("unsupported language %q (run \"dictate languages\" to list)", defaultLanguage)
				}
				app.cfg.DefaultLanguage = tag
				changed = true
			}

			if !changed {
				return fmt.Errorf("nothing to do: pass a provider, --default-provider, or --default-language")
			}

			if err := app.saveConfigFn(); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Fprintf(app.outWriter(), "Config saved to %s\n", app.configPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "key", "", "API key value (omit to be prompted)")
	cmd.Flags().BoolVar(&removeKey, "remove", false, "Remove the stored API key for the provider")
	cmd.Flags().StringVar(&defaultProvider, "default-provider", "", "Set the default recognition service")
	cmd.Flags().StringVar(&defaultLanguage, "default-language", "", "Set the default language tag")

	return cmd
}

func readSecret(app *appState, prompt string) (string, error) {
	fmt.Fprint(app.outWriter(), prompt)

	if f, ok := app.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		key, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(app.outWriter())
		if err != nil {
			return "", fmt.Errorf("read API key: %w", err)
		}
		return string(key), nil
	}

	scanner := bufio.NewScanner(app.in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read API key: %w", err)
		}
		return "", fmt.Errorf("no API key provided")
	}
	return scanner.Text(), nil
}
