package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johnhika/dictate/internal/language"
)

func newProvidersCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List recognition services and their configuration state",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			out := app.outWriter()
			for _, p := range app.registry.All() {
				marker := " "
				if p.Name() == app.providerName {
					marker = "*"
				}
				keyState := "no key needed"
				if p.RequiresKey() {
					keyState = "key missing"
					if app.cfg.APIKey(p.Name()) != "" {
						keyState = "key configured"
					}
				}
				fmt.Fprintf(out, "%s %-14s %s (%s)\n", marker, p.Name(), p.DisplayName(), keyState)
			}
			return nil
		},
	}
}

func newLanguagesCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported recognition languages",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			out := app.outWriter()
			for _, lang := range language.Supported {
				marker := " "
				if lang.Tag == app.languageTag {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-6s %s\n", marker, lang.Tag, lang.Name)
			}
			return nil
		},
	}
}
