package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/johnhika/dictate/internal/language"
	"github.com/johnhika/dictate/internal/transcript"
)

// lineChannel hands out the session-wide input reader. The menu and the
// listen loop consume from the same channel, so a finished listen loop can
// never hold on to a line meant for the menu. The channel closes when
// input runs out.
func (a *appState) lineChannel() <-chan string {
	a.linesOnce.Do(func() {
		a.lines = make(chan string)
		go func() {
			defer close(a.lines)
			scanner := bufio.NewScanner(a.in)
			for scanner.Scan() {
				a.lines <- scanner.Text()
			}
		}()
	})
	return a.lines
}

// readLine prints the prompt and returns the next input line, io.EOF once
// input is exhausted.
func (a *appState) readLine(prompt string) (string, error) {
	fmt.Fprint(a.outWriter(), prompt)
	line, ok := <-a.lineChannel()
	if !ok {
		return "", io.EOF
	}
	return line, nil
}

// runMenu is the default interactive session: a numbered menu looping
// until the user exits or input runs out.
func (a *appState) runMenu(ctx context.Context) error {
	out := a.outWriter()

	fmt.Fprintln(out, "dictate: speech to text")
	for {
		a.printMenu()

		choice, err := a.readLine("> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch strings.TrimSpace(choice) {
		case "1":
			if err := a.runListenLoop(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.reportRecognitionError(err)
			}
		case "2":
			a.menuSelectProvider()
		case "3":
			a.menuSelectLanguage()
		case "4":
			a.menuViewTranscript()
		case "5":
			a.menuSaveTranscript()
		case "6":
			fmt.Fprintf(out, "Cleared %d transcription(s).\n", a.session.Clear())
		case "7":
			a.menuSettings()
		case "8":
			a.printHelp()
		case "0", "q", "exit":
			fmt.Fprintln(out, "Bye.")
			return nil
		default:
			fmt.Fprintln(out, "Unknown option.")
		}
	}
}

func (a *appState) printMenu() {
	out := a.outWriter()
	fmt.Fprintf(out, "\nProvider: %s | Language: %s | Transcriptions: %d\n",
		a.currentProvider().DisplayName(), language.DisplayName(a.languageTag), a.session.Len())
	fmt.Fprintln(out, " 1) Start listening")
	fmt.Fprintln(out, " 2) Select provider")
	fmt.Fprintln(out, " 3) Select language")
	fmt.Fprintln(out, " 4) View transcript")
	fmt.Fprintln(out, " 5) Save transcript")
	fmt.Fprintln(out, " 6) Clear transcript")
	fmt.Fprintln(out, " 7) Settings")
	fmt.Fprintln(out, " 8) Help")
	fmt.Fprintln(out, " 0) Exit")
}

func (a *appState) menuSelectProvider() {
	out := a.outWriter()
	providers := a.registry.All()
	for i, p := range providers {
		marker := " "
		if p.Name() == a.providerName {
			marker = "*"
		}
		keyState := "no key needed"
		if p.RequiresKey() {
			keyState = "key missing"
			if a.cfg.APIKey(p.Name()) != "" {
				keyState = "key configured"
			}
		}
		fmt.Fprintf(out, "%s %d) %s (%s)\n", marker, i+1, p.DisplayName(), keyState)
	}

	choice, err := a.readLine("Provider number: ")
	if err != nil {
		return
	}
	index, err := strconv.Atoi(strings.TrimSpace(choice))
	if err != nil || index < 1 || index > len(providers) {
		fmt.Fprintln(out, "Invalid choice, keeping current provider.")
		return
	}

	selected := providers[index-1]
	if selected.RequiresKey() && a.cfg.APIKey(selected.Name()) == "" {
		fmt.Fprintf(out, "%s needs an API key; run \"dictate setup %s\" first. Keeping current provider.\n",
			selected.DisplayName(), selected.Name())
		return
	}
	a.providerName = selected.Name()
	fmt.Fprintf(out, "Provider set to %s.\n", selected.DisplayName())
}

func (a *appState) menuSelectLanguage() {
	out := a.outWriter()
	for i, lang := range language.Supported {
		marker := " "
		if lang.Tag == a.languageTag {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %2d) %s (%s)\n", marker, i+1, lang.Name, lang.Tag)
	}

	choice, err := a.readLine("Language number: ")
	if err != nil {
		return
	}
	index, err := strconv.Atoi(strings.TrimSpace(choice))
	if err != nil || index < 1 || index > len(language.Supported) {
		fmt.Fprintln(out, "Invalid choice, keeping current language.")
		return
	}
	a.languageTag = language.Supported[index-1].Tag
	fmt.Fprintf(out, "Language set to %s.\n", language.DisplayName(a.languageTag))
}

func (a *appState) menuViewTranscript() {
	out := a.outWriter()
	records := a.session.Records()
	if len(records) == 0 {
		fmt.Fprintln(out, "No transcriptions yet.")
		return
	}
	for _, rec := range records {
		fmt.Fprintf(out, "[%s] (%s, %s) %s\n",
			rec.Timestamp.Format("15:04:05"), rec.Provider, rec.Language, rec.Text)
	}

	stats := a.session.Stats()
	fmt.Fprintf(out, "%d transcription(s), %d characters, average length %.1f.\n",
		stats.Total, stats.Characters, stats.AvgLength)
}

func (a *appState) menuSaveTranscript() {
	out := a.outWriter()
	choice, err := a.readLine("Format (txt/json/csv) [txt]: ")
	if err != nil {
		return
	}
	if strings.TrimSpace(choice) == "" {
		choice = string(transcript.FormatTXT)
	}

	format, err := transcript.ParseFormat(choice)
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}

	dir, err := a.exportDirectory()
	if err != nil {
		fmt.Fprintf(out, "Cannot resolve export directory: %v\n", err)
		return
	}

	path, err := transcript.WriteFile(dir, "", format, a.session.Records(), a.now())
	if err != nil {
		fmt.Fprintf(out, "Save failed: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Saved to %s\n", path)
}

func (a *appState) menuSettings() {
	out := a.outWriter()
	fmt.Fprintf(out, "Config file: %s\n", a.configPath)
	fmt.Fprintf(out, "Default provider: %s | Default language: %s\n", a.cfg.DefaultProvider, a.cfg.DefaultLanguage)
	if configured := a.cfg.ConfiguredProviders(); len(configured) > 0 {
		fmt.Fprintf(out, "API keys configured for: %s\n", strings.Join(configured, ", "))
	} else {
		fmt.Fprintln(out, "No API keys configured.")
	}

	choice, err := a.readLine("Save current provider and language as defaults? (y/N): ")
	if err != nil {
		return
	}
	if !strings.EqualFold(strings.TrimSpace(choice), "y") {
		return
	}

	a.cfg.DefaultProvider = a.providerName
	a.cfg.DefaultLanguage = a.languageTag
	if err := a.saveConfigFn(); err != nil {
		fmt.Fprintf(out, "Save failed: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Defaults saved to %s\n", a.configPath)
}

func (a *appState) printHelp() {
	out := a.outWriter()
	fmt.Fprintln(out, "Pick a provider (2) and language (3), then start listening (1).")
	fmt.Fprintln(out, "While listening: p pauses, r resumes, q returns to this menu (press Enter after each).")
	fmt.Fprintln(out, "The google provider works without an API key; all others need one (\"dictate setup <provider>\").")
	fmt.Fprintln(out, "Transcriptions live in memory until saved (5) as txt, json, or csv.")
	fmt.Fprintln(out, "One-shot usage: \"dictate transcribe recording.wav\" or \"dictate transcribe https://…/clip.wav\".")
}
