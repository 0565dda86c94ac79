package web

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/johnhika/dictate/internal/audio"
	"github.com/johnhika/dictate/internal/language"
	"github.com/johnhika/dictate/internal/provider"
	"github.com/johnhika/dictate/internal/transcript"
	"github.com/johnhika/dictate/internal/version"
)

type providerView struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	RequiresKey bool   `json:"requires_key"`
	Configured  bool   `json:"configured"`
}

type languageView struct {
	Tag  string `json:"tag"`
	Name string `json:"name"`
}

type settingsView struct {
	DefaultProvider string   `json:"default_api"`
	DefaultLanguage string   `json:"default_language"`
	Configured      []string `json:"configured_providers"`
}

type settingsUpdate struct {
	DefaultProvider string            `json:"default_api"`
	DefaultLanguage string            `json:"default_language"`
	APIKeys         map[string]string `json:"api_keys"`
}

func (s *Server) handleProviders(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]providerView, 0, len(s.registry.All()))
	for _, p := range s.registry.All() {
		views = append(views, providerView{
			Name:        p.Name(),
			DisplayName: p.DisplayName(),
			RequiresKey: p.RequiresKey(),
			Configured:  !p.RequiresKey() || s.cfg.APIKey(p.Name()) != "",
		})
	}
	return c.JSON(views)
}

func (s *Server) handleLanguages(c *fiber.Ctx) error {
	views := make([]languageView, 0, len(language.Supported))
	for _, lang := range language.Supported {
		views = append(views, languageView{Tag: lang.Tag, Name: lang.Name})
	}
	return c.JSON(views)
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version":        version.Resolve(),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"transcriptions": s.session.Len(),
		"clients":        s.hub.clientCount(),
	})
}

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return c.JSON(settingsView{
		DefaultProvider: s.cfg.DefaultProvider,
		DefaultLanguage: s.cfg.DefaultLanguage,
		Configured:      s.cfg.ConfiguredProviders(),
	})
}

// handlePutSettings updates defaults and API keys. An empty key removes
// the stored one; omitted providers are untouched. Persists to the config
// file when the server has one.
func (s *Server) handlePutSettings(c *fiber.Ctx) error {
	var update settingsUpdate
	if err := c.BodyParser(&update); err != nil {
		return badRequest("invalid settings body: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if update.DefaultProvider != "" {
		name := strings.ToLower(strings.TrimSpace(update.DefaultProvider))
		if s.registry.Get(name) == nil {
			return badRequest("unknown provider %q", update.DefaultProvider)
		}
		s.cfg.DefaultProvider = name
	}

	if update.DefaultLanguage != "" {
		tag := language.Normalize(update.DefaultLanguage)
		if !language.IsSupported(tag) {
			return badRequest("unsupported language %q", update.DefaultLanguage)
		}
		s.cfg.DefaultLanguage = tag
	}

	for name, key := range update.APIKeys {
		name = strings.ToLower(strings.TrimSpace(name))
		if s.registry.Get(name) == nil {
			return badRequest("unknown provider %q", name)
		}
		s.cfg.SetAPIKey(name, strings.TrimSpace(key))
	}

	if s.configPath != "" {
		if err := s.cfg.Save(s.configPath); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
	}

	s.logger.Info("settings updated",
		zap.String("default_provider", s.cfg.DefaultProvider),
		zap.String("default_language", s.cfg.DefaultLanguage),
	)

	return c.JSON(settingsView{
		DefaultProvider: s.cfg.DefaultProvider,
		DefaultLanguage: s.cfg.DefaultLanguage,
		Configured:      s.cfg.ConfiguredProviders(),
	})
}

// handleTranscribe accepts a multipart WAV upload in the "audio" field,
// recognizes it, appends the result to the session, and pushes it to
// websocket clients.
func (s *Server) handleTranscribe(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return badRequest("missing \"audio\" file field")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return badRequest("open upload: %v", err)
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	info, err := audio.InspectBytes(data)
	if err != nil {
		return badRequest("not a readable WAV file: %v", err)
	}

	providerName, languageTag, apiKey, err := s.requestSelection(c)
	if err != nil {
		return err
	}

	p := s.registry.Get(providerName)
	if p.RequiresKey() && apiKey == "" {
		return fmt.Errorf("%s: %w", providerName, provider.ErrNotConfigured)
	}

	s.logger.Debug("recognizing upload",
		zap.String("provider", providerName),
		zap.String("language", languageTag),
		zap.String("filename", fileHeader.Filename),
		zap.Duration("audio_duration", info.Duration),
	)

	result, err := p.Recognize(c.Context(), provider.Request{
		Audio:    data,
		Info:     info,
		Language: languageTag,
		APIKey:   apiKey,
	})
	if err != nil {
		return err
	}

	rec := s.session.Append(transcript.Record{
		Text:     result.Text,
		Provider: providerName,
		Language: languageTag,
		Source:   transcript.SourceUpload,
	})
	s.hub.broadcast(rec)

	return c.Status(fiber.StatusCreated).JSON(rec)
}

// requestSelection resolves provider, language, and API key for one
// request: form fields override the configured defaults.
func (s *Server) requestSelection(c *fiber.Ctx) (providerName, languageTag, apiKey string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	providerName = strings.ToLower(strings.TrimSpace(c.FormValue("provider")))
	if providerName == "" {
		providerName = s.cfg.DefaultProvider
	}
	if s.registry.Get(providerName) == nil {
		return "", "", "", badRequest("unknown provider %q", providerName)
	}

	languageTag = language.Normalize(c.FormValue("language"))
	if languageTag == "" {
		languageTag = s.cfg.DefaultLanguage
	}
	if !language.IsSupported(languageTag) {
		return "", "", "", badRequest("unsupported language %q", languageTag)
	}

	return providerName, languageTag, s.cfg.APIKey(providerName), nil
}

func (s *Server) handleListTranscriptions(c *fiber.Ctx) error {
	records := s.session.Records()
	if records == nil {
		records = []transcript.Record{}
	}
	return c.JSON(records)
}

func (s *Server) handleClearTranscriptions(c *fiber.Ctx) error {
	cleared := s.session.Clear()
	s.logger.Info("transcriptions cleared", zap.Int("count", cleared))
	return c.JSON(fiber.Map{"cleared": cleared})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	stats := s.session.Stats()
	return c.JSON(fiber.Map{
		"total":        stats.Total,
		"characters":   stats.Characters,
		"avg_length":   stats.AvgLength,
		"per_api":      stats.PerProvider,
		"per_language": stats.PerLanguage,
	})
}

// handleExport streams the session in the requested format as a download.
func (s *Server) handleExport(c *fiber.Ctx) error {
	format, err := transcript.ParseFormat(c.Params("format"))
	if err != nil {
		return badRequest("%v", err)
	}

	var buf bytes.Buffer
	if err := transcript.Export(&buf, format, s.session.Records(), time.Now()); err != nil {
		return fmt.Errorf("export transcript: %w", err)
	}

	filename := fmt.Sprintf("transcription_%s.%s", time.Now().Format("20060102_150405"), format)
	c.Set(fiber.HeaderContentType, format.MIMEType())
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}
