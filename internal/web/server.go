// Package web serves the browser UI: a single-page frontend plus a JSON
// API over the same recognition pipeline the CLI uses. Recognized text is
// pushed to connected browsers over a websocket.
package web

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/johnhika/dictate/internal/config"
	"github.com/johnhika/dictate/internal/provider"
	"github.com/johnhika/dictate/internal/transcript"
	"github.com/johnhika/dictate/internal/version"
)

type Options struct {
	ConfigPath string
	Config     *config.Config
	Registry   *provider.Registry
	Logger     *zap.Logger
	HTTPClient *http.Client
}

type Server struct {
	configPath string
	registry   *provider.Registry
	logger     *zap.Logger
	session    *transcript.Log
	hub        *hub
	started    time.Time

	mu  sync.Mutex
	cfg *config.Config
}

func NewServer(opts Options) *Server {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Registry == nil {
		opts.Registry = provider.NewRegistry(opts.HTTPClient)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Server{
		configPath: opts.ConfigPath,
		registry:   opts.Registry,
		logger:     opts.Logger,
		session:    transcript.NewLog(),
		hub:        newHub(opts.Logger),
		started:    time.Now(),
		cfg:        opts.Config,
	}
}

// App builds the fiber application with all routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "dictate-web v" + version.Resolve(),
		ErrorHandler: s.errorHandler,
		BodyLimit:    32 << 20, // uploads are whole WAV files
	})

	app.Get("/", s.handleIndex)

	api := app.Group("/api")
	api.Get("/providers", s.handleProviders)
	api.Get("/languages", s.handleLanguages)
	api.Get("/status", s.handleStatus)
	api.Get("/settings", s.handleGetSettings)
	api.Put("/settings", s.handlePutSettings)
	api.Post("/transcribe", s.handleTranscribe)
	api.Get("/transcriptions", s.handleListTranscriptions)
	api.Delete("/transcriptions", s.handleClearTranscriptions)
	api.Get("/stats", s.handleStats)

	app.Get("/export/:format", s.handleExport)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(s.hub.serve))

	return app
}

// Run blocks serving HTTP on addr until the listener fails.
func (s *Server) Run(addr string) error {
	app := s.App()
	s.logger.Info("web server listening", zap.String("addr", addr))
	return app.Listen(addr)
}

// errorHandler renders every handler error as a JSON body, keeping the
// provider hint when there is one.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	var reqErr *provider.RequestError
	switch {
	case errors.Is(err, provider.ErrNotConfigured):
		code = fiber.StatusBadRequest
	case errors.Is(err, provider.ErrUnintelligible):
		code = fiber.StatusUnprocessableEntity
	case errors.As(err, &reqErr):
		code = fiber.StatusBadGateway
		if reqErr.Kind == provider.KindAuth {
			code = fiber.StatusBadRequest
		}
	}

	body := fiber.Map{"error": err.Error()}
	if hint := provider.Hint(err); hint != "" {
		body["hint"] = hint
	}

	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", code), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.Int("status", code), zap.Error(err))
	}

	return c.Status(code).JSON(body)
}

func badRequest(format string, args ...any) error {
	return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf(format, args...))
}
