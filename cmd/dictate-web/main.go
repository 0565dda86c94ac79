package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/johnhika/dictate/internal/config"
	"github.com/johnhika/dictate/internal/logging"
	"github.com/johnhika/dictate/internal/platform"
	"github.com/johnhika/dictate/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real environment variables win either way.
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("DICTATE_ADDR", ":8080"), "Listen address")
	configPath := flag.String("config", os.Getenv("DICTATE_CONFIG"), "Config file path (default: per-OS config directory)")
	verbose := flag.Bool("verbose", false, "Enable verbose logs")
	jsonLogs := flag.Bool("json-logs", false, "Enable JSON logging")
	flag.Parse()

	logger, err := logging.New(logging.Options{Verbose: *verbose, JSON: *jsonLogs, Name: "dictate-web"})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync()

	resolvedPath, err := platform.ResolveConfigFile(*configPath)
	if err != nil {
		return err
	}

	cfg, err := config.Load(resolvedPath)
	if err != nil {
		return err
	}
	logger.Info("config loaded", zap.String("path", resolvedPath))

	server := web.NewServer(web.Options{
		ConfigPath: resolvedPath,
		Config:     cfg,
		Logger:     logger,
	})
	return server.Run(*addr)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
