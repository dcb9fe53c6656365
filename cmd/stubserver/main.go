// Command stubserver runs a local stand-in for the hosted content service.
//
// It speaks the same HTTP/JSON API as the real service, stores accounts
// and posts in SQLite, and composes posts from fixed templates instead of
// calling a language model. Point the client at it with
// POSTGEN_API_URL=http://localhost:8080.
//
// Configuration comes from the environment (and a .env file if present):
//
//	PORT         listen port (8080)
//	DB_PATH      SQLite file (data/stub.db)
//	CORS_ORIGIN  allowed origins, comma separated (*)
//	LOG_LEVEL    debug, info, warn or error (debug)
//	UNAVAILABLE  platforms the composer always leaves out, comma separated
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sakif/postgen/internal/composer/template"
	"github.com/sakif/postgen/internal/config"
	"github.com/sakif/postgen/internal/model"
	"github.com/sakif/postgen/internal/server"
)

func main() {
	if err := config.LoadEnvFiles(); err != nil {
		slog.Error("failed to load .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg, err := config.LoadServer()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	if cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	composerCfg := template.DefaultConfig()
	if raw := os.Getenv("UNAVAILABLE"); raw != "" {
		platforms, dropped := model.NormalizePlatforms(strings.Split(raw, ","))
		for _, d := range dropped {
			logger.Warn("ignoring unknown platform in UNAVAILABLE", slog.String("platform", d))
		}
		composerCfg.Unavailable = platforms
	}

	srv, err := server.New(server.Config{
		Port:       cfg.Port,
		DBPath:     cfg.DBPath,
		CORSOrigin: cfg.CORSOrigin,
		Composer:   composerCfg,
	}, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
