// Package config reads settings for both binaries from the environment.
//
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAPIURL is the hosted content service.
const DefaultAPIURL = "https://gp-backend-iota.vercel.app"

// Client configures cmd/postgen.
type Client struct {
	APIURL      string
	StatePath   string
	LogLevel    slog.Level
	HTTPTimeout time.Duration
}

// Server configures cmd/stubserver.
type Server struct {
	Port       int
	DBPath     string
	CORSOrigin string
	LogLevel   slog.Level
}

// LoadEnvFiles loads the given .env files (".env" when none are given).
// Missing files are ignored.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: loading %s: %w", f, err)
		}
	}
	return nil
}

// LoadClient reads the client settings.
func LoadClient() (Client, error) {
	level, err := parseLevel(getEnv("POSTGEN_LOG_LEVEL", "info"))
	if err != nil {
		return Client{}, err
	}

	timeoutStr := getEnv("POSTGEN_HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil || timeout < 0 {
		return Client{}, fmt.Errorf("config: invalid POSTGEN_HTTP_TIMEOUT %q", timeoutStr)
	}

	return Client{
		APIURL:      strings.TrimRight(getEnv("POSTGEN_API_URL", DefaultAPIURL), "/"),
		StatePath:   getEnv("POSTGEN_STATE_PATH", "data/postgen.db"),
		LogLevel:    level,
		HTTPTimeout: timeout,
	}, nil
}

// LoadServer reads the stub server settings.
func LoadServer() (Server, error) {
	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Server{}, fmt.Errorf("config: invalid PORT %q", portStr)
	}

	level, err := parseLevel(getEnv("LOG_LEVEL", "debug"))
	if err != nil {
		return Server{}, err
	}

	return Server{
		Port:       port,
		DBPath:     getEnv("DB_PATH", "data/stub.db"),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),
		LogLevel:   level,
	}, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: invalid log level %q", s)
	}
	return level, nil
}
