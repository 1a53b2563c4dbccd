package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	APIBaseURL  string // comment + auth API root, e.g. http://localhost:4000/api
	NATSURL     string // realtime channel; empty means natsconn's default
	SessionFile string
	LogLevel    string
	LogFormat   string // "json" or "console"
	PageSize    int
}

func Load() (Config, error) {
	cfg := Config{
		APIBaseURL:  strings.TrimSpace(os.Getenv("COMMENT_API_URL")),
		NATSURL:     strings.TrimSpace(os.Getenv("NATS_URL")),
		SessionFile: strings.TrimSpace(os.Getenv("SESSION_FILE")),
		LogLevel:    strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		LogFormat:   strings.TrimSpace(os.Getenv("LOG_FORMAT")),
		PageSize:    envInt("PAGE_SIZE", 10),
	}
	if cfg.APIBaseURL == "" {
		return Config{}, errors.New("COMMENT_API_URL is required")
	}
	if cfg.SessionFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, errors.New("SESSION_FILE is required when no home directory is available")
		}
		cfg.SessionFile = filepath.Join(home, ".comment-feed", "session.json")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
	}
	return cfg, nil
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
