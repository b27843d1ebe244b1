package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	BackendNocoDB = "nocodb"
	BackendSQL    = "sql"
)

type NocoConfig struct {
	URL     string
	BaseID  string
	TableID string
	Token   string
}

// AppConfig is the question server configuration.
type AppConfig struct {
	Port        string
	CORSOrigin  string
	LogLevel    string
	Backend     string
	DatabaseURL string
	SubmitEvery time.Duration
	Noco        NocoConfig
}

// Load reads server configuration from the environment. A missing NOCO_TOKEN
// is not an error here; every store call reports it instead.
func Load() (AppConfig, error) {
	cfg := AppConfig{
		Port:        env("PORT", "8080"),
		CORSOrigin:  env("CORS_ORIGIN", "*"),
		LogLevel:    env("LOG_LEVEL", "info"),
		Backend:     strings.ToLower(env("STORE_BACKEND", BackendNocoDB)),
		DatabaseURL: env("DATABASE_URL", "sqlite://qboard.db"),
		Noco: NocoConfig{
			URL:     strings.TrimRight(env("NOCO_URL", "https://nocodb.razhome.com"), "/"),
			BaseID:  env("NOCO_BASE_ID", "p1k0aqpqqu7tgky"),
			TableID: env("NOCO_TABLE_ID", "mqiz1txxeqc048p"),
			Token:   strings.TrimSpace(os.Getenv("NOCO_TOKEN")),
		},
	}

	secs, err := strconv.ParseFloat(env("SUBMIT_RATE_SECONDS", "3"), 64)
	if err != nil || secs <= 0 {
		return AppConfig{}, fmt.Errorf("invalid SUBMIT_RATE_SECONDS %q", os.Getenv("SUBMIT_RATE_SECONDS"))
	}
	cfg.SubmitEvery = time.Duration(secs * float64(time.Second))

	switch cfg.Backend {
	case BackendNocoDB, BackendSQL:
	default:
		return AppConfig{}, fmt.Errorf("invalid STORE_BACKEND %q: want %s or %s", cfg.Backend, BackendNocoDB, BackendSQL)
	}
	return cfg, nil
}

// ClientConfig is the terminal board configuration.
type ClientConfig struct {
	APIURL   string
	StateDB  string
	LogLevel string
}

func LoadClient() (ClientConfig, error) {
	cfg := ClientConfig{
		APIURL:   env("BOARD_API_URL", "http://localhost:8080/api/questions"),
		StateDB:  strings.TrimSpace(os.Getenv("BOARD_STATE_DB")),
		LogLevel: env("LOG_LEVEL", "warn"),
	}
	if cfg.StateDB == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return ClientConfig{}, fmt.Errorf("locate config dir: %w", err)
		}
		cfg.StateDB = filepath.Join(dir, "qboard", "state.db")
	}
	return cfg, nil
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
