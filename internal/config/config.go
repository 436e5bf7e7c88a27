// Package config loads daemon settings from defaults, the TOML config file
// and QUARTERLOG_* environment variables, in that order.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Ollama   OllamaConfig
	AI       AIConfig
	Insights InsightsConfig
	Score    ScoreConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port int
	// MaxConns caps concurrent connections on the daemon listener.
	MaxConns int
}

// Addr is the loopback address the daemon listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("127.0.0.1:%d", s.Port)
}

type StorageConfig struct {
	DataDir string
}

type OllamaConfig struct {
	BaseURL string
	// FastModel classifies entries; DeepModel writes coach reports.
	FastModel string
	DeepModel string
}

type AIConfig struct {
	Enabled           bool
	Timeout           time.Duration
	RequestsPerMinute int
}

type InsightsConfig struct {
	MinEntries int
	Max        int
}

type ScoreConfig struct {
	HistoryDays int
}

type LogConfig struct {
	Level string
}

// SlogLevel maps Level to a slog.Level, defaulting to Info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:     4100,
			MaxConns: 64,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Ollama: OllamaConfig{
			BaseURL:   "http://localhost:11434",
			FastModel: "phi3.5",
			DeepModel: "mistral-nemo",
		},
		AI: AIConfig{
			Enabled:           true,
			Timeout:           5 * time.Second,
			RequestsPerMinute: 12,
		},
		Insights: InsightsConfig{
			MinEntries: 20,
			Max:        5,
		},
		Score: ScoreConfig{
			HistoryDays: 14,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads $XDG_CONFIG_HOME/quarterlog/config.toml (missing is fine) and
// applies QUARTERLOG_* overrides on top.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadFromPath(path string) (Config, error) {
	return loadWith(newFileBackend(path))
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("server.port %d out of range", cfg.Server.Port)
	}
	if cfg.Storage.DataDir == "" {
		return Config{}, fmt.Errorf("storage.data_dir must not be empty")
	}
	return cfg, nil
}
