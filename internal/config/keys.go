package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kDuration
)

type keySpec struct {
	key string
	typ keyType
	env string
	// positive rejects integers below 1; the default is kept instead.
	positive bool
	apply    func(cfg *Config, v any)
	extract  func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "QUARTERLOG_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.max_conns", typ: kInt, env: "QUARTERLOG_SERVER_MAX_CONNS", positive: true,
		apply:   func(cfg *Config, v any) { cfg.Server.MaxConns = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.MaxConns },
	},
	{
		key: "storage.data_dir", typ: kString, env: "QUARTERLOG_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "ollama.base_url", typ: kString, env: "QUARTERLOG_OLLAMA_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.BaseURL },
	},
	{
		key: "ollama.fast_model", typ: kString, env: "QUARTERLOG_OLLAMA_FAST_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.FastModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.FastModel },
	},
	{
		key: "ollama.deep_model", typ: kString, env: "QUARTERLOG_OLLAMA_DEEP_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.DeepModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.DeepModel },
	},
	{
		key: "ai.enabled", typ: kBool, env: "QUARTERLOG_AI_ENABLED",
		apply:   func(cfg *Config, v any) { cfg.AI.Enabled = v.(bool) },
		extract: func(cfg Config) any { return cfg.AI.Enabled },
	},
	{
		key: "ai.timeout", typ: kDuration, env: "QUARTERLOG_AI_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.AI.Timeout = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.AI.Timeout },
	},
	{
		key: "ai.requests_per_minute", typ: kInt, env: "QUARTERLOG_AI_REQUESTS_PER_MINUTE", positive: true,
		apply:   func(cfg *Config, v any) { cfg.AI.RequestsPerMinute = v.(int) },
		extract: func(cfg Config) any { return cfg.AI.RequestsPerMinute },
	},
	{
		key: "insights.min_entries", typ: kInt, env: "QUARTERLOG_INSIGHTS_MIN_ENTRIES", positive: true,
		apply:   func(cfg *Config, v any) { cfg.Insights.MinEntries = v.(int) },
		extract: func(cfg Config) any { return cfg.Insights.MinEntries },
	},
	{
		key: "insights.max", typ: kInt, env: "QUARTERLOG_INSIGHTS_MAX", positive: true,
		apply:   func(cfg *Config, v any) { cfg.Insights.Max = v.(int) },
		extract: func(cfg Config) any { return cfg.Insights.Max },
	},
	{
		key: "score.history_days", typ: kInt, env: "QUARTERLOG_SCORE_HISTORY_DAYS", positive: true,
		apply:   func(cfg *Config, v any) { cfg.Score.HistoryDays = v.(int) },
		extract: func(cfg Config) any { return cfg.Score.HistoryDays },
	},
	{
		key: "log.level", typ: kString, env: "QUARTERLOG_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if !ok {
				continue
			}
			if s.positive && v < 1 {
				fmt.Fprintf(os.Stderr, "[WARN] config key %s=%d must be at least 1. Using default value.\n", s.key, v)
				continue
			}
			s.apply(cfg, v)
		case kBool:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if bv, err := strconv.ParseBool(v); err == nil {
					s.apply(cfg, bv)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		case kDuration:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if d, err := parsePositiveDuration(v); err == nil {
					s.apply(cfg, d)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse duration from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			i, err := strconv.Atoi(raw)
			switch {
			case err != nil:
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			case s.positive && i < 1:
				fmt.Fprintf(os.Stderr, "[WARN] env var %s=%d must be at least 1. Using default value.\n", s.env, i)
			default:
				s.apply(cfg, i)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kDuration:
			if d, err := parsePositiveDuration(raw); err == nil {
				s.apply(cfg, d)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse duration from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return d, nil
}
