package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file. Environment variables referenced
// in the file are expanded, and the Supabase endpoint/credential fall back to
// SUPABASE_URL / SUPABASE_SERVICE_ROLE_KEY when unset.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Supabase.URL == "" {
		cfg.Supabase.URL = os.Getenv("SUPABASE_URL")
	}
	if cfg.Supabase.ServiceRoleKey == "" {
		cfg.Supabase.ServiceRoleKey = os.Getenv("SUPABASE_SERVICE_ROLE_KEY")
	}
	if cfg.Reliability.TimeoutMs == 0 {
		cfg.Reliability.TimeoutMs = 8000
	}
	if cfg.Reliability.RetryDelayMs == 0 {
		cfg.Reliability.RetryDelayMs = 300
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
