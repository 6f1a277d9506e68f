// Package config loads the wiring configuration used by toolguard binaries.
// Library consumers construct Config values for the reliability packages
// directly; this package only covers sinks, logging, and probe defaults.
package config

import (
	"github.com/vietddude/toolguard/storage/postgres"
	"github.com/vietddude/toolguard/storage/redisbuf"
	"github.com/vietddude/toolguard/storage/supabase"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Logging     LoggingConfig    `yaml:"logging"`
	Database    postgres.Config  `yaml:"database"`
	Supabase    supabase.Config  `yaml:"supabase"`
	Redis       redisbuf.Config  `yaml:"redis"`
	Reliability ReliabilityKnobs `yaml:"reliability"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// ReliabilityKnobs holds the default envelope applied by the probe command.
type ReliabilityKnobs struct {
	TimeoutMs    int `yaml:"timeout_ms"`
	MaxRetries   int `yaml:"max_retries"`
	RetryDelayMs int `yaml:"retry_delay_ms"`
}
