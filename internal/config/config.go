// Package config provides configuration management for the SYNOPSIS CLI.
package config

import (
	"fmt"
	"time"
)

// Output formats for the prioritize command.
const (
	FormatPlain = "plain" // one ASDP id per line
	FormatURIs  = "uris"  // one product URI per line
	FormatJSON  = "json"  // JSON array of product objects
)

// Config holds engine settings resolved from defaults, config file,
// environment, and flags.
type Config struct {
	DatabaseURL  string
	TimeBudget   time.Duration
	OutputFormat string
	LogLevel     string
	LogFormat    string
}

// Default returns configuration with default values.
// The default time budget is effectively unbounded; flight deployments
// set an explicit budget per downlink pass.
func Default() *Config {
	return &Config{
		DatabaseURL:  "",
		TimeBudget:   24 * time.Hour,
		OutputFormat: FormatPlain,
		LogLevel:     "info",
		LogFormat:    "json",
	}
}

// Validate checks value ranges and enumerations.
func Validate(cfg *Config) error {
	if cfg.TimeBudget <= 0 {
		return fmt.Errorf("time_budget must be positive, got %v", cfg.TimeBudget)
	}
	switch cfg.OutputFormat {
	case FormatPlain, FormatURIs, FormatJSON:
	default:
		return fmt.Errorf("output_format must be one of plain, uris, json, got %q", cfg.OutputFormat)
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("log_format must be json or text, got %q", cfg.LogFormat)
	}
	return nil
}
