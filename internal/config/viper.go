package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load resolves configuration from file using viper.
// CLI flags > environment > config file > defaults precedence; flag
// overrides are applied by the CLI after Load returns.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Defaults matching Default()
	v.SetDefault("database_url", "")
	v.SetDefault("time_budget", "24h")
	v.SetDefault("output_format", FormatPlain)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	// Bind environment variables with SYNOPSIS_ prefix
	v.SetEnvPrefix("SYNOPSIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:  v.GetString("database_url"),
		TimeBudget:   v.GetDuration("time_budget"),
		OutputFormat: v.GetString("output_format"),
		LogLevel:     v.GetString("log_level"),
		LogFormat:    v.GetString("log_format"),
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
