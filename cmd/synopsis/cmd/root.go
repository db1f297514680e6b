package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/NASA-AMMOS/synopsis/internal/config"
)

var (
	configFile string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "synopsis",
	Short: "SYNOPSIS onboard science data downlink prioritization",
	Long: `SYNOPSIS manages a catalog of autonomous science data products and
produces prioritized downlink queues using rule-based utility adjustment
and diversity-aware utility discounting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, text)")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves settings with flag overrides applied on top of the
// file/environment/default chain.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger for one command invocation.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return config.NewLogger(cfg.LogLevel, cfg.LogFormat)
}
