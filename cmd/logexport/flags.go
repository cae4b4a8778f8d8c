package main

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath      string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	ShowVersion     bool
	ShowHelp        bool
	Validate        bool

	// Source and destination overrides applied on top of the config file
	Subscription   string
	Topic          string
	RunBoundedOver int
	OutputTable    string
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("LOGEXPORT_CONFIG", "configs/logexport.json"),
		"Path to configuration file (env: LOGEXPORT_CONFIG)")

	flag.StringVar(&cfg.ConfigPath, "c",
		getEnv("LOGEXPORT_CONFIG", "configs/logexport.json"),
		"Path to configuration file (env: LOGEXPORT_CONFIG)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("LOGEXPORT_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: LOGEXPORT_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("LOGEXPORT_LOG_FORMAT", "json"),
		"Log format: json, text (env: LOGEXPORT_LOG_FORMAT)")

	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("LOGEXPORT_SHUTDOWN_TIMEOUT", 30*time.Second),
		"Graceful shutdown timeout (env: LOGEXPORT_SHUTDOWN_TIMEOUT)")

	flag.StringVar(&cfg.Subscription, "subscription", "",
		"Durable consumer to read from (overrides config)")

	flag.StringVar(&cfg.Topic, "topic", "",
		"Subject to read via an ephemeral consumer (overrides config)")

	flag.IntVar(&cfg.RunBoundedOver, "run-bounded-over", 0,
		"Stop after this many messages, 0 for unbounded (overrides config)")

	flag.StringVar(&cfg.OutputTable, "output-table", "",
		"Destination table, optionally schema-qualified (overrides config)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	flag.Usage = printDetailedHelp

	flag.Parse()

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.RunBoundedOver < 0 {
		return fmt.Errorf("invalid run-bounded-over: %d", cfg.RunBoundedOver)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - Log Export Pipeline

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Run against a durable subscription
  %s --config=/etc/logexport/config.json --subscription=exporter

  # Bounded test run over a subject
  %s --topic=logs.requests --run-bounded-over=1000 --output-table=staging.request_logs

  # Validate configuration only
  %s --validate

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Utility function to check if slice contains string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
