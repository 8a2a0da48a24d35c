package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	Host            string
	Port            int
	Workers         int
	QueueSize       int
	MetricsPort     int
	NATSUrl         string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	ShowVersion     bool
	ShowHelp        bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	// Define flags with environment variable fallback
	flag.StringVar(&cfg.Host, "host",
		getEnv("SBROUTER_HOST", "0.0.0.0"),
		"Listen address for client connections (env: SBROUTER_HOST)")

	flag.IntVar(&cfg.Port, "port",
		getEnvInt("SBROUTER_PORT", 8181),
		"Listen port for client connections (env: SBROUTER_PORT)")

	flag.IntVar(&cfg.Workers, "workers",
		getEnvInt("SBROUTER_WORKERS", 1),
		"Frame forwarding workers; 1 preserves ordering (env: SBROUTER_WORKERS)")

	flag.IntVar(&cfg.QueueSize, "queue-size",
		getEnvInt("SBROUTER_QUEUE_SIZE", 1024),
		"Pending frame queue size (env: SBROUTER_QUEUE_SIZE)")

	flag.IntVar(&cfg.MetricsPort, "metrics-port",
		getEnvInt("SBROUTER_METRICS_PORT", 9090),
		"Prometheus metrics port, 0 to disable (env: SBROUTER_METRICS_PORT)")

	flag.StringVar(&cfg.NATSUrl, "nats-url",
		getEnv("SBROUTER_NATS_URL", ""),
		"NATS URL for remote log streaming, empty to disable (env: SBROUTER_NATS_URL)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("SBROUTER_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: SBROUTER_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("SBROUTER_LOG_FORMAT", "json"),
		"Log format: json, text (env: SBROUTER_LOG_FORMAT)")

	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("SBROUTER_SHUTDOWN_TIMEOUT", 30*time.Second),
		"Graceful shutdown timeout (env: SBROUTER_SHUTDOWN_TIMEOUT)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")

	flag.Usage = printDetailedHelp

	flag.Parse()

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	// Skip validation for special flags
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.MetricsPort)
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("invalid worker count: %d", cfg.Workers)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - ServiceBus Message Router

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Run on the default port
  %s

  # Run with debug logging on a custom port
  %s --port=9181 --log-level=debug --log-format=text

  # Run with environment variables
  export SBROUTER_PORT=9181
  export SBROUTER_LOG_LEVEL=debug
  %s

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

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
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
