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
	ConfigPath      string
	LogLevel        string
	LogFormat       string
	Debug           bool
	ShutdownTimeout time.Duration

	// Overrides for the file configuration; empty/zero means "use file".
	NATSURL    string
	ListenAddr string
	PageSize   int
	SourcePath string
	Filter     string

	ShowVersion bool
	ShowHelp    bool
	Validate    bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("PACKLENS_CONFIG", ""),
		"Path to configuration file, optional (env: PACKLENS_CONFIG)")

	flag.StringVar(&cfg.ConfigPath, "c",
		getEnv("PACKLENS_CONFIG", ""),
		"Path to configuration file, optional (env: PACKLENS_CONFIG)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("PACKLENS_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: PACKLENS_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("PACKLENS_LOG_FORMAT", "pretty"),
		"Log format: json, text, pretty (env: PACKLENS_LOG_FORMAT)")

	flag.BoolVar(&cfg.Debug, "debug",
		getEnvBool("PACKLENS_DEBUG", false),
		"Enable debug mode (env: PACKLENS_DEBUG)")

	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("PACKLENS_SHUTDOWN_TIMEOUT", 15*time.Second),
		"Graceful shutdown timeout (env: PACKLENS_SHUTDOWN_TIMEOUT)")

	flag.StringVar(&cfg.NATSURL, "nats",
		getEnv("PACKLENS_NATS_URL", ""),
		"NATS server URL, overrides config file (env: PACKLENS_NATS_URL)")

	flag.StringVar(&cfg.ListenAddr, "listen",
		getEnv("PACKLENS_LISTEN", ""),
		"Viewer listen address, overrides config file (env: PACKLENS_LISTEN)")

	flag.IntVar(&cfg.PageSize, "page-size",
		getEnvInt("PACKLENS_PAGE_SIZE", 0),
		"Entities per page, overrides config file (env: PACKLENS_PAGE_SIZE)")

	flag.StringVar(&cfg.SourcePath, "source",
		getEnv("PACKLENS_SOURCE", ""),
		"Source file to watch for changes, overrides config file (env: PACKLENS_SOURCE)")

	flag.StringVar(&cfg.Filter, "filter",
		getEnv("PACKLENS_FILTER", ""),
		"Filter script passed to the decode service, overrides config file (env: PACKLENS_FILTER)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	flag.Usage = printHelp

	flag.Parse()

	if cfg.Debug {
		cfg.LogLevel = "debug"
	}

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text", "pretty"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.PageSize < 0 {
		return fmt.Errorf("invalid page size: %d", cfg.PageSize)
	}

	return nil
}

// mergeFlags applies CLI overrides on top of the file configuration.
func mergeFlags(cfg *Config, cli *CLIConfig) {
	if cli.NATSURL != "" {
		cfg.NATS.URL = cli.NATSURL
	}
	if cli.ListenAddr != "" {
		cfg.Viewer.ListenAddr = cli.ListenAddr
	}
	if cli.PageSize > 0 {
		cfg.Session.PageSize = cli.PageSize
	}
	if cli.SourcePath != "" {
		cfg.Session.SourcePath = cli.SourcePath
	}
	if cli.Filter != "" {
		cfg.Session.FilterScript = cli.Filter
	}
}

func printHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - paged viewer for packed audio-chat containers

Usage:
  %s [flags]

The viewer connects to a decode service over NATS, serves a WebSocket
endpoint for browser clients, and keeps a bounded window of decoded
entities in memory. Embedded audio payloads are held out-of-band and
fetched on demand.

Flags:
`, appName, appName)
	flag.PrintDefaults()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
