package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the file-based application configuration. Flags override the
// values loaded here.
type Config struct {
	NATS    NATSConfig    `yaml:"nats"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Session SessionConfig `yaml:"session"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type NATSConfig struct {
	URL            string `yaml:"url"`
	SubjectPrefix  string `yaml:"subjectPrefix"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

type ViewerConfig struct {
	ListenAddr string `yaml:"listenAddr"`
}

type SessionConfig struct {
	PageSize     int    `yaml:"pageSize"`
	PageCapacity int    `yaml:"pageCapacity"`
	FilterScript string `yaml:"filterScript"`
	SourcePath   string `yaml:"sourcePath"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		NATS: NATSConfig{
			URL:            "nats://127.0.0.1:4222",
			SubjectPrefix:  "packlens.decode",
			TimeoutSeconds: 10,
		},
		Viewer: ViewerConfig{
			ListenAddr: ":8080",
		},
		Session: SessionConfig{
			PageSize:     100,
			PageCapacity: 3,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

// LoadConfig reads path on top of the defaults. An empty path returns the
// defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required")
	}
	if c.NATS.SubjectPrefix == "" {
		return fmt.Errorf("nats.subjectPrefix is required")
	}
	if c.NATS.TimeoutSeconds < 1 {
		return fmt.Errorf("nats.timeoutSeconds must be >= 1, got %d", c.NATS.TimeoutSeconds)
	}
	if c.Session.PageSize < 1 {
		return fmt.Errorf("session.pageSize must be >= 1, got %d", c.Session.PageSize)
	}
	if c.Session.PageCapacity < 1 {
		return fmt.Errorf("session.pageCapacity must be >= 1, got %d", c.Session.PageCapacity)
	}
	if c.Viewer.ListenAddr == "" {
		return fmt.Errorf("viewer.listenAddr is required")
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics.port must be in 1..65535, got %d", c.Metrics.Port)
	}
	return nil
}

// RequestTimeout returns the decode request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.NATS.TimeoutSeconds) * time.Second
}
