// Package config holds the global test configuration for a contract run.
package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the test_configuration section of a contracts document.
// It is loaded once per run and read-only thereafter.
type Config struct {
	// BaseURL is the root URL of the target server
	BaseURL string `yaml:"base_url"`

	// Timeout is the hard per-attempt timeout for one HTTP call
	Timeout time.Duration `yaml:"-"`

	// RetryAttempts is the number of additional attempts after the first
	RetryAttempts int `yaml:"retry_attempts"`

	// Parallel enables the bounded worker pool instead of the sequential loop
	Parallel bool `yaml:"parallel_tests"`

	// MaxWorkers bounds the worker pool when Parallel is true
	MaxWorkers int `yaml:"max_workers"`

	// GenerateSamples enables request sample synthesis; when false,
	// operations with a request schema are skipped
	GenerateSamples bool `yaml:"generate_samples"`

	// ValidateResponses enables response schema validation
	ValidateResponses bool `yaml:"validate_responses"`

	// SaveReports enables writing the report to durable storage
	SaveReports bool `yaml:"save_reports"`

	// ReportDir is the directory reports and the run history are written to
	ReportDir string `yaml:"report_dir"`

	// FailUnder is the pass-rate threshold below which the process exits non-zero
	FailUnder float64 `yaml:"fail_under"`

	// ServerCommand, when set, is the command used to launch the target server
	ServerCommand string `yaml:"server_command"`

	// HealthEndpoint is polled with GET until the server reports healthy
	HealthEndpoint string `yaml:"health_endpoint"`

	// HealthAttempts bounds health polling before the run aborts
	HealthAttempts int `yaml:"health_attempts"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		BaseURL:           "http://localhost:8080",
		Timeout:           10 * time.Second,
		RetryAttempts:     3,
		Parallel:          false,
		MaxWorkers:        4,
		GenerateSamples:   true,
		ValidateResponses: true,
		SaveReports:       true,
		ReportDir:         ".contractor/reports",
		FailUnder:         1.0,
		HealthEndpoint:    "/health",
		HealthAttempts:    10,
	}
}

// yamlConfig mirrors the document shape; timeout is declared in seconds
// and booleans need presence detection so absent keys keep their defaults.
type yamlConfig struct {
	BaseURL           string   `yaml:"base_url"`
	TimeoutSeconds    *float64 `yaml:"timeout"`
	RetryAttempts     *int     `yaml:"retry_attempts"`
	Parallel          *bool    `yaml:"parallel_tests"`
	MaxWorkers        *int     `yaml:"max_workers"`
	GenerateSamples   *bool    `yaml:"generate_samples"`
	ValidateResponses *bool    `yaml:"validate_responses"`
	SaveReports       *bool    `yaml:"save_reports"`
	ReportDir         string   `yaml:"report_dir"`
	FailUnder         *float64 `yaml:"fail_under"`
	ServerCommand     string   `yaml:"server_command"`
	HealthEndpoint    string   `yaml:"health_endpoint"`
	HealthAttempts    *int     `yaml:"health_attempts"`
}

// Decode builds a Config from a test_configuration YAML node,
// merging declared values over the defaults.
func Decode(node *yaml.Node) (*Config, error) {
	var raw yamlConfig
	if err := node.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse test_configuration: %w", err)
	}
	return raw.merge(Default()), nil
}

// Parse builds a Config from raw YAML bytes, merging over the defaults.
func Parse(data []byte) (*Config, error) {
	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse test_configuration: %w", err)
	}
	return raw.merge(Default()), nil
}

func (raw yamlConfig) merge(cfg *Config) *Config {
	if raw.BaseURL != "" {
		cfg.BaseURL = raw.BaseURL
	}
	if raw.TimeoutSeconds != nil {
		cfg.Timeout = time.Duration(*raw.TimeoutSeconds * float64(time.Second))
	}
	if raw.RetryAttempts != nil {
		cfg.RetryAttempts = *raw.RetryAttempts
	}
	if raw.Parallel != nil {
		cfg.Parallel = *raw.Parallel
	}
	if raw.MaxWorkers != nil {
		cfg.MaxWorkers = *raw.MaxWorkers
	}
	if raw.GenerateSamples != nil {
		cfg.GenerateSamples = *raw.GenerateSamples
	}
	if raw.ValidateResponses != nil {
		cfg.ValidateResponses = *raw.ValidateResponses
	}
	if raw.SaveReports != nil {
		cfg.SaveReports = *raw.SaveReports
	}
	if raw.ReportDir != "" {
		cfg.ReportDir = raw.ReportDir
	}
	if raw.FailUnder != nil {
		cfg.FailUnder = *raw.FailUnder
	}
	if raw.ServerCommand != "" {
		cfg.ServerCommand = raw.ServerCommand
	}
	if raw.HealthEndpoint != "" {
		cfg.HealthEndpoint = raw.HealthEndpoint
	}
	if raw.HealthAttempts != nil {
		cfg.HealthAttempts = *raw.HealthAttempts
	}
	return cfg
}

// MergeWithFlags merges CLI flag values into the configuration.
// Non-nil flag values override document values, so flags take precedence.
func (c *Config) MergeWithFlags(baseURL *string, timeout *time.Duration, parallel *bool, maxWorkers *int, reportDir *string, failUnder *float64) {
	if baseURL != nil {
		c.BaseURL = *baseURL
	}
	if timeout != nil {
		c.Timeout = *timeout
	}
	if parallel != nil {
		c.Parallel = *parallel
	}
	if maxWorkers != nil {
		c.MaxWorkers = *maxWorkers
	}
	if reportDir != nil {
		c.ReportDir = *reportDir
	}
	if failUnder != nil {
		c.FailUnder = *failUnder
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url cannot be empty")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base_url must start with http:// or https://, got %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %v", c.Timeout)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry_attempts must be >= 0, got %d", c.RetryAttempts)
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("max_workers must be > 0, got %d", c.MaxWorkers)
	}
	if c.FailUnder < 0 || c.FailUnder > 1 {
		return fmt.Errorf("fail_under must be within [0, 1], got %v", c.FailUnder)
	}
	if c.ServerCommand != "" && c.HealthAttempts <= 0 {
		return fmt.Errorf("health_attempts must be > 0 when server_command is set, got %d", c.HealthAttempts)
	}
	return nil
}
