// Package config provides YAML configuration parsing for livesync.
//
// This package enables running livesync as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	endpoint: ${LIVESYNC_ENDPOINT:-https://cogniview-store.onrender.com/api/elk-data}
//	directory: ./cogniview_realtime_data
//	interval: 30s
//
//	log:
//	  level: info
//	  file: ./logs/livesync.log
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults used when a field is omitted and when the CLI runs without a
// configuration file.
const (
	DefaultEndpoint      = "https://cogniview-store.onrender.com/api/elk-data"
	DefaultDirectory     = "./cogniview_realtime_data"
	DefaultInterval      = 30 * time.Second
	DefaultHealthTimeout = 10 * time.Second
	DefaultFetchTimeout  = 30 * time.Second
	DefaultLimit         = 5000
	DefaultArchiveCap    = 1000
)

// minInterval is the minimum allowed sync interval.
// This prevents accidental DoS of the remote endpoint with overly aggressive polling.
const minInterval = 1 * time.Second

const maxInterval = 1 * time.Hour

// Config is the root configuration structure for livesync.
//
// It maps directly to the YAML configuration file structure.
// Use [Load], [Parse] or [Default] to create a Config.
type Config struct {
	// Endpoint is the data endpoint URL.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	Endpoint string `yaml:"endpoint"`

	// Website is the site shown in the run summary. Derived from the
	// endpoint when empty.
	Website string `yaml:"website"`

	// Directory receives every artifact. Supports environment variables.
	Directory string `yaml:"directory"`

	// Interval is the pause between cycles. Must be between 1s and 1h.
	Interval Duration `yaml:"interval"`

	// HealthTimeout bounds the connectivity check. Defaults to 10s.
	HealthTimeout Duration `yaml:"health_timeout"`

	// FetchTimeout bounds each data request. Defaults to 30s.
	FetchTimeout Duration `yaml:"fetch_timeout"`

	// Limit is the maximum number of records requested per cycle.
	Limit int `yaml:"limit"`

	// ArchiveCap is the number of batches kept per archive file.
	ArchiveCap int `yaml:"archive_cap"`

	// MetricsFile is the Prometheus textfile name inside Directory.
	MetricsFile string `yaml:"metrics_file"`

	// DisableMetrics turns off the metrics textfile.
	DisableMetrics bool `yaml:"disable_metrics"`

	// StatusAddr enables the HTTP status server, e.g. "127.0.0.1:9100".
	StatusAddr string `yaml:"status_addr"`

	// Log configures the process logger.
	Log LogConfig `yaml:"log"`
}

// LogConfig configures logging for the CLI.
type LogConfig struct {
	// Level is debug, info, warn or error. Defaults to info.
	Level string `yaml:"level"`

	// Format is json or text. Defaults to json.
	Format string `yaml:"format"`

	// File enables a rotating log file in addition to stderr.
	File string `yaml:"file"`

	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in Endpoint, Website, Directory,
// StatusAddr and Log.File. Omitted fields take the package defaults, so an empty document
// is a valid configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Directory == "" {
		c.Directory = DefaultDirectory
	}
	if c.Interval == 0 {
		c.Interval = Duration(DefaultInterval)
	}
	if c.HealthTimeout == 0 {
		c.HealthTimeout = Duration(DefaultHealthTimeout)
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = Duration(DefaultFetchTimeout)
	}
	if c.Limit == 0 {
		c.Limit = DefaultLimit
	}
	if c.ArchiveCap == 0 {
		c.ArchiveCap = DefaultArchiveCap
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// expandAndValidate expands environment variables, applies defaults and
// validates the config.
func (c *Config) expandAndValidate() error {
	fields := []struct {
		name string
		val  *string
	}{
		{"endpoint", &c.Endpoint},
		{"website", &c.Website},
		{"directory", &c.Directory},
		{"status_addr", &c.StatusAddr},
		{"log.file", &c.Log.File},
	}
	for _, f := range fields {
		expanded, err := expandEnvVars(*f.val)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.val = expanded
	}

	c.applyDefaults()

	if err := validateURL(c.Endpoint); err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}
	if c.Website != "" {
		if err := validateURL(c.Website); err != nil {
			return fmt.Errorf("website: %w", err)
		}
	}

	if c.StatusAddr != "" {
		if _, _, err := net.SplitHostPort(c.StatusAddr); err != nil {
			return fmt.Errorf("status_addr: %w", err)
		}
	}

	if c.Interval.Duration() < minInterval {
		return fmt.Errorf("interval must be at least %s, got %s", minInterval, c.Interval.Duration())
	}
	if c.Interval.Duration() > maxInterval {
		return fmt.Errorf("interval must not exceed %s, got %s", maxInterval, c.Interval.Duration())
	}

	timeouts := []struct {
		name string
		d    Duration
	}{
		{"health_timeout", c.HealthTimeout},
		{"fetch_timeout", c.FetchTimeout},
	}
	for _, to := range timeouts {
		if to.d.Duration() < time.Second {
			return fmt.Errorf("%s must be at least 1s, got %s", to.name, to.d.Duration())
		}
	}

	if c.Limit < 0 {
		return fmt.Errorf("limit cannot be negative, got %d", c.Limit)
	}
	if c.ArchiveCap < 0 {
		return fmt.Errorf("archive_cap cannot be negative, got %d", c.ArchiveCap)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation settings cannot be negative")
	}

	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("url must have a scheme (http:// or https://)")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url must have a host")
	}
	return nil
}
