// Package config provides YAML configuration parsing for triageboard.
//
// This package enables running triageboard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Urgências
//	base_url: ${TRIAGE_URL:-http://localhost:8000}
//	port: 8080
//	poll_interval: 2s
//	timeout: 5s
//	doctor_summary: derived
//
//	paths:
//	  medicos: /api/v2/medicos/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// minPollInterval is the minimum allowed polling interval.
	// This prevents accidental DoS of the backend with overly aggressive polling.
	minPollInterval = 1 * time.Second

	defaultPort         = 8080
	defaultPollInterval = 2 * time.Second
	defaultTimeout      = 5 * time.Second

	// DefaultEnvFile is loaded by [LoadDefaultEnvFile] when present.
	DefaultEnvFile = ".env"
)

// Doctor summary modes.
const (
	// SummaryDerived counts free and occupied doctors from the roster.
	SummaryDerived = "derived"

	// SummaryReported uses the counts the backend sends alongside the roster.
	SummaryReported = "reported"
)

// Config is the root configuration structure for triageboard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "Urgências" if not set.
	Title string `yaml:"title"`

	// BaseURL is the triage backend the feeds are fetched from. Required.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	BaseURL string `yaml:"base_url"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// PollInterval is the time between ticks. Defaults to 2s, minimum 1s.
	PollInterval Duration `yaml:"poll_interval"`

	// Timeout bounds each feed request. Defaults to 5s.
	Timeout Duration `yaml:"timeout"`

	// DoctorSummary is "derived" (default) or "reported".
	DoctorSummary string `yaml:"doctor_summary"`

	// Paths overrides the feed paths relative to BaseURL.
	Paths PathsConfig `yaml:"paths"`
}

// PathsConfig overrides individual feed paths. Empty fields keep the default.
type PathsConfig struct {
	Queues  string `yaml:"filas"`
	Stats   string `yaml:"stats"`
	Doctors string `yaml:"medicos"`
}

// Reported reports whether the backend's doctor counts are used.
func (c *Config) Reported() bool {
	return c.DoctorSummary == SummaryReported
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

// LoadEnvFile loads variables from a dotenv file into the process
// environment. Variables already set are not overridden.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// LoadDefaultEnvFile loads [DefaultEnvFile] if it exists. It reports whether
// a file was loaded.
func LoadDefaultEnvFile() (bool, error) {
	if _, err := os.Stat(DefaultEnvFile); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := LoadEnvFile(DefaultEnvFile); err != nil {
		return false, err
	}
	return true, nil
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
// Environment variables are expanded in BaseURL and Paths. Defaults are
// applied for Port (8080), PollInterval (2s), Timeout (5s) and
// DoctorSummary (derived).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = Duration(defaultPollInterval)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = Duration(defaultTimeout)
	}
	if cfg.DoctorSummary == "" {
		cfg.DoctorSummary = SummaryDerived
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	expanded, err := expandEnvVars(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	c.BaseURL = expanded

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if parsedURL.Scheme == "" {
		return errors.New("base_url must have a scheme (http:// or https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("base_url scheme must be http or https, got %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return errors.New("base_url must have a host")
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}

	if c.Timeout.Duration() < 0 {
		return fmt.Errorf("timeout cannot be negative, got %s", c.Timeout.Duration())
	}
	if c.Timeout.Duration() < time.Second {
		return fmt.Errorf("timeout must be at least 1s if specified, got %s", c.Timeout.Duration())
	}

	switch c.DoctorSummary {
	case SummaryDerived, SummaryReported:
	default:
		return fmt.Errorf("doctor_summary must be %q or %q, got %q", SummaryDerived, SummaryReported, c.DoctorSummary)
	}

	for name, p := range map[string]*string{
		"filas":   &c.Paths.Queues,
		"stats":   &c.Paths.Stats,
		"medicos": &c.Paths.Doctors,
	} {
		if *p == "" {
			continue
		}
		expanded, err := expandEnvVars(*p)
		if err != nil {
			return fmt.Errorf("paths[%s]: %w", name, err)
		}
		if _, err := url.Parse(expanded); err != nil {
			return fmt.Errorf("paths[%s]: invalid path: %w", name, err)
		}
		*p = expanded
	}

	return nil
}
