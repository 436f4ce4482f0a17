// Package config provides YAML configuration parsing for the ummati binary.
//
// This package enables running the client core as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	api:
//	  base_url: ${UMMATI_API:-https://api.ummati.ma/v1}
//	  timeout: 10s
//
//	port: 8080
//	state_file: ~/.ummati/state.db
//	log_level: info
//
//	collections:
//	  events:
//	    path: /events
//	    page_size: 12
//	    debounce: 300ms
//	  ngos:
//	    path: /ngos
//	    on_failure: clear
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort      = 8080
	defaultStateFile = "~/.ummati/state.db"

	// maxDebounce keeps a typo like "300s" from freezing list refreshes.
	maxDebounce = 10 * time.Second

	minTimeout = time.Second
	maxTimeout = 2 * time.Minute
)

// Config is the root configuration structure for the ummati binary.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// API describes the remote marketplace API.
	API APIConfig `yaml:"api"`

	// Port is the UI binding server port. Defaults to 8080.
	Port int `yaml:"port"`

	// StateFile is where the session and preferences are persisted.
	// A leading "~/" is expanded to the home directory.
	// Defaults to ~/.ummati/state.db.
	StateFile string `yaml:"state_file"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level"`

	// Collections configures the events and NGO listings.
	Collections CollectionsConfig `yaml:"collections"`
}

// APIConfig describes the remote API.
type APIConfig struct {
	// BaseURL is the API root, e.g. https://api.ummati.ma/v1. Required.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	BaseURL string `yaml:"base_url"`

	// Timeout bounds each request. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`
}

// CollectionsConfig holds one entry per listing.
type CollectionsConfig struct {
	Events CollectionConfig `yaml:"events"`
	NGOs   CollectionConfig `yaml:"ngos"`
}

// CollectionConfig configures a single paginated listing.
type CollectionConfig struct {
	// Path is the list endpoint relative to the base URL.
	// Defaults to /events or /ngos.
	Path string `yaml:"path"`

	// PageSize is the number of items per page. Defaults to 12.
	PageSize int `yaml:"page_size"`

	// Debounce is the quiet period before a filter change is fetched.
	// Defaults to 300ms.
	Debounce Duration `yaml:"debounce"`

	// OnFailure is "keep" (default) to leave the previous result visible
	// when a fetch fails, or "clear" to empty it.
	OnFailure string `yaml:"on_failure"`

	// Headers are extra HTTP headers sent with each list request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`
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

// Level converts LogLevel to a slog level. Unknown values map to info;
// [Parse] rejects them before this is reached.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
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

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
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
// Environment variables are expanded in the base URL, state file and header
// values. Defaults are applied for Port (8080), StateFile, LogLevel (info)
// and the collection paths.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.StateFile == "" {
		cfg.StateFile = defaultStateFile
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Collections.Events.Path == "" {
		cfg.Collections.Events.Path = "/events"
	}
	if cfg.Collections.NGOs.Path == "" {
		cfg.Collections.NGOs.Path = "/ngos"
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	expanded, err := expandEnvVars(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	c.API.BaseURL = expanded

	parsedURL, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: invalid url: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("api.base_url: scheme must be http or https, got %q", parsedURL.Scheme)
	}

	if c.API.Timeout != 0 {
		if c.API.Timeout.Duration() < minTimeout {
			return fmt.Errorf("api.timeout must be at least %s, got %s", minTimeout, c.API.Timeout.Duration())
		}
		if c.API.Timeout.Duration() > maxTimeout {
			return fmt.Errorf("api.timeout must not exceed %s, got %s", maxTimeout, c.API.Timeout.Duration())
		}
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	stateFile, err := expandEnvVars(c.StateFile)
	if err != nil {
		return fmt.Errorf("state_file: %w", err)
	}
	if c.StateFile, err = expandHome(stateFile); err != nil {
		return fmt.Errorf("state_file: %w", err)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	if err := validateCollection(&c.Collections.Events, "collections.events"); err != nil {
		return err
	}
	if err := validateCollection(&c.Collections.NGOs, "collections.ngos"); err != nil {
		return err
	}
	if c.Collections.Events.Path == c.Collections.NGOs.Path {
		return fmt.Errorf("collections.events and collections.ngos share path %q", c.Collections.Events.Path)
	}

	return nil
}

// validateCollection expands header values and checks limits.
func validateCollection(cc *CollectionConfig, context string) error {
	if !strings.HasPrefix(cc.Path, "/") {
		return fmt.Errorf("%s: path must start with /, got %q", context, cc.Path)
	}

	if cc.PageSize < 0 {
		return fmt.Errorf("%s: page_size cannot be negative, got %d", context, cc.PageSize)
	}

	if cc.Debounce.Duration() < 0 {
		return fmt.Errorf("%s: debounce cannot be negative, got %s", context, cc.Debounce.Duration())
	}
	if cc.Debounce.Duration() > maxDebounce {
		return fmt.Errorf("%s: debounce must not exceed %s, got %s", context, maxDebounce, cc.Debounce.Duration())
	}

	switch cc.OnFailure {
	case "", "keep", "clear":
	default:
		return fmt.Errorf("%s: on_failure must be keep or clear, got %q", context, cc.OnFailure)
	}

	for k, v := range cc.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("%s: headers[%s]: %w", context, k, err)
		}
		cc.Headers[k] = expanded
	}

	return nil
}
