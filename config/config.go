package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides for every key without a
// dedicated variable, e.g. TESTRAIL_MCP_LOGGING_LEVEL.
const EnvPrefix = "TESTRAIL_MCP"

// credentialEnv maps keys to the variables TestRail tooling conventionally uses.
var credentialEnv = map[string]string{
	"testrail.url":      "TESTRAIL_INSTANCE_URL",
	"testrail.username": "TESTRAIL_USERNAME",
	"testrail.api_key":  "TESTRAIL_API_KEY",
}

// Load loads the configuration from the environment and an optional file.
// An explicit configPath must exist; the default locations may be empty.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".testrail-mcp"))
		}

		// Check /etc
		v.AddConfigPath("/etc/testrail-mcp/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// TestRail defaults
	v.SetDefault("testrail.url", "")
	v.SetDefault("testrail.username", "")
	v.SetDefault("testrail.api_key", "")
	v.SetDefault("testrail.timeout", "0s")
	v.SetDefault("testrail.max_concurrency", 8)

	// Attachment defaults
	v.SetDefault("attachments.max_size_mb", 256)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()))
}

// bindEnv wires the TestRail credential variables first, then the prefixed
// fallback for everything else.
func bindEnv(v *viper.Viper) error {
	for key, env := range credentialEnv {
		if err := v.BindEnv(key, env, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return nil
}

// validate checks the configuration and reports every problem at once
func validate(cfg *Config) error {
	var result *multierror.Error

	if cfg.TestRail.URL == "" {
		result = multierror.Append(result, errors.New("testrail.url is required (set TESTRAIL_INSTANCE_URL)"))
	} else if u, err := url.Parse(cfg.TestRail.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("testrail.url must be an absolute http(s) URL: %s", cfg.TestRail.URL))
	}

	if cfg.TestRail.Username == "" {
		result = multierror.Append(result, errors.New("testrail.username is required (set TESTRAIL_USERNAME)"))
	}

	if cfg.TestRail.APIKey == "" {
		result = multierror.Append(result, errors.New("testrail.api_key is required (set TESTRAIL_API_KEY)"))
	}

	if cfg.TestRail.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("testrail.timeout must not be negative: %s", cfg.TestRail.Timeout))
	}

	if cfg.Attachments.MaxSizeMB <= 0 {
		result = multierror.Append(result, fmt.Errorf("attachments.max_size_mb must be positive: %d", cfg.Attachments.MaxSizeMB))
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		result = multierror.Append(result, fmt.Errorf("invalid logging level: %s", cfg.Logging.Level))
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		result = multierror.Append(result, fmt.Errorf("invalid logging format: %s", cfg.Logging.Format))
	}

	for name, expression := range cfg.Filter.Presets {
		if strings.TrimSpace(expression) == "" {
			result = multierror.Append(result, fmt.Errorf("filter preset %q has an empty expression", name))
		}
	}

	return result.ErrorOrNil()
}
