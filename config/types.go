package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	TestRail    TestRailConfig    `mapstructure:"testrail"`
	Filter      FilterConfig      `mapstructure:"filter"`
	Attachments AttachmentsConfig `mapstructure:"attachments"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// TestRailConfig holds TestRail connection details
type TestRailConfig struct {
	URL            string        `mapstructure:"url"`
	Username       string        `mapstructure:"username"`
	APIKey         string        `mapstructure:"api_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
}

// FilterConfig contains named case filter expressions
type FilterConfig struct {
	Presets map[string]string `mapstructure:"presets"`
}

// AttachmentsConfig limits run attachment uploads
type AttachmentsConfig struct {
	MaxSizeMB int `mapstructure:"max_size_mb"`
}

// MaxBytes returns the upload limit in bytes.
func (c AttachmentsConfig) MaxBytes() int64 {
	return int64(c.MaxSizeMB) << 20
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
