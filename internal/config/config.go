// Package config provides configuration loading and validation for the CLI.
//
// Values come from, in increasing priority: compiled defaults, an optional
// sitecheck.yaml, SITECHECK_* environment variables and explicit overrides from
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jonathan/sitecheck/internal/images"
	"github.com/jonathan/sitecheck/internal/inventory"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SITECHECK"

// Config represents the full tool configuration.
type Config struct {
	// Paths
	Root      string `mapstructure:"root" validate:"required"`       // Site source root
	PublicDir string `mapstructure:"public_dir" validate:"required"` // Static asset dir, relative to Root
	LinkRules string `mapstructure:"link_rules"`                     // YAML file overriding the embedded link rules

	// Site
	Origin         string               `mapstructure:"origin" validate:"omitempty,url"` // e.g. https://example.com
	PageRoots      []inventory.PageRoot `mapstructure:"page_roots" validate:"dive"`
	Exclude        []string             `mapstructure:"exclude"`         // Extra page globs to skip
	DynamicHelpers []string             `mapstructure:"dynamic_helpers"` // Functions that build metadata at runtime

	Images ImageConfig `mapstructure:"images"`
	Log    LogConfig   `mapstructure:"log"`
	Watch  WatchConfig `mapstructure:"watch"`

	// Behavior
	Concurrency  int    `mapstructure:"concurrency" validate:"min=1,max=256"` // Bounded in-flight file reads
	CacheEntries int    `mapstructure:"cache_entries" validate:"min=0"`       // Source text LRU size
	DatabaseURL  string `mapstructure:"database_url" validate:"omitempty,url"`
	MetricsFile  string `mapstructure:"metrics_file"` // node-exporter textfile target
}

// ImageConfig holds image validation settings.
type ImageConfig struct {
	MaxFileSize    int64    `mapstructure:"max_file_size" validate:"min=1"`
	MaxDimension   int      `mapstructure:"max_dimension" validate:"min=1"`
	SkipFormat     bool     `mapstructure:"skip_format"`
	SourcePatterns []string `mapstructure:"source_patterns"`
	Ignore         []string `mapstructure:"ignore"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// WatchConfig holds settings of the watch command.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" validate:"min=0"`
}

// ConfigError represents a configuration that cannot be loaded or is invalid
type ConfigError struct {
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

func setDefaults(v *viper.Viper) {
	roots := make([]map[string]any, 0, 4)
	for _, root := range inventory.DefaultPageRoots() {
		roots = append(roots, map[string]any{"dir": root.Dir, "router": string(root.Router)})
	}

	v.SetDefault("root", ".")
	v.SetDefault("public_dir", "public")
	v.SetDefault("link_rules", "")
	v.SetDefault("origin", "")
	v.SetDefault("page_roots", roots)
	v.SetDefault("exclude", []string{})
	v.SetDefault("dynamic_helpers", []string{})
	v.SetDefault("images.max_file_size", images.DefaultMaxFileSize)
	v.SetDefault("images.max_dimension", images.DefaultMaxDimension)
	v.SetDefault("images.skip_format", false)
	v.SetDefault("images.source_patterns", images.DefaultSourcePatterns)
	v.SetDefault("images.ignore", images.DefaultIgnorePatterns)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("watch.debounce", 500*time.Millisecond)
	v.SetDefault("concurrency", 8)
	v.SetDefault("cache_entries", 1024)
	v.SetDefault("database_url", "")
	v.SetDefault("metrics_file", "")
}

// Load reads configuration. An empty path looks for sitecheck.yaml in the working
// directory and tolerates its absence; an explicit path must exist. Overrides are
// keyed by config key (e.g. "origin", "images.skip_format") and win over everything.
func Load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, &ConfigError{Message: fmt.Sprintf("failed to read config file %s", path), Cause: err}
		}
	} else {
		v.SetConfigName("sitecheck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, &ConfigError{Message: "failed to read sitecheck.yaml", Cause: err}
			}
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Message: "failed to decode configuration", Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return &ConfigError{Message: describeValidationErrors(err), Cause: err}
	}
	return nil
}

// describeValidationErrors extracts a readable message from validator errors.
func describeValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return "invalid configuration"
	}
	parts := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		parts = append(parts, fmt.Sprintf("%s failed '%s'", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// Thresholds returns the image limits as the images package expects them.
func (c *Config) Thresholds() images.Thresholds {
	return images.Thresholds{MaxFileSize: c.Images.MaxFileSize, MaxDimension: c.Images.MaxDimension}
}
