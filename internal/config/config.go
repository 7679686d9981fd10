// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shineum/mailxml/internal/xmlfile"
)

// DefaultFile is the document name used when none is configured.
const DefaultFile = "xml_file_internal_storage"

// Config holds the complete application configuration.
type Config struct {
	Storage  StorageConfig `yaml:"storage"`
	Reader   ReaderConfig  `yaml:"reader"`
	Provider string        `yaml:"provider"`
	SES      SESConfig     `yaml:"ses"`
	Logging  LoggingConfig `yaml:"logging"`
}

// StorageConfig locates the persisted document.
type StorageConfig struct {
	Dir  string `yaml:"dir"`
	File string `yaml:"file"`
}

// ReaderConfig holds parser policies.
type ReaderConfig struct {
	UnknownTags string `yaml:"unknown_tags"`
}

// SESConfig holds AWS SES configuration.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Sender          string `yaml:"sender"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// SESConfigured returns true if the SES region and sender are set.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != "" && c.SES.Sender != ""
}

// UnknownTagPolicy returns the configured reader policy.
func (c *Config) UnknownTagPolicy() (xmlfile.UnknownTagPolicy, error) {
	return xmlfile.ParseUnknownTagPolicy(c.Reader.UnknownTags)
}

// Validate rejects values the application cannot act on.
func (c *Config) Validate() error {
	if c.Storage.Dir == "" {
		return fmt.Errorf("storage.dir is required")
	}
	if c.Storage.File == "" || strings.ContainsAny(c.Storage.File, `/\`) {
		return fmt.Errorf("storage.file must be a plain file name, got %q", c.Storage.File)
	}
	if _, err := c.UnknownTagPolicy(); err != nil {
		return fmt.Errorf("reader.unknown_tags: %w", err)
	}

	switch c.Provider {
	case "", "stdout", "none":
	case "ses":
		if !c.SESConfigured() {
			return fmt.Errorf("ses provider selected but SES_REGION and SES_SENDER are required")
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid logging.format: %s", c.Logging.Format)
	}
	return nil
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Storage.Dir = defaultDir()
	c.Storage.File = DefaultFile
	c.Reader.UnknownTags = "reset"
	c.Provider = "stdout"
	c.Logging.Level = "info"
	c.Logging.Format = "json"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("MAILXML_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("MAILXML_FILE"); v != "" {
		c.Storage.File = v
	}
	if v := os.Getenv("MAILXML_UNKNOWN_TAGS"); v != "" {
		c.Reader.UnknownTags = strings.ToLower(v)
	}
	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		c.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		c.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		c.SES.SecretAccessKey = v
	}
	if v := os.Getenv("SES_SENDER"); v != "" {
		c.SES.Sender = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
}

func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mailxml"
	}
	return filepath.Join(home, ".mailxml")
}
