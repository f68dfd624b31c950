// Package config provides configuration management for the teamsartifacts
// command-line tool. It supports loading configuration from YAML files and
// environment variables, with command-line flags layered on top.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/chiabertolotti/teamsartifacts/pkg/errors"
)

// OutputFormat defines the supported record output formats.
type OutputFormat string

const (
	// OutputFormatJSONL writes one category-wrapped record per line.
	OutputFormatJSONL OutputFormat = "jsonl"
)

// Default configuration values.
const (
	DefaultPeopleFile        = "output_people.json"
	DefaultConversationsFile = "output_conversations.json"
	DefaultOutputPath        = "records.jsonl"
	DefaultOutputFormat      = OutputFormatJSONL
	DefaultWorkers           = 4
	DefaultLogLevel          = "info"
)

// ExportConfig locates the export files to ingest.
type ExportConfig struct {
	// Dir is the directory holding the export .json files.
	Dir string `yaml:"dir"`

	// PeopleFile and ConversationsFile override the canonical file names.
	// Every other .json file in Dir is treated as reply-chain data.
	PeopleFile        string `yaml:"people_file,omitempty"`
	ConversationsFile string `yaml:"conversations_file,omitempty"`
}

// OutputConfig controls where records are written.
type OutputConfig struct {
	Path   string       `yaml:"path"`
	Format OutputFormat `yaml:"format"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// JSON switches from console to JSON log output.
	JSON bool `yaml:"json,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Listen  string `yaml:"listen,omitempty"`
}

// Config holds the full tool configuration.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Output  OutputConfig  `yaml:"output"`
	Workers int           `yaml:"workers"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// Default returns a Config with default values. The export directory has
// no default; it must come from file, environment, or flag.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			PeopleFile:        DefaultPeopleFile,
			ConversationsFile: DefaultConversationsFile,
		},
		Output: OutputConfig{
			Path:   DefaultOutputPath,
			Format: DefaultOutputFormat,
		},
		Workers: DefaultWorkers,
		Log:     LogConfig{Level: DefaultLogLevel},
	}
}

// Load builds the configuration in override order: defaults, then the YAML
// file at path when non-empty, then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	loadFromEnv(cfg)
	return cfg, nil
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TEAMSARTIFACTS_EXPORT_DIR"); v != "" {
		cfg.Export.Dir = v
	}
	if v := os.Getenv("TEAMSARTIFACTS_OUTPUT_PATH"); v != "" {
		cfg.Output.Path = v
	}
	if v := os.Getenv("TEAMSARTIFACTS_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("TEAMSARTIFACTS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TEAMSARTIFACTS_LOG_JSON"); v == "true" || v == "1" {
		cfg.Log.JSON = true
	}
	if v := os.Getenv("TEAMSARTIFACTS_METRICS_LISTEN"); v != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Listen = v
	}
}

// Validate checks the configuration for an ingestion run. Failures wrap
// errors.ErrValidation.
func (c *Config) Validate() error {
	if c.Export.Dir == "" {
		return fmt.Errorf("%w: export directory is required", errors.ErrValidation)
	}
	info, err := os.Stat(c.Export.Dir)
	if err != nil {
		return fmt.Errorf("%w: export directory: %v", errors.ErrValidation, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: export path %q is not a directory", errors.ErrValidation, c.Export.Dir)
	}
	if c.Output.Path == "" {
		return fmt.Errorf("%w: output path is required", errors.ErrValidation)
	}
	if c.Output.Format != OutputFormatJSONL {
		return fmt.Errorf("%w: unsupported output format %q", errors.ErrValidation, c.Output.Format)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", errors.ErrValidation, c.Workers)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", errors.ErrValidation, c.Log.Level)
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return fmt.Errorf("%w: metrics listen address is required when metrics are enabled", errors.ErrValidation)
	}
	return nil
}
