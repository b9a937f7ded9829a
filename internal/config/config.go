package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "transitcli/internal/errors"
	"transitcli/pkg/contracts/domain"
)

// Config represents the complete application configuration
type Config struct {
	Merge     MergeConfig     `yaml:"merge" envconfig:"MERGE"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// MergeConfig contains everything the merge pipeline needs to know about its
// inputs and outputs.
type MergeConfig struct {
	InputDir     string         `yaml:"input_dir" envconfig:"INPUT_DIR" validate:"required"`
	OutputDir    string         `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	Extensions   []string       `yaml:"extensions" envconfig:"EXTENSIONS" validate:"min=1,dive,startswith=."`
	Categories   []CategoryRule `yaml:"categories" ignored:"true" validate:"min=1,dive"`
	UnknownYear  string         `yaml:"unknown_year" envconfig:"UNKNOWN_YEAR" validate:"required"`
	OutputSuffix string         `yaml:"output_suffix" envconfig:"OUTPUT_SUFFIX" validate:"required,endswith=.csv"`
}

// CategoryRule assigns a file to Name when its lower-cased stem contains Match.
type CategoryRule struct {
	Name  string `yaml:"name" validate:"required"`
	Match string `yaml:"match" validate:"required"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig controls tracing and the metrics textfile.
type TelemetryConfig struct {
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// Load builds the configuration from defaults, then the YAML file at path (if
// path is empty the usual locations are searched), then TRANSIT_* environment
// variables, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("failed to load config from %s", path), err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// normalize lower-cases the values that are compared case-insensitively
func (c *Config) normalize() {
	for i, ext := range c.Merge.Extensions {
		c.Merge.Extensions[i] = strings.ToLower(strings.TrimSpace(ext))
	}
	for i := range c.Merge.Categories {
		c.Merge.Categories[i].Match = strings.ToLower(c.Merge.Categories[i].Match)
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Output = strings.ToLower(c.Logging.Output)
	c.Telemetry.TraceExporter = strings.ToLower(c.Telemetry.TraceExporter)

	// Structured logs are always JSON
	c.Logging.Format = DefaultLogFormat
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}
}

// Validate checks struct tags and the rules that span several fields,
// reporting every violation at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if err := validator.New().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				result = multierror.Append(result,
					fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
		} else {
			result = multierror.Append(result, err)
		}
	}

	for _, ext := range c.Merge.Extensions {
		if _, ok := domain.FormatFromExtension(ext); !ok {
			result = multierror.Append(result, fmt.Errorf("unsupported extension %q", ext))
		}
	}

	names := make(map[string]bool)
	for _, rule := range c.Merge.Categories {
		if names[rule.Name] {
			result = multierror.Append(result, fmt.Errorf("duplicate category %q", rule.Name))
		}
		names[rule.Name] = true
		if strings.ContainsAny(rule.Name, `/\`) {
			result = multierror.Append(result, fmt.Errorf("category %q must not contain path separators", rule.Name))
		}
	}

	return result.ErrorOrNil()
}

// CategoryNames returns the configured categories in priority order.
func (c *Config) CategoryNames() []string {
	names := make([]string, len(c.Merge.Categories))
	for i, rule := range c.Merge.Categories {
		names[i] = rule.Name
	}
	return names
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	// Check for config file in common locations
	locations := []string{
		"transit.yaml",
		"configs/transit.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Merge: MergeConfig{
			InputDir:     DefaultInputDir,
			OutputDir:    DefaultOutputDir,
			Extensions:   DefaultExtensions(),
			Categories:   DefaultCategoryRules(),
			UnknownYear:  DefaultUnknownYear,
			OutputSuffix: DefaultOutputSuffix,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   DefaultLogOutput,
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			TraceExporter: DefaultTraceExporter,
		},
	}
}
