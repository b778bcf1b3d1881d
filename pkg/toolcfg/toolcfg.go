// Package toolcfg loads the joinbench tool configuration: logging,
// output and scenario selection. It is distinct from the benchmark
// configuration, which the config package manages.
package toolcfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the joinbench tool configuration
type Config struct {
	Framework FrameworkConfig `yaml:"framework"`
	Reporting ReportingConfig `yaml:"reporting"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
}

// FrameworkConfig contains general tool settings
type FrameworkConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// ReportingConfig contains reporting and output settings
type ReportingConfig struct {
	// OutputDir, when set, archives a timestamped copy of every run's
	// results in addition to the --out target.
	OutputDir string `yaml:"output_dir"`
	KeepLastN int    `yaml:"keep_last_n"`
}

// BenchmarkConfig selects which packaged scenarios run
type BenchmarkConfig struct {
	Scenarios []string `yaml:"scenarios"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Framework: FrameworkConfig{
			LogLevel:  "info",
			LogFormat: "text",
		},
		Reporting: ReportingConfig{
			OutputDir: "",
			KeepLastN: 50,
		},
		Benchmark: BenchmarkConfig{
			Scenarios: nil, // nil means all packaged scenarios
		},
	}
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// If no path provided, look for joinbench.yaml in current directory
	if path == "" {
		path = "joinbench.yaml"
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Return default config if file doesn't exist
		return cfg, nil
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := []byte(os.ExpandEnv(string(data)))

	// Parse YAML
	if err := yaml.Unmarshal(expandedData, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Framework.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("framework.log_level %q is invalid (must be debug, info, warn or error)", c.Framework.LogLevel)
	}

	switch c.Framework.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("framework.log_format %q is invalid (must be text or json)", c.Framework.LogFormat)
	}

	if c.Reporting.KeepLastN < 0 {
		return fmt.Errorf("reporting.keep_last_n cannot be negative")
	}

	return nil
}
