// Package config loads the LaDeRR pipeline's run configuration (SPEC_FULL.md
// section A.2): default base namespace, the rule engine's iteration cap,
// the default serialization format, validator strictness defaults, and the
// pipeline-stage logging level/categories.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"laderr/internal/logging"
)

// ValidSerializers lists the serializer names internal/serialize accepts
// (spec section 6.2).
var ValidSerializers = []string{"turtle", "ntriples", "jsonld"}

// Config holds every run-level setting the core pipeline (and the CLI
// collaborator that drives it) reads before a run starts.
type Config struct {
	// BaseURI is the configured default base namespace (spec section 3.1).
	// It is read from the file and from LADERR_BASE_URI, but the pipeline
	// does not consult it: a document without a valid baseURI always gets
	// the ingestor's own sentinel namespace.
	BaseURI string `yaml:"base_uri"`

	// MaxIterations caps the rule engine's fixed-point loop (spec section
	// 4.6); exceeding it raises NonConvergingError.
	MaxIterations int `yaml:"max_iterations"`

	// Serializer names the default output format among ValidSerializers.
	Serializer string `yaml:"serializer"`

	// ValidatePreDefault and ValidateDefault mirror the CLI's
	// --validate-pre/--validate flags (spec section 6.3) when the flag is
	// not explicitly set.
	ValidatePreDefault bool `yaml:"validate_pre_default"`
	ValidateDefault    bool `yaml:"validate_default"`

	Logging LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		BaseURI:            "https://laderr.example/#",
		MaxIterations:      64,
		Serializer:         "ntriples",
		ValidatePreDefault: false,
		ValidateDefault:    false,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file at path, falling back to DefaultConfig
// when the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	logging.BuildDebug("loading config from %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Build("config file not found, using defaults: %s", path)
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		logging.BuildError("failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		logging.BuildError("failed to parse config file %s: %v", path, err)
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	logging.Build("config loaded: baseURI=%s maxIterations=%d serializer=%s", cfg.BaseURI, cfg.MaxIterations, cfg.Serializer)
	return cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets the CLI collaborator override config values
// without a file, mirroring the teacher's applyEnvOverrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LADERR_BASE_URI"); v != "" {
		c.BaseURI = v
	}
	if v := os.Getenv("LADERR_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxIterations = n
		}
	}
	if v := os.Getenv("LADERR_SERIALIZER"); v != "" {
		c.Serializer = v
	}
	if v := os.Getenv("LADERR_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
		c.Logging.DebugMode = true
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	for _, s := range ValidSerializers {
		if s == c.Serializer {
			return nil
		}
	}
	return fmt.Errorf("invalid serializer %q (valid: %v)", c.Serializer, ValidSerializers)
}
