package config

import (
	"fmt"
	"time"

	"github.com/voxelkit/tomopipe/executor"
	"github.com/voxelkit/tomopipe/logger"
	"github.com/voxelkit/tomopipe/observability"
	"github.com/voxelkit/tomopipe/version"
)

// BaseConfig contains the identity fields every deployment needs.
type BaseConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`
}

// ApplyDefaults applies default values to base configuration.
func (c *BaseConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "tomopipe"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Version == "" {
		c.Version = version.Version
	}
}

// Validate validates base configuration.
func (c *BaseConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("base.name is required")
	}
	validEnvs := []string{"development", "staging", "production"}
	for _, v := range validEnvs {
		if c.Environment == v {
			return nil
		}
	}
	return fmt.Errorf("base.environment must be one of [development, staging, production] (got: %s)", c.Environment)
}

// TracingConfig configures trace export.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// ApplyDefaults applies default values to tracing configuration.
func (c *TracingConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
		c.Insecure = true
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
}

// Validate validates tracing configuration.
func (c *TracingConfig) Validate() error {
	if c.Enabled && c.Endpoint == "" {
		return fmt.Errorf("tracing.endpoint is required when tracing is enabled")
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1 (got: %v)", c.SampleRate)
	}
	return nil
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ApplyDefaults applies default values to metrics configuration.
func (c *MetricsConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
		c.Insecure = true
	}
	if c.Interval == 0 {
		c.Interval = 15 * time.Second
	}
}

// Validate validates metrics configuration.
func (c *MetricsConfig) Validate() error {
	if c.Enabled && c.Endpoint == "" {
		return fmt.Errorf("metrics.endpoint is required when metrics are enabled")
	}
	if c.Interval < 0 {
		return fmt.Errorf("metrics.interval must not be negative (got: %v)", c.Interval)
	}
	return nil
}

// Config is the aggregate tomopipe configuration.
type Config struct {
	Base     BaseConfig      `yaml:"base" mapstructure:"base"`
	Logging  logger.Config   `yaml:"logging" mapstructure:"logging"`
	Executor executor.Config `yaml:"executor" mapstructure:"executor"`
	Tracing  TracingConfig   `yaml:"tracing" mapstructure:"tracing"`
	Metrics  MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
}

// ApplyDefaults applies defaults to every section and propagates the
// deployment name into the sections that tag telemetry with it.
func (c *Config) ApplyDefaults() {
	c.Base.ApplyDefaults()
	c.Logging.ApplyDefaults()
	if c.Executor.ServiceName == "" {
		c.Executor.ServiceName = c.Base.Name
	}
	c.Executor.ApplyDefaults()
	c.Tracing.ApplyDefaults()
	c.Metrics.ApplyDefaults()
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.Base.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if c.Executor.MaxConcurrent < 0 {
		return fmt.Errorf("executor.max_concurrent must not be negative (got: %d)", c.Executor.MaxConcurrent)
	}
	if c.Executor.OperatorTimeout < 0 {
		return fmt.Errorf("executor.operator_timeout must not be negative (got: %v)", c.Executor.OperatorTimeout)
	}
	if err := c.Tracing.Validate(); err != nil {
		return err
	}
	return c.Metrics.Validate()
}

// TracerConfig builds the observability tracer configuration from the
// aggregate settings.
func (c *Config) TracerConfig() observability.TracerConfig {
	return observability.TracerConfig{
		ServiceName:    c.Base.Name,
		ServiceVersion: c.Base.Version,
		Environment:    c.Base.Environment,
		Endpoint:       c.Tracing.Endpoint,
		Insecure:       c.Tracing.Insecure,
		SampleRate:     c.Tracing.SampleRate,
	}
}

// MeterConfig builds the observability meter configuration from the
// aggregate settings.
func (c *Config) MeterConfig() observability.MeterConfig {
	return observability.MeterConfig{
		ServiceName:    c.Base.Name,
		ServiceVersion: c.Base.Version,
		Environment:    c.Base.Environment,
		Endpoint:       c.Metrics.Endpoint,
		Insecure:       c.Metrics.Insecure,
		Interval:       c.Metrics.Interval,
	}
}
