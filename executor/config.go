package executor

import "time"

// Config contains executor configuration.
type Config struct {
	// MaxConcurrent caps the number of runs executing at once. Zero means
	// no limit.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=0"`
	// OperatorTimeout bounds a single operator application. Zero means no
	// timeout.
	OperatorTimeout time.Duration `yaml:"operator_timeout" mapstructure:"operator_timeout" validate:"gte=0"`
	// ServiceName tags traces and metrics emitted by the executor.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
}

// ApplyDefaults applies default values to executor configuration.
func (c *Config) ApplyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "tomopipe"
	}
}
