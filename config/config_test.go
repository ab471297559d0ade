package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Base.Name != "tomopipe" {
		t.Errorf("expected default name 'tomopipe', got %q", cfg.Base.Name)
	}
	if cfg.Base.Environment != "development" {
		t.Errorf("expected 'development', got %q", cfg.Base.Environment)
	}
	if !cfg.Base.Debug {
		t.Error("expected debug=true for development")
	}
	if cfg.Base.Version != "dev" {
		t.Errorf("expected build version default 'dev', got %q", cfg.Base.Version)
	}
	if cfg.Executor.ServiceName != "tomopipe" {
		t.Errorf("expected executor service name propagated, got %q", cfg.Executor.ServiceName)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level 'info', got %q", cfg.Logging.Level)
	}
	if cfg.Tracing.Endpoint != "localhost:4318" || !cfg.Tracing.Insecure {
		t.Errorf("expected insecure local tracing default, got %+v", cfg.Tracing)
	}
	if cfg.Tracing.SampleRate != 1.0 {
		t.Errorf("expected sample rate 1.0, got %v", cfg.Tracing.SampleRate)
	}
	if cfg.Metrics.Interval != 15*time.Second {
		t.Errorf("expected 15s metric interval, got %v", cfg.Metrics.Interval)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{
		Base:    BaseConfig{Name: "recon", Environment: "production"},
		Tracing: TracingConfig{Endpoint: "collector:4318", SampleRate: 0.25},
	}
	cfg.ApplyDefaults()

	if cfg.Base.Debug {
		t.Error("expected debug=false for production")
	}
	if cfg.Executor.ServiceName != "recon" {
		t.Errorf("expected service name 'recon', got %q", cfg.Executor.ServiceName)
	}
	if cfg.Tracing.Endpoint != "collector:4318" {
		t.Errorf("expected explicit endpoint kept, got %q", cfg.Tracing.Endpoint)
	}
	if cfg.Tracing.Insecure {
		t.Error("expected explicit endpoint to stay secure")
	}
	if cfg.Tracing.SampleRate != 0.25 {
		t.Errorf("expected sample rate kept, got %v", cfg.Tracing.SampleRate)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var cfg Config
		cfg.ApplyDefaults()
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"missing name", func(c *Config) { c.Base.Name = "" }, "base.name is required"},
		{"bad environment", func(c *Config) { c.Base.Environment = "qa" }, "base.environment must be one of"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"negative concurrency", func(c *Config) { c.Executor.MaxConcurrent = -1 }, "executor.max_concurrent"},
		{"negative timeout", func(c *Config) { c.Executor.OperatorTimeout = -time.Second }, "executor.operator_timeout"},
		{"sample rate out of range", func(c *Config) { c.Tracing.SampleRate = 1.5 }, "tracing.sample_rate"},
		{"negative metric interval", func(c *Config) { c.Metrics.Interval = -time.Second }, "metrics.interval"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
			}
		})
	}
}

func TestTracerAndMeterConfig(t *testing.T) {
	cfg := Config{
		Base:    BaseConfig{Name: "recon", Environment: "staging", Version: "2.1.0"},
		Tracing: TracingConfig{Endpoint: "collector:4318", SampleRate: 0.5},
		Metrics: MetricsConfig{Endpoint: "collector:4318", Interval: time.Minute},
	}

	tc := cfg.TracerConfig()
	if tc.ServiceName != "recon" || tc.Environment != "staging" || tc.ServiceVersion != "2.1.0" {
		t.Errorf("unexpected tracer identity: %+v", tc)
	}
	if tc.Endpoint != "collector:4318" || tc.SampleRate != 0.5 {
		t.Errorf("unexpected tracer export settings: %+v", tc)
	}

	mc := cfg.MeterConfig()
	if mc.ServiceName != "recon" || mc.Interval != time.Minute {
		t.Errorf("unexpected meter settings: %+v", mc)
	}
}

func TestLoadWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
base:
  name: recon
  environment: staging
  version: "1.2.0"
logging:
  level: debug
  format: json
executor:
  max_concurrent: 2
  operator_timeout: 30s
tracing:
  enabled: true
  endpoint: collector:4318
  sample_rate: 0.5
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg Config
	if err := Load("recon", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Base.Name != "recon" || cfg.Base.Environment != "staging" {
		t.Errorf("unexpected base section: %+v", cfg.Base)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging section: %+v", cfg.Logging)
	}
	if cfg.Executor.MaxConcurrent != 2 {
		t.Errorf("expected max_concurrent 2, got %d", cfg.Executor.MaxConcurrent)
	}
	if cfg.Executor.OperatorTimeout != 30*time.Second {
		t.Errorf("expected 30s operator timeout, got %v", cfg.Executor.OperatorTimeout)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.SampleRate != 0.5 {
		t.Errorf("unexpected tracing section: %+v", cfg.Tracing)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
executor:
  max_concurrent: 2
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("EXECUTOR_MAX_CONCURRENT", "8")

	var cfg Config
	if err := Load("recon", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Executor.MaxConcurrent != 8 {
		t.Errorf("expected env override 8, got %d", cfg.Executor.MaxConcurrent)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	var cfg Config
	if err := Load("nonexistent", &cfg, WithConfigFile(filepath.Join(t.TempDir(), "absent.yml"))); err != nil {
		t.Fatalf("expected Load to succeed with a missing file, got %v", err)
	}
}

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/recon/config.yml": true,
		"./.env":                 true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("recon", LoaderConfig{})
	if files.ConfigFile != "./cmd/recon/config.yml" {
		t.Errorf("expected config under ./cmd/recon, got %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("expected ./.env, got %q", files.EnvFile)
	}
}

func TestResolverPrefersExplicitPaths(t *testing.T) {
	fs := &mockFS{files: map[string]bool{"./config.yml": true}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("recon", LoaderConfig{ConfigFile: "/etc/tomopipe/config.yml"})
	if files.ConfigFile != "/etc/tomopipe/config.yml" {
		t.Errorf("expected explicit path kept, got %q", files.ConfigFile)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	variants := envKeyVariants("EXECUTOR_MAX_CONCURRENT")
	found := false
	for _, v := range variants {
		if v == "executor.max_concurrent" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected executor.max_concurrent among %v", variants)
	}

	if got := envKeyVariants("PATH"); len(got) != 1 || got[0] != "path" {
		t.Errorf("expected single lowercase variant, got %v", got)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }
