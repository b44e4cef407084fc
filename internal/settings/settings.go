// Package settings loads the Cartographer's own configuration from a
// TOML file, following a Load -> applyDefaults -> validateX cascade.
package settings

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"circular/internal/resolve"
)

// Config is the top-level settings file for cmd/cartographer.
type Config struct {
	Version  int            `toml:"version"`
	Resolver ResolverConfig `toml:"resolver"`
	History  HistoryConfig  `toml:"history"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Tracing  TracingConfig  `toml:"tracing"`
	FanIn    int            `toml:"fan_in"`
}

// ResolverConfig mirrors resolve.Config in TOML-decodable form; Mains
// is a list of lists rather than a list of resolve.MainSpec, since TOML
// has no named-type arrays.
type ResolverConfig struct {
	Extensions []string   `toml:"extensions"`
	Modules    []string   `toml:"modules"`
	Packages   []string   `toml:"packages"`
	Mains      [][]string `toml:"mains"`
	Index      string     `toml:"index"`
}

// ToResolveConfig converts the decoded TOML shape into resolve.Config.
func (r ResolverConfig) ToResolveConfig() resolve.Config {
	mains := make([]resolve.MainSpec, len(r.Mains))
	for i, m := range r.Mains {
		mains[i] = resolve.MainSpec(m)
	}
	return resolve.Config{
		Extensions: r.Extensions,
		Modules:    r.Modules,
		Packages:   r.Packages,
		Mains:      mains,
		Index:      r.Index,
	}
}

// HistoryConfig configures the run-history sqlite store.
type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	Project string `toml:"project"`
}

// MetricsConfig configures the prometheus /metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// TracingConfig holds the otel OTLP export settings. Load validates it;
// nothing in this module reads it to install an exporter.
type TracingConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
}

// Load reads path as TOML, applies the defaults in applyDefaults to
// fields left unset, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validateHistory(&cfg); err != nil {
		return nil, err
	}
	if err := validateMetrics(&cfg); err != nil {
		return nil, err
	}
	if err := validateTracing(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the conventional defaults with nothing read from
// disk, for callers that run without a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if len(cfg.Resolver.Extensions) == 0 {
		cfg.Resolver.Extensions = []string{"", ".js", ".json", ".node"}
	}
	if len(cfg.Resolver.Modules) == 0 {
		cfg.Resolver.Modules = []string{"node_modules"}
	}
	if len(cfg.Resolver.Packages) == 0 {
		cfg.Resolver.Packages = []string{"package.json"}
	}
	if len(cfg.Resolver.Mains) == 0 {
		cfg.Resolver.Mains = [][]string{{"main"}}
	}
	if strings.TrimSpace(cfg.Resolver.Index) == "" {
		cfg.Resolver.Index = "index"
	}
	if cfg.FanIn == 0 {
		cfg.FanIn = 8
	}
	if cfg.History.Enabled && strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = ".cartographer/history.db"
	}
	if cfg.History.Enabled && strings.TrimSpace(cfg.History.Project) == "" {
		cfg.History.Project = "default"
	}
	if cfg.Metrics.Enabled && strings.TrimSpace(cfg.Metrics.Addr) == "" {
		cfg.Metrics.Addr = ":9090"
	}
}

func validateHistory(cfg *Config) error {
	if cfg.History.Enabled && strings.TrimSpace(cfg.History.Path) == "" {
		return fmt.Errorf("history.path must not be empty when history.enabled is true")
	}
	return nil
}

func validateMetrics(cfg *Config) error {
	if cfg.Metrics.Enabled && strings.TrimSpace(cfg.Metrics.Addr) == "" {
		return fmt.Errorf("metrics.addr must not be empty when metrics.enabled is true")
	}
	return nil
}

func validateTracing(cfg *Config) error {
	if cfg.Tracing.Enabled && strings.TrimSpace(cfg.Tracing.Endpoint) == "" {
		return fmt.Errorf("tracing.endpoint must not be empty when tracing.enabled is true")
	}
	return nil
}
