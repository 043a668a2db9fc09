package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Policy   PolicyConfig   `mapstructure:"policy"`
	Coupling CouplingConfig `mapstructure:"coupling"`
	Gates    GatesConfig    `mapstructure:"gates"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Graph    GraphConfig    `mapstructure:"graph"`
	Temporal TemporalConfig `mapstructure:"temporal"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// PolicyConfig declares the allowed layer ordering, innermost first. An
// empty list disables layer validation.
type PolicyConfig struct {
	Layers []string `mapstructure:"layers"`
}

// CouplingConfig overrides the instability banding thresholds. Zero values
// fall back to the 0.3 / 0.7 defaults.
type CouplingConfig struct {
	StableBelow   float64 `mapstructure:"stable_below"`
	UnstableAbove float64 `mapstructure:"unstable_above"`
}

type GatesConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxCycles        int     `mapstructure:"max_cycles"`
	MaxUnstableRatio float64 `mapstructure:"max_unstable_ratio"`
}

type CacheConfig struct {
	Size int `mapstructure:"size"`
}

// GraphConfig configures the optional Neo4j export target.
type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type TemporalConfig struct {
	Host      string `mapstructure:"host"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TracingConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	Environment  string  `mapstructure:"environment"`
}

type AuditConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	OutputPath string `mapstructure:"output_path"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	seen := make(map[string]bool)
	for _, layer := range c.Policy.Layers {
		if layer == "" {
			warnings = append(warnings, "policy.layers contains an empty layer name")
			continue
		}
		if seen[layer] {
			warnings = append(warnings, fmt.Sprintf("policy.layers lists layer %q more than once", layer))
		}
		seen[layer] = true
	}

	if c.Coupling.StableBelow < 0 || c.Coupling.StableBelow > 1 {
		warnings = append(warnings, fmt.Sprintf("coupling stable_below %.2f is outside [0.0, 1.0]", c.Coupling.StableBelow))
	}
	if c.Coupling.UnstableAbove < 0 || c.Coupling.UnstableAbove > 1 {
		warnings = append(warnings, fmt.Sprintf("coupling unstable_above %.2f is outside [0.0, 1.0]", c.Coupling.UnstableAbove))
	}
	if c.Coupling.StableBelow > 0 && c.Coupling.UnstableAbove > 0 &&
		c.Coupling.StableBelow > c.Coupling.UnstableAbove {
		warnings = append(warnings, fmt.Sprintf("coupling stable_below %.2f exceeds unstable_above %.2f", c.Coupling.StableBelow, c.Coupling.UnstableAbove))
	}

	if c.Gates.MaxCycles < 0 {
		warnings = append(warnings, fmt.Sprintf("gates max_cycles %d is negative", c.Gates.MaxCycles))
	}
	if c.Gates.MaxUnstableRatio < 0 || c.Gates.MaxUnstableRatio > 1 {
		warnings = append(warnings, fmt.Sprintf("gates max_unstable_ratio %.2f is outside [0.0, 1.0]", c.Gates.MaxUnstableRatio))
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		warnings = append(warnings, fmt.Sprintf("tracing sample_rate %.2f is outside [0.0, 1.0]", c.Tracing.SampleRate))
	}

	if c.Graph.URI != "" && c.Graph.Username == "" {
		warnings = append(warnings, "graph uri is configured but username is empty")
	}

	return warnings
}

// Load reads configuration from file and environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("GIRDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Validate configuration and print warnings
	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from path, falling back to defaults when
// the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("default config: %v", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("coupling.stable_below", 0.3)
	v.SetDefault("coupling.unstable_above", 0.7)
	v.SetDefault("gates.enabled", true)
	v.SetDefault("gates.max_cycles", 0)
	v.SetDefault("gates.max_unstable_ratio", 0.5)
	v.SetDefault("cache.size", 64)
	v.SetDefault("temporal.host", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "girder-analysis")
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("tracing.environment", "development")
	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.output_path", "stderr")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
