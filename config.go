package schemaguard

import (
	"os"

	"github.com/goccy/go-yaml"
)

// Config collects the implementation-recognised tuning knobs of spec §6.
// Zero values are not meaningful defaults for every field, so always obtain
// a Config via DefaultConfig or LoadConfig rather than a bare literal.
type Config struct {
	SoftBiasMagnitude   float32 `yaml:"soft_bias_magnitude"`
	DynamicQuoteTopK    int     `yaml:"dynamic_quote_top_k"`
	SchemaIndexCacheMax int     `yaml:"schema_index_cache_max"`
	RetryMaxAttempts    int     `yaml:"retry_max_attempts"`
	EOSBoostOnSafety    float32 `yaml:"eos_boost_on_safety"`
}

// DefaultConfig returns the defaults named in spec §6.
func DefaultConfig() *Config {
	return &Config{
		SoftBiasMagnitude:   DefaultSoftBiasMagnitude,
		DynamicQuoteTopK:    30,
		SchemaIndexCacheMax: DefaultSchemaIndexCacheMax,
		RetryMaxAttempts:    2,
		EOSBoostOnSafety:    5.0,
	}
}

// LoadConfig reads a YAML document at path and overlays it onto
// DefaultConfig, so a deployment only needs to specify the knobs it wants
// to change.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
