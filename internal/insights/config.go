package insights

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed thresholds.yaml
var embeddedThresholds []byte

// Default thresholds, mirrored in thresholds.yaml.
const (
	DefaultOverspendMediumPct = 15
	DefaultOverspendHighPct   = 40
	DefaultCommitmentRatio    = 0.70
)

// Config holds the tunable heuristics of the engine.
type Config struct {
	// OverspendMediumPct is the relative increase (in percent) above which a
	// category is flagged with medium severity.
	OverspendMediumPct float64 `yaml:"overspend_medium_pct"`
	// OverspendHighPct escalates the overspend insight to high severity.
	OverspendHighPct float64 `yaml:"overspend_high_pct"`
	// CommitmentRatio is the fraction of income fixed obligations may take.
	CommitmentRatio float64 `yaml:"commitment_ratio"`
}

// DefaultConfig returns the built-in thresholds.
func DefaultConfig() Config {
	return Config{
		OverspendMediumPct: DefaultOverspendMediumPct,
		OverspendHighPct:   DefaultOverspendHighPct,
		CommitmentRatio:    DefaultCommitmentRatio,
	}
}

// Validate checks the thresholds are usable.
func (c Config) Validate() error {
	if c.OverspendMediumPct < 0 || c.OverspendHighPct < 0 {
		return fmt.Errorf("overspend thresholds must be non-negative, got %v/%v", c.OverspendMediumPct, c.OverspendHighPct)
	}
	if c.OverspendMediumPct > c.OverspendHighPct {
		return fmt.Errorf("overspend_medium_pct (%v) must not exceed overspend_high_pct (%v)", c.OverspendMediumPct, c.OverspendHighPct)
	}
	if c.CommitmentRatio <= 0 {
		return fmt.Errorf("commitment_ratio must be positive, got %v", c.CommitmentRatio)
	}
	return nil
}

// ParseConfig reads thresholds from YAML. Keys missing from data keep their defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("ParseConfig: parsing YAML thresholds: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("ParseConfig: %w", err)
	}
	return cfg, nil
}

// LoadEmbedded returns the thresholds compiled into the binary.
func LoadEmbedded() (Config, error) {
	return ParseConfig(embeddedThresholds)
}

// LoadFromFile reads thresholds from path. An empty path loads the embedded defaults.
func LoadFromFile(path string) (Config, error) {
	if path == "" {
		return LoadEmbedded()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("LoadFromFile: reading %q: %w", path, err)
	}
	return ParseConfig(data)
}

func (c Config) mediumPct() decimal.Decimal { return decimal.NewFromFloat(c.OverspendMediumPct) }
func (c Config) highPct() decimal.Decimal   { return decimal.NewFromFloat(c.OverspendHighPct) }
func (c Config) ratio() decimal.Decimal     { return decimal.NewFromFloat(c.CommitmentRatio) }
