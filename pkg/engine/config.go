package engine

import (
	"fmt"
	"os"

	"github.com/sanonone/hyperank/pkg/core"
	"github.com/sanonone/hyperank/pkg/core/distance"
	"gopkg.in/yaml.v3"
)

// Config is the YAML-facing configuration surface of the engine. It mirrors
// Options with string fields where Options uses typed constants, so files
// stay readable. CLI flags typically override individual fields afterwards.
type Config struct {
	HyperedgeSize  int    `yaml:"hyperedge_size"`  // neighbors per hyperedge (k)
	Iterations     int    `yaml:"iterations"`      // refinement rounds
	TopK           int    `yaml:"top_k"`           // retrieval result size
	Workers        int    `yaml:"workers"`         // 0 = NumCPU
	SelfSimilarity string `yaml:"self_similarity"` // "epsilon" or "unit"
	Precision      string `yaml:"precision"`       // "float32" or "float16"
}

// DefaultConfig returns the configuration matching DefaultOptions.
func DefaultConfig() Config {
	return Config{
		HyperedgeSize:  5,
		Iterations:     9,
		TopK:           5,
		Workers:        0,
		SelfSimilarity: string(core.SelfSimilarityEpsilon),
		Precision:      string(distance.Float32),
	}
}

// LoadConfig reads a YAML configuration file, starting from defaults.
// An empty path returns the defaults unchanged. Unknown fields are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig() // Start with defaults

	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("YAML syntax error in config: %w", err)
	}

	return cfg, nil
}

// Options converts the configuration to engine Options. Value validation
// happens in Open, where the collection size is known.
func (c Config) Options() Options {
	return Options{
		HyperedgeSize:  c.HyperedgeSize,
		Iterations:     c.Iterations,
		TopK:           c.TopK,
		Workers:        c.Workers,
		SelfSimilarity: core.SelfSimilarity(c.SelfSimilarity),
		Precision:      distance.PrecisionType(c.Precision),
	}
}
