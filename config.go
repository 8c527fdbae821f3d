package soundshape

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/wbrown/soundshape/phoneme"
	"github.com/wbrown/soundshape/raster"
)

// Config holds the settings of a command-line run. It is loaded from JSON
// and then overridden by flags.
type Config struct {
	DB     string `json:"db"`
	Chars  string `json:"chars"`
	Sizes  []int  `json:"sizes"`
	Engine string `json:"engine"`
	Seed   int64  `json:"seed"`
	// Threshold is the freetype coverage (1-255) at which a pixel is ink.
	Threshold int `json:"threshold"`

	Grid   GridSearch         `json:"grid"`
	Random RandomSearch       `json:"random"`
	Anneal SimulatedAnnealing `json:"anneal"`
}

// DefaultConfig returns the settings used when no file is given: every
// character in the phoneme table at 12 pixels.
func DefaultConfig() Config {
	return Config{
		DB:        "soundshape.db",
		Chars:     string(phoneme.Chars()),
		Sizes:     []int{12},
		Engine:    raster.EngineAuto,
		Threshold: DefaultThreshold,
		Grid:      GridSearch{Count: 5},
		Random:    RandomSearch{Points: 100},
		Anneal: SimulatedAnnealing{
			InitialTemperature: 0.02,
			Iterations:         100,
			StepRange:          0.10,
		},
	}
}

// LoadConfig reads a JSON config file on top of DefaultConfig. Fields
// missing from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Runes returns the configured characters with whitespace removed.
func (c Config) Runes() []rune {
	return []rune(strings.Join(strings.Fields(c.Chars), ""))
}

// Validate checks everything a run depends on before any evaluation.
func (c Config) Validate() error {
	if c.DB == "" {
		return &ConfigError{Param: "db", Reason: "empty path"}
	}
	chars := c.Runes()
	if len(chars) < 2 {
		return &ConfigError{Param: "chars", Reason: "need at least two characters"}
	}
	if !phoneme.Known(chars) {
		return &ConfigError{Param: "chars", Reason: fmt.Sprintf("%q has characters without phonetic features", c.Chars)}
	}
	if len(c.Sizes) == 0 {
		return &ConfigError{Param: "sizes", Reason: "no sizes"}
	}
	for _, s := range c.Sizes {
		if s <= 0 {
			return &ConfigError{Param: "sizes", Reason: fmt.Sprintf("size %d is not positive", s)}
		}
	}
	switch c.Engine {
	case raster.EngineAuto, raster.EngineFreetype, raster.EngineGoText:
	default:
		return &ConfigError{Param: "engine", Reason: fmt.Sprintf("unknown engine %q", c.Engine)}
	}
	if c.Threshold < 1 || c.Threshold > 255 {
		return &ConfigError{Param: "threshold", Reason: fmt.Sprintf("%d is outside [1, 255]", c.Threshold)}
	}
	if err := c.Grid.Validate(); err != nil {
		return err
	}
	if err := c.Random.Validate(); err != nil {
		return err
	}
	return c.Anneal.Validate()
}
