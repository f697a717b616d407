// Package config loads engine configuration from the environment.
// Command-line flags in the entry points override these values.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Identity reported in the uci banner
	EngineName   string `env:"BRAINFISH_NAME" envDefault:"BrainFish"`
	EngineAuthor string `env:"BRAINFISH_AUTHOR" envDefault:"BlackBoxAI"`

	// Default resource budgets for the programmatic entry points
	DefaultDepth    int `env:"BRAINFISH_DEPTH" envDefault:"20"`
	DefaultMoveTime int `env:"BRAINFISH_MOVETIME" envDefault:"1000"`

	// Path to the SQLite opening-book database; empty disables persistence
	BookPath string `env:"BRAINFISH_BOOK_PATH"`

	// Path to an external UCI engine binary; empty selects the built-in
	// material adapter
	EnginePath string `env:"BRAINFISH_ENGINE_PATH"`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
