package renderer

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Settings is the optional render settings file. Zero values mean the
// field was not set and the flag or built-in default applies.
type Settings struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	MaxSamples int    `toml:"max_samples"`
	TileSize   int    `toml:"tile_size"`
	Workers    int    `toml:"workers"`
	Output     string `toml:"output"`
}

// LoadSettings reads a TOML settings file
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("reading settings: %w", err)
	}
	var s Settings
	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	return s, nil
}

// Apply overlays the set fields onto a render config
func (s Settings) Apply(config Config) Config {
	if s.MaxSamples > 0 {
		config.MaxSamples = s.MaxSamples
	}
	if s.TileSize > 0 {
		config.TileSize = s.TileSize
	}
	if s.Workers > 0 {
		config.NumWorkers = s.Workers
	}
	return config
}
