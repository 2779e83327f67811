// Package config loads the presenca configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete presenca configuration
type Config struct {
	Cascade    string          `yaml:"cascade"`
	LogPath    string          `yaml:"log_path"`
	VideoPath  string          `yaml:"video_path"`
	Codec      string          `yaml:"codec"`
	WindowName string          `yaml:"window_name"`
	Headless   bool            `yaml:"headless"`
	ParamsFile string          `yaml:"params_file"` // detection params watched in headless mode
	Camera     CameraConfig    `yaml:"camera"`
	Presence   PresenceConfig  `yaml:"presence"`
	Detection  DetectionConfig `yaml:"detection"`
}

// CameraConfig contains camera settings
type CameraConfig struct {
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
	SettleMS int `yaml:"settle_ms"` // delay before re-checking a freshly opened device; 0 uses the camera default
}

// PresenceConfig contains presence log settings
type PresenceConfig struct {
	DebounceS float64 `yaml:"debounce_s"`
	Message   string  `yaml:"message"`
}

// DetectionConfig holds the initial detection parameters.
type DetectionConfig struct {
	ScaleFactor  float64 `yaml:"scale_factor"`
	MinNeighbors int     `yaml:"min_neighbors"`
	MinSize      int     `yaml:"min_size"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Cascade:    "assets/haarcascade_frontalface_default.xml",
		LogPath:    "logs/presenca.txt",
		VideoPath:  "saida_anotada.mp4",
		Codec:      "mp4v",
		WindowName: "Face Detection",
		Camera: CameraConfig{
			Width:    1280,
			Height:   720,
			SettleMS: 200,
		},
		Presence: PresenceConfig{
			DebounceS: 2.0,
			Message:   "face detected → primary-system action (presence registered)",
		},
		Detection: DetectionConfig{
			ScaleFactor:  1.10,
			MinNeighbors: 5,
			MinSize:      40,
		},
	}
}

// Load reads a YAML configuration file on top of the defaults.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Debounce returns the presence debounce window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Presence.DebounceS * float64(time.Second))
}

// Settle returns the camera settle delay.
func (c *Config) Settle() time.Duration {
	return time.Duration(c.Camera.SettleMS) * time.Millisecond
}
