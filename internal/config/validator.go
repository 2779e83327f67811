package config

import (
	"fmt"
	"math"
)

// Validate checks if the configuration is valid
func Validate(cfg *Config) error {
	if cfg.Cascade == "" {
		return fmt.Errorf("cascade is required")
	}
	if cfg.LogPath == "" {
		return fmt.Errorf("log_path is required")
	}
	if cfg.VideoPath == "" {
		return fmt.Errorf("video_path is required")
	}

	if len(cfg.Codec) != 4 {
		return fmt.Errorf("codec must be a four character code, got %q", cfg.Codec)
	}

	if cfg.Camera.Width <= 0 || cfg.Camera.Height <= 0 {
		return fmt.Errorf("camera resolution must be > 0, got %dx%d", cfg.Camera.Width, cfg.Camera.Height)
	}
	if cfg.Camera.SettleMS < 0 {
		return fmt.Errorf("camera.settle_ms must be >= 0")
	}

	if d := cfg.Presence.DebounceS; math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return fmt.Errorf("presence.debounce_s must be a finite number >= 0, got %v", d)
	}
	if cfg.Presence.Message == "" {
		return fmt.Errorf("presence.message is required")
	}

	return nil
}
