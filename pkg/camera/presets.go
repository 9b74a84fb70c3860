package camera

import "github.com/teslashibe/go-overlay/pkg/frame"

// Preset names for common configurations
const (
	PresetDefault  = "default"
	PresetRear     = "rear"
	PresetQVGA     = "qvga"
	Preset720p     = "720p"
	Preset1080p    = "1080p"
	PresetPortrait = "portrait"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault:  DefaultConfig(),
		PresetRear:     RearConfig(),
		PresetQVGA:     QVGAConfig(),
		Preset720p:     HD720Config(),
		Preset1080p:    HD1080Config(),
		PresetPortrait: PortraitConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		PresetRear,
		PresetQVGA,
		Preset720p,
		Preset1080p,
		PresetPortrait,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// RearConfig returns the default geometry from a world-facing camera.
func RearConfig() Config {
	cfg := DefaultConfig()
	cfg.Facing = frame.FacingBack
	return cfg
}

// QVGAConfig returns 320x240 at 15 FPS.
// Cheapest option for CPU-only detectors.
func QVGAConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 320
	cfg.Height = 240
	cfg.Framerate = 15
	return cfg
}

// HD720Config returns 720p HD configuration.
// Good balance of quality and performance.
func HD720Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	return cfg
}

// HD1080Config returns 1080p Full HD configuration.
func HD1080Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1920
	cfg.Height = 1080
	cfg.Framerate = 15
	return cfg
}

// PortraitConfig returns a landscape sensor mounted in portrait, as on a
// phone held upright: frames are rotated 90 degrees before detection.
func PortraitConfig() Config {
	cfg := DefaultConfig()
	cfg.Rotation = frame.Rotation90
	return cfg
}
