// Package camera holds the runtime-configurable capture settings: the
// frame geometry handed to processors with every buffer, plus the rate
// and encoding knobs of the capture and render loops.
package camera

import (
	"fmt"

	"github.com/teslashibe/go-overlay/pkg/frame"
)

// Config holds all camera configuration parameters.
// These can be modified via the camera API at runtime.
type Config struct {
	// === Device ===
	// DeviceID is the capture device index (0 = first webcam).
	DeviceID int `json:"device_id"`

	// === Resolution ===
	Width     int `json:"width"`     // Sensor frame width in pixels
	Height    int `json:"height"`    // Sensor frame height in pixels
	Framerate int `json:"framerate"` // Target FPS
	Quality   int `json:"quality"`   // JPEG quality 1-100 for streamed composites

	// === Orientation ===
	// Rotation is the clockwise rotation that makes sensor frames upright.
	Rotation frame.Rotation `json:"rotation"`

	// Facing selects mirroring: front camera overlays are flipped on X.
	Facing frame.Facing `json:"facing"`
}

// Capture limits.
const (
	MinWidth     = 160
	MinHeight    = 120
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig returns VGA from the front camera, the usual laptop
// webcam setup.
func DefaultConfig() Config {
	return Config{
		DeviceID:  0,
		Width:     640,
		Height:    480,
		Framerate: 30,
		Quality:   80,
		Rotation:  frame.Rotation0,
		Facing:    frame.FacingFront,
	}
}

// Metadata returns the per-frame descriptor for frames captured with c.
func (c Config) Metadata() frame.Metadata {
	return frame.Metadata{
		Width:    c.Width,
		Height:   c.Height,
		Rotation: c.Rotation,
		Facing:   c.Facing,
	}
}

// UprightSize returns the frame size after rotation, which is also the
// natural view size for a composite of the frame.
func (c Config) UprightSize() (w, h int) {
	return c.Metadata().UprightSize()
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.DeviceID < 0 {
		errors = append(errors, "device_id must not be negative")
	}

	// Resolution
	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, fmt.Sprintf("width must be between %d and %d", MinWidth, MaxWidth))
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, fmt.Sprintf("height must be between %d and %d", MinHeight, MaxHeight))
	}
	// NV21 chroma is subsampled 2x2.
	if c.Width%2 != 0 || c.Height%2 != 0 {
		errors = append(errors, "width and height must be even")
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, fmt.Sprintf("framerate must be between 1 and %d", MaxFramerate))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	// Orientation
	if !c.Rotation.Valid() {
		errors = append(errors, "rotation must be 0, 90, 180 or 270")
	}
	if c.Facing != frame.FacingBack && c.Facing != frame.FacingFront {
		errors = append(errors, "facing must be front or back")
	}

	return errors
}

// Capabilities returns the supported capture ranges.
func Capabilities() map[string]interface{} {
	return map[string]interface{}{
		"pixel_format":  "nv21",
		"min_width":     MinWidth,
		"min_height":    MinHeight,
		"max_width":     MaxWidth,
		"max_height":    MaxHeight,
		"max_framerate": MaxFramerate,
		"rotations":     []int{0, 90, 180, 270},
		"facings":       []string{"back", "front"},
		"presets":       PresetNames(),
	}
}
