// Package app assembles the overlay pipeline: capture source, vision
// processor, overlay, render loop and web dashboard.
package app

import (
	"fmt"
	"path/filepath"

	"github.com/teslashibe/go-overlay/internal/config"
	"github.com/teslashibe/go-overlay/pkg/camera"
	"github.com/teslashibe/go-overlay/pkg/overlay"
)

// Detector kinds.
const (
	DetectorFace     = "face"
	DetectorObject   = "object"
	DetectorClassify = "classify"
	DetectorNone     = "none"
)

// Model file names inside Config.ModelDir.
const (
	FaceModel   = "face_detection_yunet.onnx"
	ObjectModel = "yolov8n.onnx"
)

// Config holds all configuration for the overlay application.
// Flag parsing is done in cmd/overlay/main.go; this struct is data only.
type Config struct {
	// Debug enables verbose debug logging.
	Debug bool

	// Port is the web dashboard port.
	Port string

	// Detector selects the vision backend: face, object, classify or none.
	Detector string
	ModelDir string

	// Camera is the initial capture configuration.
	Camera camera.Config

	// Images, when set, replaces the webcam with these still images.
	Images []string

	// ViewWidth and ViewHeight size the render surface. Zero follows the
	// upright camera frame size.
	ViewWidth  int
	ViewHeight int

	ScaleMode overlay.ScaleMode
	Alignment overlay.Alignment

	// DrawCameraImage composites the frame beneath the annotations.
	DrawCameraImage bool

	// RenderFPS bounds the composite stream.
	RenderFPS int

	// GoogleAPIKey is required by the classify detector.
	GoogleAPIKey string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:            config.DefaultPort,
		Detector:        config.DefaultDetector,
		ModelDir:        config.DefaultModelDir,
		Camera:          camera.DefaultConfig(),
		ScaleMode:       overlay.ScaleFill,
		Alignment:       overlay.AlignTopLeft,
		DrawCameraImage: true,
		RenderFPS:       15,
	}
}

// LoadEnvConfig applies environment overrides. Call it before flag
// parsing so that flags take precedence over the environment.
func (c *Config) LoadEnvConfig() {
	c.Port = config.String("OVERLAY_PORT", c.Port)
	c.Detector = config.String("OVERLAY_DETECTOR", c.Detector)
	c.ModelDir = config.String("OVERLAY_MODEL_DIR", c.ModelDir)
	c.Camera.DeviceID = config.Int("OVERLAY_CAMERA", c.Camera.DeviceID)
	c.RenderFPS = config.Int("OVERLAY_RENDER_FPS", c.RenderFPS)
	if c.GoogleAPIKey == "" {
		c.GoogleAPIKey = config.GoogleAPIKey()
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	switch c.Detector {
	case DetectorFace, DetectorObject, DetectorNone:
	case DetectorClassify:
		if c.GoogleAPIKey == "" {
			return &ConfigError{Field: "GoogleAPIKey", Message: "GOOGLE_API_KEY environment variable is required for the classify detector"}
		}
	default:
		return &ConfigError{Field: "Detector", Message: fmt.Sprintf("unknown detector %q (want face, object, classify or none)", c.Detector)}
	}
	if errs := c.Camera.Validate(); len(errs) > 0 {
		return &ConfigError{Field: "Camera", Message: fmt.Sprintf("invalid camera config: %v", errs)}
	}
	if (c.ViewWidth == 0) != (c.ViewHeight == 0) || c.ViewWidth < 0 || c.ViewHeight < 0 {
		return &ConfigError{Field: "View", Message: "view width and height must both be set or both be zero"}
	}
	return nil
}

// ViewSize returns the configured render surface size.
func (c *Config) ViewSize() (w, h int) {
	if c.ViewWidth > 0 && c.ViewHeight > 0 {
		return c.ViewWidth, c.ViewHeight
	}
	return c.Camera.UprightSize()
}

// ModelPath returns the path of a model file inside ModelDir.
func (c *Config) ModelPath(name string) string {
	return filepath.Join(c.ModelDir, name)
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
