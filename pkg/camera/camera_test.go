package camera

import (
	"errors"
	"testing"

	"github.com/teslashibe/go-overlay/pkg/frame"
)

func TestDefaultConfig_Valid(t *testing.T) {
	for _, name := range PresetNames() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("GetPreset(%q) returned nil", name)
		}
		if errs := cfg.Validate(); len(errs) > 0 {
			t.Errorf("preset %q invalid: %v", name, errs)
		}
	}
	if GetPreset("nope") != nil {
		t.Error("GetPreset: unknown preset should be nil")
	}
	if len(Presets()) != len(PresetNames()) {
		t.Errorf("Presets: %d entries, PresetNames: %d", len(Presets()), len(PresetNames()))
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errs   int
	}{
		{"valid", func(c *Config) {}, 0},
		{"too narrow", func(c *Config) { c.Width = 100 }, 1},
		{"odd height", func(c *Config) { c.Height = 481 }, 1},
		{"zero framerate", func(c *Config) { c.Framerate = 0 }, 1},
		{"bad quality", func(c *Config) { c.Quality = 101 }, 1},
		{"bad rotation", func(c *Config) { c.Rotation = 45 }, 1},
		{"bad facing", func(c *Config) { c.Facing = 7 }, 1},
		{"negative device", func(c *Config) { c.DeviceID = -1 }, 1},
		{"several", func(c *Config) { c.Width = 0; c.Quality = 0 }, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			if errs := cfg.Validate(); len(errs) != tc.errs {
				t.Errorf("Validate: got %d errors %v, want %d", len(errs), errs, tc.errs)
			}
		})
	}
}

func TestConfig_Metadata(t *testing.T) {
	cfg := PortraitConfig()
	meta := cfg.Metadata()
	if meta.Width != 640 || meta.Height != 480 || meta.Rotation != frame.Rotation90 || meta.Facing != frame.FacingFront {
		t.Errorf("Metadata: got %+v", meta)
	}
	if w, h := cfg.UprightSize(); w != 480 || h != 640 {
		t.Errorf("UprightSize: got %dx%d, want 480x640", w, h)
	}
}

func TestManager_UpdateConfig(t *testing.T) {
	m := NewManager(DefaultConfig())

	var applied []Config
	m.OnConfigChange = func(cfg Config) error {
		applied = append(applied, cfg)
		return nil
	}

	err := m.UpdateConfig(map[string]interface{}{
		"preset":    "rear",
		"width":     float64(1280),
		"height":    float64(720),
		"rotation":  float64(270),
		"facing":    "front",
		"framerate": 10,
	})
	if err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}

	got := m.GetConfig()
	if got.Width != 1280 || got.Height != 720 || got.Framerate != 10 {
		t.Errorf("resolution: got %dx%d@%d", got.Width, got.Height, got.Framerate)
	}
	if got.Rotation != frame.Rotation270 || got.Facing != frame.FacingFront {
		t.Errorf("orientation: got rotation %d facing %s", got.Rotation, got.Facing)
	}
	if len(applied) != 1 || applied[0] != got {
		t.Errorf("OnConfigChange: got %+v", applied)
	}
}

func TestManager_UpdateConfigRejects(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]interface{}
	}{
		{"unknown preset", map[string]interface{}{"preset": "8k"}},
		{"unknown key", map[string]interface{}{"zoom_level": 2.0}},
		{"bad rotation", map[string]interface{}{"rotation": float64(45)}},
		{"rotation type", map[string]interface{}{"rotation": "ninety"}},
		{"bad facing", map[string]interface{}{"facing": "sideways"}},
		{"out of range", map[string]interface{}{"width": float64(10)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewManager(DefaultConfig())
			if err := m.UpdateConfig(tc.params); err == nil {
				t.Error("UpdateConfig: expected error")
			}
			if m.GetConfig() != DefaultConfig() {
				t.Errorf("config changed on error: %+v", m.GetConfig())
			}
		})
	}
}

func TestManager_CallbackError(t *testing.T) {
	m := NewManager(DefaultConfig())
	boom := errors.New("device busy")
	m.OnConfigChange = func(Config) error { return boom }

	if err := m.SetConfig(QVGAConfig()); !errors.Is(err, boom) {
		t.Errorf("SetConfig: got %v, want wrapped callback error", err)
	}
	if got := m.GetConfig(); got != DefaultConfig() {
		t.Errorf("config after failed apply: got %+v, want previous", got)
	}
	if err := m.UpdateConfig(map[string]interface{}{"width": float64(1280)}); !errors.Is(err, boom) {
		t.Errorf("UpdateConfig: got %v, want wrapped callback error", err)
	}
	if got := m.GetConfig().Width; got != DefaultConfig().Width {
		t.Errorf("width after failed apply: got %d, want %d", got, DefaultConfig().Width)
	}
}

func TestManager_GetConfigJSON(t *testing.T) {
	m := NewManager(PortraitConfig())
	got := m.GetConfigJSON()

	if got["facing"] != "front" {
		t.Errorf("facing: got %v", got["facing"])
	}
	if got["rotation"] != float64(90) {
		t.Errorf("rotation: got %v", got["rotation"])
	}
	if got["width"] != float64(640) {
		t.Errorf("width: got %v", got["width"])
	}
}
