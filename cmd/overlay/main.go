// Overlay - live camera overlay pipeline
//
// Captures frames from a webcam (or still images), runs a vision
// detector on each one and serves the annotated composite on a web
// dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/teslashibe/go-overlay/internal/config"
	"github.com/teslashibe/go-overlay/internal/log"
	"github.com/teslashibe/go-overlay/pkg/app"
	"github.com/teslashibe/go-overlay/pkg/camera"
	"github.com/teslashibe/go-overlay/pkg/frame"
	"github.com/teslashibe/go-overlay/pkg/overlay"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(2)
	}

	level := config.LogLevel()
	if cfg.Debug {
		level = "debug"
	}
	log.Init(level)

	a, err := app.New(cfg)
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	if err := a.Init(); err != nil {
		log.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer a.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		log.Error("runtime error", "error", err)
		a.Shutdown()
		os.Exit(1)
	}
}

// parseFlags parses command line flags on top of the environment.
func parseFlags() (app.Config, error) {
	cfg := app.DefaultConfig()
	cfg.LoadEnvConfig()

	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	port := flag.String("port", cfg.Port, "Web dashboard port")
	detector := flag.String("detector", cfg.Detector, "Detector: face, object, classify, none")
	models := flag.String("models", cfg.ModelDir, "Directory containing ONNX models")
	preset := flag.String("preset", camera.PresetDefault, "Camera preset: "+strings.Join(camera.PresetNames(), ", "))
	device := flag.Int("device", cfg.Camera.DeviceID, "Camera device index")
	rotation := flag.Int("rotation", -1, "Sensor rotation in degrees: 0, 90, 180, 270 (default from preset)")
	facing := flag.String("facing", "", "Camera facing: front or back (default from preset)")
	view := flag.String("view", "", "Render surface size WxH (default: upright frame size)")
	fit := flag.Bool("fit", false, "Letterbox the frame instead of cropping it to fill the view")
	center := flag.Bool("center", false, "Center the frame in the view instead of anchoring it top left")
	images := flag.String("images", "", "Comma separated image files to use instead of the webcam")
	noBackground := flag.Bool("no-background", false, "Draw annotations only, without the camera image")
	fps := flag.Int("render-fps", cfg.RenderFPS, "Maximum composite frames per second")

	flag.Parse()

	cfg.Debug = *debug
	cfg.Port, cfg.Detector, cfg.ModelDir = *port, *detector, *models
	cfg.DrawCameraImage = !*noBackground
	cfg.RenderFPS = *fps

	cam := camera.GetPreset(*preset)
	if cam == nil {
		return cfg, fmt.Errorf("unknown camera preset %q", *preset)
	}
	cfg.Camera = *cam
	cfg.Camera.DeviceID = *device
	if *rotation >= 0 {
		r, err := frame.ParseRotation(*rotation)
		if err != nil {
			return cfg, err
		}
		cfg.Camera.Rotation = r
	}
	if *facing != "" {
		f, err := frame.ParseFacing(*facing)
		if err != nil {
			return cfg, err
		}
		cfg.Camera.Facing = f
	}

	if *view != "" {
		if _, err := fmt.Sscanf(*view, "%dx%d", &cfg.ViewWidth, &cfg.ViewHeight); err != nil {
			return cfg, fmt.Errorf("invalid -view %q: want WxH", *view)
		}
	}
	if *fit {
		cfg.ScaleMode = overlay.ScaleFit
	}
	if *center {
		cfg.Alignment = overlay.AlignCenter
	}
	if *images != "" {
		cfg.Images = strings.Split(*images, ",")
	}

	return cfg, nil
}
