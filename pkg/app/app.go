package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/teslashibe/go-overlay/internal/log"
	"github.com/teslashibe/go-overlay/pkg/camera"
	"github.com/teslashibe/go-overlay/pkg/capture"
	"github.com/teslashibe/go-overlay/pkg/detection"
	"github.com/teslashibe/go-overlay/pkg/frame"
	"github.com/teslashibe/go-overlay/pkg/overlay"
	"github.com/teslashibe/go-overlay/pkg/processor"
	"github.com/teslashibe/go-overlay/pkg/render"
	"github.com/teslashibe/go-overlay/pkg/web"
	"golang.org/x/sync/errgroup"
)

// metered is implemented by every processor built here.
type metered interface {
	Metrics() *processor.MetricsCollector
}

// App is the running overlay pipeline.
type App struct {
	config Config

	cameraManager *camera.Manager
	overlay       *overlay.Overlay
	processor     processor.VisionImageProcessor
	metrics       *processor.MetricsCollector
	runner        *capture.Runner
	renderer      *render.Renderer
	webServer     *web.Server

	// cameraMu serialises camera changes; applied is the config the
	// current source was opened with.
	cameraMu sync.Mutex
	applied  camera.Config

	// OpenSource builds the frame source for a camera config. Tests
	// replace it; the default opens stills or the webcam.
	OpenSource func(cfg camera.Config) (capture.Source, error)

	shutdownOnce sync.Once
}

// New creates an application with the given configuration.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{config: cfg}
	a.OpenSource = a.openSource
	return a, nil
}

// Init builds every component. Call this after New() and before Run().
func (a *App) Init() error {
	log.Info("overlay pipeline starting",
		"detector", a.config.Detector,
		"camera", a.config.Camera.Metadata().String(),
		"port", a.config.Port)

	vw, vh := a.config.ViewSize()
	a.overlay = overlay.New(
		overlay.WithViewSize(vw, vh),
		overlay.WithScaleMode(a.config.ScaleMode),
		overlay.WithAlignment(a.config.Alignment),
	)

	proc, err := a.newProcessor()
	if err != nil {
		return fmt.Errorf("detector init: %w", err)
	}
	a.processor = proc
	if m, ok := proc.(metered); ok {
		a.metrics = m.Metrics()
	}

	src, err := a.OpenSource(a.config.Camera)
	if err != nil {
		a.processor.Stop()
		return fmt.Errorf("capture init: %w", err)
	}
	a.runner = capture.NewRunner(src, a.processor, a.overlay, a.config.Camera.Framerate)
	a.applied = a.config.Camera

	a.renderer = render.New(a.overlay, render.Config{
		Quality: a.config.Camera.Quality,
		MaxFPS:  a.config.RenderFPS,
	})

	a.cameraManager = camera.NewManager(a.config.Camera)
	a.cameraManager.OnConfigChange = a.applyCamera

	a.webServer = web.NewServer(":"+a.config.Port, web.Deps{
		Detector:     a.config.Detector,
		Overlay:      a.overlay,
		Camera:       a.cameraManager,
		CaptureStats: a.runner.Stats,
		RenderStats:  a.renderer.Stats,
		LatestFrame:  a.renderer.Latest,
		ProcessorMetrics: func() processor.Metrics {
			if a.metrics == nil {
				return processor.Metrics{}
			}
			return a.metrics.Current()
		},
	})
	a.renderer.AddSink(a.webServer.SendFrame)
	if a.metrics != nil {
		a.metrics.OnUpdate(func(processor.Metrics) { a.webServer.PublishStatus() })
	}

	return nil
}

// newProcessor builds the processor for the configured detector kind.
func (a *App) newProcessor() (processor.VisionImageProcessor, error) {
	pcfg := processor.Config{Name: a.config.Detector, DrawCameraImage: a.config.DrawCameraImage}

	switch a.config.Detector {
	case DetectorFace:
		dcfg := detection.DefaultConfig()
		dcfg.ModelPath = a.config.ModelPath(FaceModel)
		det, err := detection.NewYuNet(dcfg)
		if err != nil {
			return nil, err
		}
		return processor.NewFaceProcessor(pcfg, det), nil

	case DetectorObject:
		dcfg := detection.DefaultYOLOConfig()
		dcfg.ModelPath = a.config.ModelPath(ObjectModel)
		det, err := detection.NewYOLO(dcfg)
		if err != nil {
			return nil, err
		}
		return processor.NewObjectProcessor(pcfg, det), nil

	case DetectorClassify:
		gcfg := detection.DefaultGeminiConfig()
		gcfg.APIKey = a.config.GoogleAPIKey
		det, err := detection.NewGeminiClassifier(gcfg)
		if err != nil {
			return nil, err
		}
		return processor.NewClassifierProcessor(pcfg, det), nil

	case DetectorNone:
		passthrough := detection.Func[struct{}](func(ctx context.Context, _ []byte, _ frame.Metadata) (struct{}, error) {
			return struct{}{}, ctx.Err()
		})
		return processor.New[struct{}](pcfg, passthrough, nil), nil
	}
	return nil, fmt.Errorf("unknown detector %q", a.config.Detector)
}

// openSource opens still images when configured, the webcam otherwise.
func (a *App) openSource(cfg camera.Config) (capture.Source, error) {
	if len(a.config.Images) > 0 {
		return capture.OpenStill(cfg.Rotation, cfg.Facing, a.config.Images...)
	}
	return capture.OpenWebcam(cfg)
}

// applyCamera reopens the source after a camera change from the
// dashboard and follows the new geometry with the render surface.
// A device cannot be reconfigured while another handle streams from
// it, so the old source is released first when the device is kept.
// If the new config cannot be opened the previous one is restored.
func (a *App) applyCamera(cfg camera.Config) error {
	a.cameraMu.Lock()
	defer a.cameraMu.Unlock()

	prev := a.applied
	sameDevice := cfg.DeviceID == prev.DeviceID
	if sameDevice {
		a.runner.SetSource(nil)
	}

	src, err := a.OpenSource(cfg)
	if err != nil {
		if sameDevice {
			a.restoreSource(prev)
		}
		return err
	}
	a.runner.SetSource(src)
	a.applied = cfg
	a.runner.SetRate(cfg.Framerate)
	a.renderer.SetQuality(cfg.Quality)
	if a.config.ViewWidth == 0 {
		a.overlay.SetViewSize(cfg.UprightSize())
	}
	log.Info("camera reconfigured", "camera", cfg.Metadata().String(), "framerate", cfg.Framerate)
	return nil
}

// restoreSource reopens the source for prev after a failed change.
func (a *App) restoreSource(prev camera.Config) {
	src, err := a.OpenSource(prev)
	if err != nil {
		log.Error("reopen previous camera", "camera", prev.Metadata().String(), "error", err)
		return
	}
	a.runner.SetSource(src)
}

// Overlay returns the pipeline's overlay.
func (a *App) Overlay() *overlay.Overlay { return a.overlay }

// Camera returns the camera manager.
func (a *App) Camera() *camera.Manager { return a.cameraManager }

// Renderer returns the render loop.
func (a *App) Renderer() *render.Renderer { return a.renderer }

// Run starts capture, rendering and the dashboard.
// Blocks until ctx is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	log.Info("overlay pipeline running", "dashboard", "http://localhost:"+a.config.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.runner.Run(gctx) })
	g.Go(func() error { return a.renderer.Run(gctx) })
	g.Go(func() error { return a.webServer.Run(gctx) })

	// Cancellation of the caller's context is a normal exit.
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// Shutdown stops the processor and releases the capture device.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		if a.processor != nil {
			a.processor.Stop()
		}
		if a.runner != nil {
			a.runner.SetSource(nil)
		}
		log.Info("overlay pipeline stopped")
	})
}
