// Package web serves the overlay dashboard: JSON status and
// configuration endpoints plus websocket streams of rendered composites
// and status updates.
package web

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-overlay/internal/log"
	"github.com/teslashibe/go-overlay/pkg/camera"
	"github.com/teslashibe/go-overlay/pkg/capture"
	"github.com/teslashibe/go-overlay/pkg/hub"
	"github.com/teslashibe/go-overlay/pkg/overlay"
	"github.com/teslashibe/go-overlay/pkg/processor"
	"github.com/teslashibe/go-overlay/pkg/render"
)

// Deps are the pipeline parts the dashboard reports on and controls.
// Nil stat funcs report zero values.
type Deps struct {
	Detector string
	Overlay  *overlay.Overlay
	Camera   *camera.Manager

	ProcessorMetrics func() processor.Metrics
	CaptureStats     func() capture.Stats
	RenderStats      func() render.Stats
	LatestFrame      func() []byte
}

// Status is the dashboard summary returned by GET /api/status.
type Status struct {
	Detector      string            `json:"detector"`
	Uptime        string            `json:"uptime"`
	Processor     processor.Metrics `json:"processor"`
	Capture       capture.Stats     `json:"capture"`
	Render        render.Stats      `json:"render"`
	FrameClients  int               `json:"frame_clients"`
	StatusClients int               `json:"status_clients"`
}

// Server is the web dashboard server
type Server struct {
	app     *fiber.App
	addr    string
	deps    Deps
	started time.Time

	// Hubs for websocket broadcast
	frameHub  *hub.Hub
	statusHub *hub.Hub
}

// NewServer creates a dashboard listening on addr, e.g. ":8090".
func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		addr:      addr,
		deps:      deps,
		started:   time.Now(),
		frameHub:  hub.New("frames"),
		statusHub: hub.New("status"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Overlay Dashboard",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/overlay", s.handleGetOverlay)
	api.Put("/overlay/view", s.handleSetView)
	api.Get("/overlay/frame.jpg", s.handleLatestFrame)
	api.Get("/camera", s.handleGetCamera)
	api.Put("/camera", s.handleUpdateCamera)
	api.Get("/camera/capabilities", s.handleCapabilities)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/overlay", websocket.New(s.handleFramesWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// App exposes the fiber app, e.g. for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log.Info("web dashboard listening", "addr", ln.Addr().String())

	hubCtx, cancelHubs := context.WithCancel(ctx)
	defer cancelHubs()
	go s.frameHub.Run(hubCtx)
	go s.statusHub.Run(hubCtx)

	errc := make(chan error, 1)
	go func() { errc <- s.app.Listener(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	cancelHubs()
	if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
		return err
	}
	<-errc
	return nil
}

// SendFrame broadcasts an encoded composite to /ws/overlay subscribers.
// It has the render.Sink signature.
func (s *Server) SendFrame(jpegData []byte) {
	s.frameHub.BroadcastBinary(jpegData)
}

// PublishStatus broadcasts the current status to /ws/status subscribers.
func (s *Server) PublishStatus() {
	if err := s.statusHub.BroadcastJSON(s.status()); err != nil {
		log.Warn("encode status", "error", err)
	}
}

func (s *Server) status() Status {
	st := Status{
		Detector:      s.deps.Detector,
		Uptime:        time.Since(s.started).Round(time.Second).String(),
		FrameClients:  s.frameHub.ClientCount(),
		StatusClients: s.statusHub.ClientCount(),
	}
	if s.deps.ProcessorMetrics != nil {
		st.Processor = s.deps.ProcessorMetrics()
	}
	if s.deps.CaptureStats != nil {
		st.Capture = s.deps.CaptureStats()
	}
	if s.deps.RenderStats != nil {
		st.Render = s.deps.RenderStats()
	}
	return st
}

// errorHandler renders every error as {"error": "..."}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
