package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-overlay/pkg/camera"
	"github.com/teslashibe/go-overlay/pkg/hub"
	"github.com/teslashibe/go-overlay/pkg/overlay"
)

// OverlayInfo describes the overlay geometry for GET /api/overlay.
type OverlayInfo struct {
	ID         string     `json:"id"`
	ViewWidth  int        `json:"view_width"`
	ViewHeight int        `json:"view_height"`
	Configured bool       `json:"configured"`
	Preview    [2]int     `json:"preview"`
	Scale      float64    `json:"scale,omitempty"`
	Mirrored   bool       `json:"mirrored"`
	Matrix     [6]float64 `json:"matrix"`
	Graphics   int        `json:"graphics"`
}

// ViewRequest is the body of PUT /api/overlay/view.
type ViewRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// maxViewSide bounds the render surface.
const maxViewSide = 4096

// handleStatus returns the pipeline summary
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

// handleGetOverlay returns the current transform
func (s *Server) handleGetOverlay(c *fiber.Ctx) error {
	if s.deps.Overlay == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "overlay not configured")
	}
	ov := s.deps.Overlay

	info := OverlayInfo{ID: ov.ID(), Graphics: ov.Len()}
	info.ViewWidth, info.ViewHeight = ov.ViewSize()

	t, err := ov.Transform()
	switch {
	case err == nil:
		info.Configured = true
		info.Preview[0], info.Preview[1] = t.PreviewSize()
		info.Scale = t.Scale()
		info.Mirrored = t.Mirrored()
		info.Matrix = t.Matrix()
	case errors.Is(err, overlay.ErrNotConfigured):
	default:
		return err
	}
	return c.JSON(info)
}

// handleSetView resizes the render surface
func (s *Server) handleSetView(c *fiber.Ctx) error {
	if s.deps.Overlay == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "overlay not configured")
	}

	var req ViewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}
	if req.Width <= 0 || req.Height <= 0 || req.Width > maxViewSide || req.Height > maxViewSide {
		return fiber.NewError(fiber.StatusBadRequest, "width and height must be between 1 and 4096")
	}

	s.deps.Overlay.SetViewSize(req.Width, req.Height)
	return s.handleGetOverlay(c)
}

// handleLatestFrame returns the most recent composite as JPEG
func (s *Server) handleLatestFrame(c *fiber.Ctx) error {
	var frame []byte
	if s.deps.LatestFrame != nil {
		frame = s.deps.LatestFrame()
	}
	if frame == nil {
		return fiber.NewError(fiber.StatusNotFound, "no frame rendered yet")
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	return c.Send(frame)
}

// handleGetCamera returns the camera configuration
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.deps.Camera == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "camera not configured")
	}
	return c.JSON(s.deps.Camera.GetConfigJSON())
}

// handleUpdateCamera applies a partial update or a preset
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	if s.deps.Camera == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "camera not configured")
	}

	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}
	if err := s.deps.Camera.UpdateConfig(params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(s.deps.Camera.GetConfigJSON())
}

// handleCapabilities returns supported camera ranges and presets
func (s *Server) handleCapabilities(c *fiber.Ctx) error {
	return c.JSON(camera.Capabilities())
}

// handleFramesWS streams composite frames
func (s *Server) handleFramesWS(c *websocket.Conn) {
	hub.NewClient(s.frameHub, c).Run()
}

// handleStatusWS streams status updates, starting with the current one
func (s *Server) handleStatusWS(c *websocket.Conn) {
	if err := c.WriteJSON(s.status()); err != nil {
		return
	}
	hub.NewClient(s.statusHub, c).Run()
}
