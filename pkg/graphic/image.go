package graphic

import (
	"image"
	"image/color"

	"github.com/teslashibe/go-overlay/pkg/overlay"
)

// CameraImage paints the upright camera frame as the overlay
// background. It uses the same matrix as every annotation, so boxes and
// points stay pixel-aligned with the image beneath them. The image is
// owned by the caller and must not change while the graphic is attached.
type CameraImage struct {
	overlay.Base
	Image image.Image
}

// NewCameraImage creates a background graphic for img.
func NewCameraImage(h overlay.Handle, img image.Image) *CameraImage {
	return &CameraImage{Base: overlay.NewBase(h), Image: img}
}

// Draw implements overlay.Graphic.
func (g *CameraImage) Draw(c overlay.Canvas, t overlay.Transform) {
	if g.Image == nil {
		return
	}
	c.DrawImage(g.Image, t.Matrix())
}

// Mask tints the frame-space pixels where Alpha is non-zero, for
// segmentation output. Alpha must cover the frame: its bounds are in
// frame coordinates.
type Mask struct {
	overlay.Base
	Alpha image.Image
	Color color.Color
}

// NewMask creates a mask graphic.
func NewMask(h overlay.Handle, alpha image.Image) *Mask {
	return &Mask{Base: overlay.NewBase(h), Alpha: alpha, Color: ColorMask}
}

// Draw implements overlay.Graphic.
func (m *Mask) Draw(c overlay.Canvas, t overlay.Transform) {
	if m.Alpha == nil {
		return
	}
	c.DrawMask(m.Alpha, t.Matrix(), m.Color)
}
