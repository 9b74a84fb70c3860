// Package graphic provides the concrete annotations drawn on an
// overlay: the camera image background, boxes, landmark points, meshes,
// segmentation masks and text labels. Every graphic maps its
// frame-space coordinates through the overlay transform at draw time.
package graphic

import (
	"image/color"

	"github.com/teslashibe/go-overlay/pkg/overlay"
)

// Default colors.
var (
	ColorBox      = color.RGBA{R: 0, G: 230, B: 118, A: 255}
	ColorLandmark = color.RGBA{R: 255, G: 64, B: 129, A: 255}
	ColorMesh     = color.RGBA{R: 255, G: 255, B: 255, A: 160}
	ColorMask     = color.RGBA{R: 0, G: 120, B: 255, A: 110}
	ColorText     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Style controls stroke and fill appearance.
type Style struct {
	Color       color.Color
	StrokeWidth float64 // view pixels
	PointRadius float64 // view pixels
}

// DefaultStyle returns the style used when none is supplied.
func DefaultStyle() Style {
	return Style{
		Color:       ColorBox,
		StrokeWidth: 4,
		PointRadius: 4,
	}
}

// labelPadding is the gap in view pixels between a box and its label.
const labelPadding = 4

// Box is a rectangle in frame coordinates with an optional caption.
type Box struct {
	overlay.Base
	Rect  overlay.Rect
	Label string
	Style Style
}

// NewBox creates a box bound to the overlay identified by h.
func NewBox(h overlay.Handle, r overlay.Rect, label string) *Box {
	return &Box{Base: overlay.NewBase(h), Rect: r, Label: label, Style: DefaultStyle()}
}

// Draw implements overlay.Graphic.
func (b *Box) Draw(c overlay.Canvas, t overlay.Transform) {
	r := t.TranslateRect(b.Rect)
	c.StrokeRect(r, b.Style.Color, b.Style.StrokeWidth)
	if b.Label != "" {
		c.DrawText(overlay.Point{X: r.MinX, Y: r.MinY - labelPadding}, b.Label, ColorText)
	}
}

// Landmarks is a set of points in frame coordinates.
type Landmarks struct {
	overlay.Base
	Points []overlay.Point
	Style  Style
}

// NewLandmarks creates a point set bound to the overlay identified by h.
func NewLandmarks(h overlay.Handle, pts []overlay.Point) *Landmarks {
	s := DefaultStyle()
	s.Color = ColorLandmark
	return &Landmarks{Base: overlay.NewBase(h), Points: pts, Style: s}
}

// Draw implements overlay.Graphic.
func (l *Landmarks) Draw(c overlay.Canvas, t overlay.Transform) {
	for _, p := range l.Points {
		x, y := t.TranslatePoint(p.X, p.Y)
		c.FillCircle(overlay.Point{X: x, Y: y}, l.Style.PointRadius, l.Style.Color)
	}
}

// Edge joins two points of a Mesh by index.
type Edge [2]int

// Mesh is a point cloud with edges between points, as produced by face
// mesh and pose detectors.
type Mesh struct {
	overlay.Base
	Points []overlay.Point
	Edges  []Edge
	Style  Style
}

// NewMesh creates a mesh bound to the overlay identified by h. Edges
// referencing missing points are skipped at draw time.
func NewMesh(h overlay.Handle, pts []overlay.Point, edges []Edge) *Mesh {
	return &Mesh{
		Base:   overlay.NewBase(h),
		Points: pts,
		Edges:  edges,
		Style:  Style{Color: ColorMesh, StrokeWidth: 1, PointRadius: 1.5},
	}
}

// Draw implements overlay.Graphic.
func (m *Mesh) Draw(c overlay.Canvas, t overlay.Transform) {
	view := make([]overlay.Point, len(m.Points))
	for i, p := range m.Points {
		x, y := t.TranslatePoint(p.X, p.Y)
		view[i] = overlay.Point{X: x, Y: y}
	}
	for _, e := range m.Edges {
		if e[0] < 0 || e[1] < 0 || e[0] >= len(view) || e[1] >= len(view) {
			continue
		}
		c.StrokeLine(view[e[0]], view[e[1]], m.Style.Color, m.Style.StrokeWidth)
	}
	for _, p := range view {
		c.FillCircle(p, m.Style.PointRadius, m.Style.Color)
	}
}

// Label is text anchored at a frame-space point. Classification results
// have no geometry of their own; they set Fixed so At is taken as view
// pixels and the text stays on screen whatever the crop or mirroring.
type Label struct {
	overlay.Base
	At    overlay.Point
	Text  string
	Color color.Color
	Fixed bool
}

// NewLabel creates a label bound to the overlay identified by h.
func NewLabel(h overlay.Handle, at overlay.Point, text string) *Label {
	return &Label{Base: overlay.NewBase(h), At: at, Text: text, Color: ColorText}
}

// lineHeight matches the 7x13 face used by overlay.RGBACanvas.
const lineHeight = 13

// Draw implements overlay.Graphic. The text itself is never mirrored;
// only its anchor follows the transform.
func (l *Label) Draw(c overlay.Canvas, t overlay.Transform) {
	x, y := l.At.X, l.At.Y
	if !l.Fixed {
		x, y = t.TranslatePoint(x, y)
	}
	c.DrawText(overlay.Point{X: x + labelPadding, Y: y + lineHeight + labelPadding}, l.Text, l.Color)
}
