package overlay

import (
	"image"

	"golang.org/x/image/math/f64"
)

// ScaleMode selects how the preview is fitted to the view.
type ScaleMode int

const (
	// ScaleFill scales the preview so it covers the whole view,
	// cropping whatever overflows.
	ScaleFill ScaleMode = iota
	// ScaleFit scales the preview so it is fully visible, leaving
	// empty bands along one axis.
	ScaleFit
)

// String implements fmt.Stringer.
func (m ScaleMode) String() string {
	if m == ScaleFit {
		return "fit"
	}
	return "fill"
}

// Alignment selects where the scaled preview is anchored in the view.
type Alignment int

const (
	// AlignTopLeft anchors preview (0,0) to view (0,0); overflow is
	// cropped at the right and bottom edges.
	AlignTopLeft Alignment = iota
	// AlignCenter centers the scaled preview; overflow is cropped
	// evenly on both sides.
	AlignCenter
)

// String implements fmt.Stringer.
func (a Alignment) String() string {
	if a == AlignCenter {
		return "center"
	}
	return "top-left"
}

// Transform is an immutable snapshot of the frame-to-view mapping. A
// render pass takes one snapshot and hands it to every graphic, so all
// graphics in a pass agree on scale and offsets.
type Transform struct {
	scale         float64
	offsetX       float64
	offsetY       float64
	viewWidth     int
	viewHeight    int
	previewWidth  int
	previewHeight int
	mirrored      bool
}

// newTransform derives the mapping for the given geometry.
func newTransform(pw, ph, vw, vh int, mirrored bool, mode ScaleMode, align Alignment) Transform {
	sx := float64(vw) / float64(pw)
	sy := float64(vh) / float64(ph)

	scale := max(sx, sy)
	if mode == ScaleFit {
		scale = min(sx, sy)
	}

	t := Transform{
		scale:         scale,
		viewWidth:     vw,
		viewHeight:    vh,
		previewWidth:  pw,
		previewHeight: ph,
		mirrored:      mirrored,
	}
	if align == AlignCenter {
		t.offsetX = (float64(pw)*scale - float64(vw)) / 2
		t.offsetY = (float64(ph)*scale - float64(vh)) / 2
	}
	return t
}

// Scale returns the factor applied to frame coordinates.
func (t Transform) Scale() float64 { return t.scale }

// Mirrored reports whether the X axis is flipped (front camera).
func (t Transform) Mirrored() bool { return t.mirrored }

// Offset returns how far the scaled preview is shifted up and left of
// the view origin. Both are zero for AlignTopLeft.
func (t Transform) Offset() (x, y float64) { return t.offsetX, t.offsetY }

// ViewSize returns the rendering surface size in pixels.
func (t Transform) ViewSize() (w, h int) { return t.viewWidth, t.viewHeight }

// PreviewSize returns the upright frame size in detector coordinates.
func (t Transform) PreviewSize() (w, h int) { return t.previewWidth, t.previewHeight }

// ScaleLength converts a frame-space distance to view pixels.
func (t Transform) ScaleLength(d float64) float64 { return d * t.scale }

// TranslateX maps a frame-space x to view pixels, mirroring for the
// front camera.
func (t Transform) TranslateX(x float64) float64 {
	v := x*t.scale - t.offsetX
	if t.mirrored {
		return float64(t.viewWidth) - v
	}
	return v
}

// TranslateY maps a frame-space y to view pixels. Never mirrored.
func (t Transform) TranslateY(y float64) float64 {
	return y*t.scale - t.offsetY
}

// TranslatePoint maps a frame-space point to view pixels.
func (t Transform) TranslatePoint(x, y float64) (float64, float64) {
	return t.TranslateX(x), t.TranslateY(y)
}

// TranslateRect maps a frame-space rectangle to view pixels. The
// result is normalized so Min is the top-left corner even when the X
// axis is mirrored.
func (t Transform) TranslateRect(r Rect) Rect {
	x0, y0 := t.TranslatePoint(r.MinX, r.MinY)
	x1, y1 := t.TranslatePoint(r.MaxX, r.MaxY)
	return Rect{MinX: min(x0, x1), MinY: min(y0, y1), MaxX: max(x0, x1), MaxY: max(y0, y1)}
}

// Matrix returns the affine transform equivalent to TranslatePoint,
// in the layout used by golang.org/x/image/draw: x' = m[0]x + m[1]y + m[2],
// y' = m[3]x + m[4]y + m[5].
func (t Transform) Matrix() Matrix {
	if t.mirrored {
		return f64.Aff3{
			-t.scale, 0, float64(t.viewWidth) + t.offsetX,
			0, t.scale, -t.offsetY,
		}
	}
	return f64.Aff3{
		t.scale, 0, -t.offsetX,
		0, t.scale, -t.offsetY,
	}
}

// Matrix is an affine frame-to-view transform.
type Matrix = f64.Aff3

// Apply maps (x, y) through an affine matrix.
func Apply(m Matrix, x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

// Rect is an axis-aligned rectangle in floating-point coordinates.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// RectFromImage converts an integer rectangle.
func RectFromImage(r image.Rectangle) Rect {
	return Rect{
		MinX: float64(r.Min.X), MinY: float64(r.Min.Y),
		MaxX: float64(r.Max.X), MaxY: float64(r.Max.Y),
	}
}

// Width returns MaxX - MinX.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns MaxY - MinY.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }
