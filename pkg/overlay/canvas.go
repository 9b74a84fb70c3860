package overlay

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Point is a position in view pixels.
type Point struct {
	X, Y float64
}

// Canvas is the drawing surface a render pass paints on. All
// coordinates are view pixels; graphics obtain them from a Transform.
type Canvas interface {
	// Size returns the surface dimensions.
	Size() (w, h int)

	// DrawImage paints img mapped through m (source pixels to view pixels).
	DrawImage(img image.Image, m f64.Aff3)

	// DrawMask paints c through the alpha channel of mask mapped by m.
	DrawMask(mask image.Image, m f64.Aff3, c color.Color)

	StrokeRect(r Rect, c color.Color, width float64)
	StrokeLine(a, b Point, c color.Color, width float64)
	FillCircle(center Point, radius float64, c color.Color)
	FillPolygon(pts []Point, c color.Color)

	// DrawText writes s with its baseline starting at p.
	DrawText(p Point, s string, c color.Color)
}

// RGBACanvas is a Canvas backed by an in-memory RGBA image.
type RGBACanvas struct {
	img *image.RGBA
	z   *vector.Rasterizer
}

// NewRGBACanvas allocates a w×h canvas cleared to transparent.
func NewRGBACanvas(w, h int) *RGBACanvas {
	return WrapRGBA(image.NewRGBA(image.Rect(0, 0, w, h)))
}

// WrapRGBA draws directly into img.
func WrapRGBA(img *image.RGBA) *RGBACanvas {
	b := img.Bounds()
	return &RGBACanvas{img: img, z: vector.NewRasterizer(b.Dx(), b.Dy())}
}

// Image returns the backing image.
func (c *RGBACanvas) Image() *image.RGBA { return c.img }

// Size implements Canvas.
func (c *RGBACanvas) Size() (int, int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Fill paints the whole canvas with col.
func (c *RGBACanvas) Fill(col color.Color) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

// DrawImage implements Canvas.
func (c *RGBACanvas) DrawImage(img image.Image, m f64.Aff3) {
	draw.BiLinear.Transform(c.img, m, img, img.Bounds(), draw.Over, nil)
}

// DrawMask implements Canvas.
func (c *RGBACanvas) DrawMask(mask image.Image, m f64.Aff3, col color.Color) {
	b := mask.Bounds()
	r, g, bl, a := col.RGBA()
	tinted := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, ma := mask.At(x, y).RGBA()
			if ma == 0 {
				continue
			}
			// Premultiplied channels scaled by the mask coverage.
			tinted.SetRGBA(x, y, color.RGBA{
				R: uint8(r * ma / 0xffff >> 8),
				G: uint8(g * ma / 0xffff >> 8),
				B: uint8(bl * ma / 0xffff >> 8),
				A: uint8(a * ma / 0xffff >> 8),
			})
		}
	}
	draw.NearestNeighbor.Transform(c.img, m, tinted, b, draw.Over, nil)
}

// StrokeRect implements Canvas.
func (c *RGBACanvas) StrokeRect(r Rect, col color.Color, width float64) {
	tl := Point{r.MinX, r.MinY}
	tr := Point{r.MaxX, r.MinY}
	br := Point{r.MaxX, r.MaxY}
	bl := Point{r.MinX, r.MaxY}
	c.StrokeLine(tl, tr, col, width)
	c.StrokeLine(tr, br, col, width)
	c.StrokeLine(br, bl, col, width)
	c.StrokeLine(bl, tl, col, width)
}

// StrokeLine implements Canvas. The segment is rasterized as a quad
// width pixels wide.
func (c *RGBACanvas) StrokeLine(a, b Point, col color.Color, width float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		c.FillCircle(a, width/2, col)
		return
	}
	// Unit normal scaled to half the stroke width.
	nx, ny := -dy/length*width/2, dx/length*width/2
	c.FillPolygon([]Point{
		{a.X + nx, a.Y + ny},
		{b.X + nx, b.Y + ny},
		{b.X - nx, b.Y - ny},
		{a.X - nx, a.Y - ny},
	}, col)
}

// circleSegments is the polygon resolution used for FillCircle.
const circleSegments = 24

// FillCircle implements Canvas.
func (c *RGBACanvas) FillCircle(center Point, radius float64, col color.Color) {
	if radius <= 0 {
		return
	}
	pts := make([]Point, circleSegments)
	for i := range pts {
		theta := 2 * math.Pi * float64(i) / circleSegments
		pts[i] = Point{center.X + radius*math.Cos(theta), center.Y + radius*math.Sin(theta)}
	}
	c.FillPolygon(pts, col)
}

// FillPolygon implements Canvas.
func (c *RGBACanvas) FillPolygon(pts []Point, col color.Color) {
	if len(pts) < 3 {
		return
	}
	// Rasterize only the polygon's bounding box, clipped to the canvas.
	box := polygonBounds(pts).Intersect(c.img.Bounds())
	if box.Empty() {
		return
	}
	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	c.z.Reset(box.Dx(), box.Dy())
	c.z.MoveTo(float32(pts[0].X-ox), float32(pts[0].Y-oy))
	for _, p := range pts[1:] {
		c.z.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	c.z.ClosePath()
	c.z.Draw(c.img, box, image.NewUniform(col), image.Point{})
}

// polygonBounds returns the smallest pixel rectangle covering pts, or
// an empty rectangle when a coordinate is not finite.
func polygonBounds(pts []Point) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		if !finite(p.X) || !finite(p.Y) {
			return image.Rectangle{}
		}
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	clamp := func(v float64) int {
		return int(math.Max(math.MinInt32, math.Min(math.MaxInt32, v)))
	}
	return image.Rect(
		clamp(math.Floor(minX)), clamp(math.Floor(minY)),
		clamp(math.Ceil(maxX)), clamp(math.Ceil(maxY)),
	)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// DrawText implements Canvas.
func (c *RGBACanvas) DrawText(p Point, s string, col color.Color) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(int(math.Round(p.X)), int(math.Round(p.Y))),
	}
	d.DrawString(s)
}
