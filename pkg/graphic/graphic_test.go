package graphic

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-overlay/pkg/frame"
	"github.com/teslashibe/go-overlay/pkg/overlay"
)

// fakeCanvas records calls instead of drawing.
type fakeCanvas struct {
	images  []overlay.Matrix
	masks   []overlay.Matrix
	rects   []overlay.Rect
	lines   [][2]overlay.Point
	circles []overlay.Point
	texts   []string
	textAt  []overlay.Point
}

func (f *fakeCanvas) Size() (int, int) { return 1080, 1920 }
func (f *fakeCanvas) DrawImage(_ image.Image, m overlay.Matrix) {
	f.images = append(f.images, m)
}
func (f *fakeCanvas) DrawMask(_ image.Image, m overlay.Matrix, _ color.Color) {
	f.masks = append(f.masks, m)
}
func (f *fakeCanvas) StrokeRect(r overlay.Rect, _ color.Color, _ float64) {
	f.rects = append(f.rects, r)
}
func (f *fakeCanvas) StrokeLine(a, b overlay.Point, _ color.Color, _ float64) {
	f.lines = append(f.lines, [2]overlay.Point{a, b})
}
func (f *fakeCanvas) FillCircle(p overlay.Point, _ float64, _ color.Color) {
	f.circles = append(f.circles, p)
}
func (f *fakeCanvas) FillPolygon(_ []overlay.Point, _ color.Color) {}
func (f *fakeCanvas) DrawText(p overlay.Point, s string, _ color.Color) {
	f.texts = append(f.texts, s)
	f.textAt = append(f.textAt, p)
}

func setup(t *testing.T, facing frame.Facing) (*overlay.Overlay, overlay.Transform) {
	t.Helper()
	o := overlay.New(overlay.WithViewSize(1080, 1920))
	require.NoError(t, o.SetCameraInfo(overlay.CameraInfo{Width: 640, Height: 480, Facing: facing}))
	tr, err := o.Transform()
	require.NoError(t, err)
	return o, tr
}

func TestBox_Draw(t *testing.T) {
	tests := []struct {
		name   string
		facing frame.Facing
		want   overlay.Rect
	}{
		{"back", frame.FacingBack, overlay.Rect{MinX: 400, MinY: 400, MaxX: 800, MaxY: 600}},
		{"front", frame.FacingFront, overlay.Rect{MinX: 280, MinY: 400, MaxX: 680, MaxY: 600}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o, tr := setup(t, tc.facing)
			box := NewBox(o.Handle(), overlay.Rect{MinX: 100, MinY: 100, MaxX: 200, MaxY: 150}, "person")

			var c fakeCanvas
			box.Draw(&c, tr)

			require.Len(t, c.rects, 1)
			assert.Equal(t, tc.want, c.rects[0])
			assert.Equal(t, []string{"person"}, c.texts)
			assert.Equal(t, box.Handle(), o.Handle())
		})
	}
}

func TestLandmarks_Draw(t *testing.T) {
	o, tr := setup(t, frame.FacingFront)
	l := NewLandmarks(o.Handle(), []overlay.Point{{X: 0, Y: 0}, {X: 100, Y: 100}})

	var c fakeCanvas
	l.Draw(&c, tr)

	assert.Equal(t, []overlay.Point{{X: 1080, Y: 0}, {X: 680, Y: 400}}, c.circles)
}

func TestMesh_SkipsInvalidEdges(t *testing.T) {
	o, tr := setup(t, frame.FacingBack)
	m := NewMesh(o.Handle(),
		[]overlay.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}},
		[]Edge{{0, 1}, {1, 2}, {2, 7}, {-1, 0}},
	)

	var c fakeCanvas
	m.Draw(&c, tr)

	assert.Len(t, c.lines, 2)
	assert.Equal(t, [2]overlay.Point{{X: 0, Y: 0}, {X: 40, Y: 0}}, c.lines[0])
	assert.Len(t, c.circles, 3)
}

func TestLabel_AnchorFollowsTransform(t *testing.T) {
	o, tr := setup(t, frame.FacingBack)
	l := NewLabel(o.Handle(), overlay.Point{X: 10, Y: 10}, "kitchen 0.91")

	var c fakeCanvas
	l.Draw(&c, tr)

	require.Len(t, c.textAt, 1)
	assert.Equal(t, overlay.Point{X: 40 + labelPadding, Y: 40 + lineHeight + labelPadding}, c.textAt[0])
}

func TestLabel_FixedIgnoresTransform(t *testing.T) {
	o, tr := setup(t, frame.FacingFront)
	l := NewLabel(o.Handle(), overlay.Point{X: 10, Y: 10}, "office 0.88")
	l.Fixed = true

	var c fakeCanvas
	l.Draw(&c, tr)

	require.Len(t, c.textAt, 1)
	assert.Equal(t, overlay.Point{X: 10 + labelPadding, Y: 10 + lineHeight + labelPadding}, c.textAt[0])
}

func TestCameraImage_UsesOverlayMatrix(t *testing.T) {
	o, tr := setup(t, frame.FacingFront)
	g := NewCameraImage(o.Handle(), image.NewRGBA(image.Rect(0, 0, 640, 480)))

	var c fakeCanvas
	g.Draw(&c, tr)

	require.Len(t, c.images, 1)
	assert.Equal(t, tr.Matrix(), c.images[0])

	// A nil image draws nothing.
	var empty fakeCanvas
	NewCameraImage(o.Handle(), nil).Draw(&empty, tr)
	assert.Empty(t, empty.images)
}

func TestMask_UsesOverlayMatrix(t *testing.T) {
	o, tr := setup(t, frame.FacingBack)
	m := NewMask(o.Handle(), image.NewAlpha(image.Rect(0, 0, 640, 480)))

	var c fakeCanvas
	m.Draw(&c, tr)

	require.Len(t, c.masks, 1)
	assert.Equal(t, tr.Matrix(), c.masks[0])
}

// TestBackgroundAlignment renders a frame with a bright square and checks
// that the annotation position computed by the transform lands on that
// square in the composited view, for both camera facings.
func TestBackgroundAlignment(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 10; y < 20; y++ {
		for x := 10; x < 20; x++ {
			src.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}

	for _, facing := range []frame.Facing{frame.FacingBack, frame.FacingFront} {
		t.Run(facing.String(), func(t *testing.T) {
			o := overlay.New(overlay.WithViewSize(256, 192))
			require.NoError(t, o.SetCameraInfo(overlay.CameraInfo{Width: 64, Height: 48, Facing: facing}))
			require.NoError(t, o.ReplaceAll(NewCameraImage(o.Handle(), src)))

			c := overlay.NewRGBACanvas(256, 192)
			c.Fill(color.Black)
			require.NoError(t, o.Render(c))

			x, err := o.TranslateX(15)
			require.NoError(t, err)
			y, err := o.TranslateY(15)
			require.NoError(t, err)

			got := c.Image().RGBAAt(int(x), int(y))
			assert.Greater(t, got.R, uint8(200), "background at annotation point (%v,%v) = %v", x, y, got)

			// Outside the square stays dark.
			ox, _ := o.TranslateX(40)
			oy, _ := o.TranslateY(40)
			assert.Less(t, c.Image().RGBAAt(int(ox), int(oy)).R, uint8(50))
		})
	}
}
