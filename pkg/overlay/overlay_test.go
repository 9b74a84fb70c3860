package overlay

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-overlay/pkg/frame"
)

// recorder is a Graphic that logs every draw call.
type recorder struct {
	Base
	name  string
	draws *[]string
	seen  *[]Transform
}

func newRecorder(o *Overlay, name string, draws *[]string, seen *[]Transform) *recorder {
	return &recorder{Base: NewBase(o.Handle()), name: name, draws: draws, seen: seen}
}

func (r *recorder) Draw(_ Canvas, t Transform) {
	*r.draws = append(*r.draws, r.name)
	if r.seen != nil {
		*r.seen = append(*r.seen, t)
	}
}

func configured(t *testing.T, facing frame.Facing, opts ...Option) *Overlay {
	t.Helper()
	o := New(append([]Option{WithViewSize(1080, 1920)}, opts...)...)
	require.NoError(t, o.SetCameraInfo(CameraInfo{Width: 640, Height: 480, Facing: facing}))
	return o
}

func TestScaleFactor_FillCoversView(t *testing.T) {
	sizes := []int{1, 7, 240, 480, 640, 1080, 1920}
	for _, pw := range sizes {
		for _, ph := range sizes {
			for _, vw := range sizes {
				for _, vh := range sizes {
					o := New(WithViewSize(vw, vh))
					require.NoError(t, o.SetCameraInfo(CameraInfo{Width: pw, Height: ph}))

					s, err := o.ScaleFactor()
					require.NoError(t, err)

					want := max(float64(vw)/float64(pw), float64(vh)/float64(ph))
					assert.InDelta(t, want, s, 1e-9, "preview %dx%d view %dx%d", pw, ph, vw, vh)
					assert.GreaterOrEqual(t, float64(pw)*s+1e-9, float64(vw))
					assert.GreaterOrEqual(t, float64(ph)*s+1e-9, float64(vh))
				}
			}
		}
	}
}

func TestScaleFactor_FitContainsPreview(t *testing.T) {
	o := configured(t, frame.FacingBack, WithScaleMode(ScaleFit))
	s, err := o.ScaleFactor()
	require.NoError(t, err)
	assert.InDelta(t, 1080.0/640.0, s, 1e-9)
	assert.LessOrEqual(t, 640*s, 1080.0+1e-9)
	assert.LessOrEqual(t, 480*s, 1920.0+1e-9)
}

func TestTranslate_BackCamera(t *testing.T) {
	o := configured(t, frame.FacingBack)

	s, err := o.ScaleFactor()
	require.NoError(t, err)
	assert.Equal(t, 4.0, s)

	x, err := o.TranslateX(100)
	require.NoError(t, err)
	assert.Equal(t, 400.0, x)

	y, err := o.TranslateY(100)
	require.NoError(t, err)
	assert.Equal(t, 400.0, y)

	for _, v := range []float64{0, 1, 33.3, 320, 639} {
		got, _ := o.TranslateX(v)
		assert.InDelta(t, v*s, got, 1e-9)
	}
}

func TestTranslate_FrontCameraMirrorsX(t *testing.T) {
	o := configured(t, frame.FacingFront)

	x, err := o.TranslateX(100)
	require.NoError(t, err)
	assert.Equal(t, 680.0, x)

	for _, v := range []float64{0, 1, 33.3, 320, 639} {
		got, _ := o.TranslateX(v)
		assert.InDelta(t, 1080-v*4, got, 1e-9)
	}
}

func TestTranslateY_IgnoresFacing(t *testing.T) {
	back := configured(t, frame.FacingBack)
	front := configured(t, frame.FacingFront)
	for _, v := range []float64{0, 12.5, 100, 479} {
		yb, _ := back.TranslateY(v)
		yf, _ := front.TranslateY(v)
		assert.Equal(t, yb, yf, "y=%v", v)
	}
}

func TestTransform_NotConfigured(t *testing.T) {
	o := New(WithViewSize(1080, 1920))

	_, err := o.ScaleFactor()
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = o.TranslateX(1)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = o.TransformationMatrix()
	assert.ErrorIs(t, err, ErrInvalidState)

	noView := New()
	require.NoError(t, noView.SetCameraInfo(CameraInfo{Width: 640, Height: 480}))
	_, err = noView.ScaleFactor()
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSetCameraInfo_RotationSwapsAxes(t *testing.T) {
	tests := []struct {
		rotation frame.Rotation
		wantW    int
		wantH    int
	}{
		{frame.Rotation0, 640, 480},
		{frame.Rotation90, 480, 640},
		{frame.Rotation180, 640, 480},
		{frame.Rotation270, 480, 640},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("rot%d", tc.rotation), func(t *testing.T) {
			o := New(WithViewSize(1080, 1920))
			require.NoError(t, o.SetCameraInfo(CameraInfo{Width: 640, Height: 480, Rotation: tc.rotation}))
			tr, err := o.Transform()
			require.NoError(t, err)
			w, h := tr.PreviewSize()
			assert.Equal(t, tc.wantW, w)
			assert.Equal(t, tc.wantH, h)
		})
	}
}

func TestSetCameraInfo_Rejects(t *testing.T) {
	o := New()
	assert.ErrorIs(t, o.SetCameraInfo(CameraInfo{Width: 0, Height: 480}), frame.ErrPrecondition)
	assert.ErrorIs(t, o.SetCameraInfo(CameraInfo{Width: 640, Height: 480, Rotation: 30}), frame.ErrUnsupportedRotation)
}

func TestSetViewSize_InvalidatesCache(t *testing.T) {
	o := configured(t, frame.FacingBack)
	s1, _ := o.ScaleFactor()

	o.SetViewSize(1920, 1080)
	s2, err := o.ScaleFactor()
	require.NoError(t, err)

	assert.Equal(t, 4.0, s1)
	assert.Equal(t, 3.0, s2)

	require.NoError(t, o.SetCameraInfo(CameraInfo{Width: 1280, Height: 720}))
	s3, _ := o.ScaleFactor()
	assert.Equal(t, 1.5, s3)
}

func TestSetViewSize_RequestsRedraw(t *testing.T) {
	o := configured(t, frame.FacingBack)

	o.SetViewSize(1920, 1080)
	select {
	case <-o.Invalidated():
	default:
		t.Fatal("view size change did not request a redraw")
	}

	o.SetViewSize(1920, 1080)
	select {
	case <-o.Invalidated():
		t.Fatal("unchanged view size requested a redraw")
	default:
	}
}

func TestSnapshot_PairsViewSizeWithTransform(t *testing.T) {
	o := configured(t, frame.FacingFront)
	g := newRecorder(o, "box", new([]string), new([]Transform))
	require.NoError(t, o.ReplaceAll(g))

	snap, err := o.Snapshot()
	require.NoError(t, err)
	o.SetViewSize(1920, 1080)

	w, h := snap.Transform.ViewSize()
	assert.Equal(t, 1080, w)
	assert.Equal(t, 1920, h)
	assert.Equal(t, 4.0, snap.Transform.Scale())
	assert.Equal(t, []Graphic{g}, snap.Graphics)

	next, err := o.Snapshot()
	require.NoError(t, err)
	w, h = next.Transform.ViewSize()
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)
	assert.Equal(t, 3.0, next.Transform.Scale())
}

func TestMatrix_MatchesPointTransform(t *testing.T) {
	approx := cmpopts.EquateApprox(0, 1e-9)
	for _, facing := range []frame.Facing{frame.FacingBack, frame.FacingFront} {
		for _, align := range []Alignment{AlignTopLeft, AlignCenter} {
			for _, mode := range []ScaleMode{ScaleFill, ScaleFit} {
				o := configured(t, facing, WithAlignment(align), WithScaleMode(mode))
				tr, err := o.Transform()
				require.NoError(t, err)
				m := tr.Matrix()

				for _, p := range [][2]float64{{0, 0}, {100, 100}, {639, 479}, {320.5, 12.25}} {
					mx, my := Apply(m, p[0], p[1])
					tx, ty := tr.TranslatePoint(p[0], p[1])
					if diff := cmp.Diff([2]float64{tx, ty}, [2]float64{mx, my}, approx); diff != "" {
						t.Errorf("%s/%s/%s point %v (-translate +matrix):\n%s", facing, align, mode, p, diff)
					}
				}
			}
		}
	}
}

func TestAlignCenter_SplitsCrop(t *testing.T) {
	o := configured(t, frame.FacingBack, WithAlignment(AlignCenter))
	tr, err := o.Transform()
	require.NoError(t, err)

	ox, oy := tr.Offset()
	assert.Equal(t, 740.0, ox) // (2560 - 1080) / 2
	assert.Equal(t, 0.0, oy)

	// The frame center lands on the view center.
	x, y := tr.TranslatePoint(320, 240)
	assert.Equal(t, 540.0, x)
	assert.Equal(t, 960.0, y)
}

func TestTranslateRect_NormalizedWhenMirrored(t *testing.T) {
	o := configured(t, frame.FacingFront)
	tr, _ := o.Transform()
	r := tr.TranslateRect(Rect{MinX: 10, MinY: 20, MaxX: 110, MaxY: 70})
	assert.Equal(t, Rect{MinX: 1080 - 440, MinY: 80, MaxX: 1080 - 40, MaxY: 280}, r)
}

func TestClear_Idempotent(t *testing.T) {
	o := configured(t, frame.FacingBack)
	var draws []string
	require.NoError(t, o.Add(newRecorder(o, "a", &draws, nil)))

	o.Clear()
	assert.Equal(t, 0, o.Len())
	o.Clear()
	assert.Equal(t, 0, o.Len())
}

func TestAddRemove_RestoresSet(t *testing.T) {
	o := configured(t, frame.FacingBack)
	var draws []string
	a := newRecorder(o, "a", &draws, nil)
	b := newRecorder(o, "b", &draws, nil)
	require.NoError(t, o.Add(a))
	before := o.Graphics()

	require.NoError(t, o.Add(b))
	o.Remove(b)
	assert.Equal(t, before, o.Graphics())

	o.Remove(b) // not attached
	assert.Equal(t, before, o.Graphics())
}

func TestAdd_RejectsForeignGraphic(t *testing.T) {
	o := configured(t, frame.FacingBack)
	other := New()
	var draws []string

	err := o.Add(newRecorder(other, "x", &draws, nil))
	assert.ErrorIs(t, err, ErrForeignGraphic)
	assert.Equal(t, 0, o.Len())
	assert.Error(t, o.Add(nil))
}

func TestReplaceAll_IsAtomic(t *testing.T) {
	o := configured(t, frame.FacingBack)
	var draws []string
	old := newRecorder(o, "old", &draws, nil)
	require.NoError(t, o.ReplaceAll(old))

	foreign := newRecorder(New(), "foreign", &draws, nil)
	err := o.ReplaceAll(newRecorder(o, "new", &draws, nil), foreign)
	require.ErrorIs(t, err, ErrForeignGraphic)
	assert.Equal(t, []Graphic{old}, o.Graphics())

	fresh := newRecorder(o, "fresh", &draws, nil)
	require.NoError(t, o.ReplaceAll(fresh))
	assert.Equal(t, []Graphic{fresh}, o.Graphics())
}

func TestReplaceFrame_RejectsWithoutTouchingGeometry(t *testing.T) {
	o := configured(t, frame.FacingBack)
	var draws []string
	foreign := newRecorder(New(), "foreign", &draws, nil)

	err := o.ReplaceFrame(CameraInfo{Width: 1280, Height: 720, Facing: frame.FacingFront}, []Graphic{foreign})
	require.Error(t, err)

	s, _ := o.ScaleFactor()
	assert.Equal(t, 4.0, s)
	x, _ := o.TranslateX(100)
	assert.Equal(t, 400.0, x)
}

func TestReplaceAll_Invalidates(t *testing.T) {
	o := configured(t, frame.FacingBack)
	require.NoError(t, o.ReplaceAll())
	require.NoError(t, o.ReplaceAll())

	select {
	case <-o.Invalidated():
	default:
		t.Fatal("expected a pending redraw")
	}
	select {
	case <-o.Invalidated():
		t.Fatal("redraw requests should coalesce")
	default:
	}
}

func TestRender_AttachmentOrderAndSharedTransform(t *testing.T) {
	o := configured(t, frame.FacingFront)
	var draws []string
	var seen []Transform
	require.NoError(t, o.ReplaceAll(
		newRecorder(o, "background", &draws, &seen),
		newRecorder(o, "box", &draws, &seen),
		newRecorder(o, "label", &draws, &seen),
	))

	require.NoError(t, o.Render(NewRGBACanvas(1080, 1920)))
	assert.Equal(t, []string{"background", "box", "label"}, draws)
	require.Len(t, seen, 3)
	assert.Equal(t, seen[0], seen[1])
	assert.Equal(t, seen[1], seen[2])
}

func TestRender_NotConfigured(t *testing.T) {
	err := New().Render(NewRGBACanvas(10, 10))
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestRGBACanvas_DrawsThroughMatrix(t *testing.T) {
	c := NewRGBACanvas(100, 100)
	c.FillPolygon([]Point{{10, 10}, {30, 10}, {30, 30}, {10, 30}}, color.RGBA{255, 0, 0, 255})
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, c.Image().RGBAAt(20, 20))
	assert.Equal(t, color.RGBA{}, c.Image().RGBAAt(50, 50))

	c.StrokeLine(Point{0, 60}, Point{100, 60}, color.RGBA{0, 255, 0, 255}, 4)
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, c.Image().RGBAAt(50, 60))
}

func TestRGBACanvas_FillPolygonStaysInBounds(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	c := NewRGBACanvas(100, 100)

	c.FillPolygon([]Point{{60.5, 70}, {80, 70}, {80, 90}, {60.5, 90}}, red)
	assert.Equal(t, red, c.Image().RGBAAt(70, 80))
	assert.Equal(t, red, c.Image().RGBAAt(61, 71))
	assert.Equal(t, color.RGBA{}, c.Image().RGBAAt(59, 80))
	assert.Equal(t, color.RGBA{}, c.Image().RGBAAt(70, 91))
	assert.InDelta(t, 128, int(c.Image().RGBAAt(60, 80).A), 2)

	// Partly off the canvas: only the visible corner is filled.
	c.FillPolygon([]Point{{-50, -50}, {10, -50}, {10, 10}, {-50, 10}}, red)
	assert.Equal(t, red, c.Image().RGBAAt(0, 0))
	assert.Equal(t, red, c.Image().RGBAAt(9, 9))
	assert.Equal(t, color.RGBA{}, c.Image().RGBAAt(11, 5))

	// Entirely off the canvas, or degenerate input.
	before := slices.Clone(c.Image().Pix)
	c.FillPolygon([]Point{{200, 200}, {300, 200}, {300, 300}}, red)
	c.FillPolygon([]Point{{0, 0}, {math.NaN(), 10}, {10, 10}}, red)
	c.FillPolygon([]Point{{0, 0}, {math.Inf(1), 10}, {10, 10}}, red)
	assert.Equal(t, before, c.Image().Pix)
}
