// Package overlay maps detector output from camera-frame coordinates
// onto a rendering surface and hosts the graphics drawn there.
//
// The frame-to-view mapping accounts for preview/view size mismatch
// (scale and crop), device rotation (width/height swap) and front
// camera mirroring (X flip). One Overlay exists per rendering surface;
// its graphics are replaced wholesale every frame.
package overlay

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/teslashibe/go-overlay/pkg/frame"
)

// CameraInfo describes the frames whose results are drawn on an overlay.
// Width and Height are sensor dimensions; Rotation decides whether they
// are swapped before scaling.
type CameraInfo struct {
	Width    int
	Height   int
	Rotation frame.Rotation
	Facing   frame.Facing
}

// CameraInfoFrom extracts the overlay-relevant part of frame metadata.
func CameraInfoFrom(m frame.Metadata) CameraInfo {
	return CameraInfo{Width: m.Width, Height: m.Height, Rotation: m.Rotation, Facing: m.Facing}
}

// Option configures an Overlay.
type Option func(*Overlay)

// WithScaleMode selects fill (default) or fit scaling.
func WithScaleMode(m ScaleMode) Option {
	return func(o *Overlay) { o.mode = m }
}

// WithAlignment selects where the scaled preview is anchored.
func WithAlignment(a Alignment) Option {
	return func(o *Overlay) { o.align = a }
}

// WithViewSize sets the initial rendering surface size.
func WithViewSize(w, h int) Option {
	return func(o *Overlay) { o.viewWidth, o.viewHeight = w, h }
}

// Overlay owns the frame-to-view transform and the graphics attached
// to one rendering surface. All methods are safe for concurrent use;
// mutations and render passes are serialized by one lock.
type Overlay struct {
	id uuid.UUID

	mu            sync.Mutex
	mode          ScaleMode
	align         Alignment
	previewWidth  int
	previewHeight int
	facing        frame.Facing
	hasCamera     bool
	viewWidth     int
	viewHeight    int

	// Cached transform, rebuilt lazily after geometry changes.
	cached      Transform
	cachedValid bool

	graphics []Graphic

	invalidated chan struct{}
}

// New creates an overlay with no camera info and no graphics.
func New(opts ...Option) *Overlay {
	o := &Overlay{
		id:          uuid.New(),
		invalidated: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Handle returns the reference graphics use to bind to this overlay.
func (o *Overlay) Handle() Handle {
	return Handle{id: o.id}
}

// ID returns the overlay's unique identifier.
func (o *Overlay) ID() string {
	return o.id.String()
}

// SetCameraInfo records the frame geometry. Width and height are swapped
// when the rotation is 90 or 270 degrees so the preview size matches what
// the detector sees. Any cached transform is discarded.
func (o *Overlay) SetCameraInfo(info CameraInfo) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.setCameraInfoLocked(info)
}

func (o *Overlay) setCameraInfoLocked(info CameraInfo) error {
	if info.Width <= 0 || info.Height <= 0 {
		return fmt.Errorf("%w: camera size %dx%d", frame.ErrPrecondition, info.Width, info.Height)
	}
	if !info.Rotation.Valid() {
		return fmt.Errorf("%w: %d", frame.ErrUnsupportedRotation, info.Rotation)
	}

	pw, ph := info.Width, info.Height
	if info.Rotation.SwapsAxes() {
		pw, ph = ph, pw
	}
	if o.hasCamera && pw == o.previewWidth && ph == o.previewHeight && info.Facing == o.facing {
		return nil
	}

	o.previewWidth, o.previewHeight = pw, ph
	o.facing = info.Facing
	o.hasCamera = true
	o.cachedValid = false
	return nil
}

// SetViewSize records the rendering surface size, e.g. after a layout
// or orientation change. A size change discards the cached transform
// and requests a redraw.
func (o *Overlay) SetViewSize(w, h int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if w == o.viewWidth && h == o.viewHeight {
		return
	}
	o.viewWidth, o.viewHeight = w, h
	o.cachedValid = false
	o.Invalidate()
}

// ViewSize returns the rendering surface size.
func (o *Overlay) ViewSize() (w, h int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.viewWidth, o.viewHeight
}

// Transform returns the current frame-to-view mapping.
func (o *Overlay) Transform() (Transform, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.transformLocked()
}

func (o *Overlay) transformLocked() (Transform, error) {
	if !o.hasCamera || o.viewWidth <= 0 || o.viewHeight <= 0 {
		return Transform{}, ErrNotConfigured
	}
	if !o.cachedValid {
		o.cached = newTransform(o.previewWidth, o.previewHeight, o.viewWidth, o.viewHeight,
			o.facing == frame.FacingFront, o.mode, o.align)
		o.cachedValid = true
	}
	return o.cached, nil
}

// ScaleFactor returns the factor applied to frame coordinates:
// max(viewW/previewW, viewH/previewH) for fill, min for fit.
func (o *Overlay) ScaleFactor() (float64, error) {
	t, err := o.Transform()
	if err != nil {
		return 0, err
	}
	return t.Scale(), nil
}

// TranslateX maps a frame x coordinate to view pixels.
func (o *Overlay) TranslateX(x float64) (float64, error) {
	t, err := o.Transform()
	if err != nil {
		return 0, err
	}
	return t.TranslateX(x), nil
}

// TranslateY maps a frame y coordinate to view pixels.
func (o *Overlay) TranslateY(y float64) (float64, error) {
	t, err := o.Transform()
	if err != nil {
		return 0, err
	}
	return t.TranslateY(y), nil
}

// TransformationMatrix returns the composed scale, flip and translate
// mapping, for drawing whole images in one call.
func (o *Overlay) TransformationMatrix() (Matrix, error) {
	t, err := o.Transform()
	if err != nil {
		return Matrix{}, err
	}
	return t.Matrix(), nil
}

// Add attaches g after the graphics already present.
func (o *Overlay) Add(g Graphic) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.checkOwner(g); err != nil {
		return err
	}
	o.graphics = append(o.graphics, g)
	return nil
}

// Remove detaches g. Removing a graphic that is not attached is a no-op.
func (o *Overlay) Remove(g Graphic) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if i := slices.Index(o.graphics, g); i >= 0 {
		o.graphics = slices.Delete(o.graphics, i, i+1)
	}
}

// Clear detaches every graphic.
func (o *Overlay) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	clear(o.graphics)
	o.graphics = o.graphics[:0]
}

// ReplaceAll swaps the attached graphics for gs and requests a redraw,
// as one atomic step. If any graphic is rejected nothing changes.
func (o *Overlay) ReplaceAll(gs ...Graphic) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.checkAll(gs); err != nil {
		return err
	}
	o.swapLocked(gs)
	return nil
}

// ReplaceFrame updates the camera info and swaps the attached graphics
// in one step, so a render pass never pairs new geometry with a
// previous frame's graphics.
func (o *Overlay) ReplaceFrame(info CameraInfo, gs []Graphic) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.checkAll(gs); err != nil {
		return err
	}
	if err := o.setCameraInfoLocked(info); err != nil {
		return err
	}
	o.swapLocked(gs)
	return nil
}

// swapLocked installs gs and requests a redraw.
func (o *Overlay) swapLocked(gs []Graphic) {
	o.graphics = append(o.graphics[:0:0], gs...)
	o.Invalidate()
}

func (o *Overlay) checkAll(gs []Graphic) error {
	for _, g := range gs {
		if err := o.checkOwner(g); err != nil {
			return err
		}
	}
	return nil
}

func (o *Overlay) checkOwner(g Graphic) error {
	if g == nil {
		return fmt.Errorf("%w: nil graphic", ErrInvalidState)
	}
	if g.Handle().id != o.id {
		return fmt.Errorf("%w: bound to %s, overlay is %s", ErrForeignGraphic, g.Handle(), o.id)
	}
	return nil
}

// Graphics returns a copy of the attached graphics in attachment order.
func (o *Overlay) Graphics() []Graphic {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.graphics)
}

// Len returns the number of attached graphics.
func (o *Overlay) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.graphics)
}

// Invalidate requests a redraw. Requests made before the render loop
// picks up the previous one are coalesced.
func (o *Overlay) Invalidate() {
	select {
	case o.invalidated <- struct{}{}:
	default:
	}
}

// Invalidated delivers one value per coalesced redraw request.
func (o *Overlay) Invalidated() <-chan struct{} {
	return o.invalidated
}

// Snapshot is a consistent view of an overlay: one transform and the
// graphics it applies to. The canvas for a pass is sized from
// Transform.ViewSize.
type Snapshot struct {
	Transform Transform
	Graphics  []Graphic
}

// Draw draws the graphics on c in attachment order.
func (s Snapshot) Draw(c Canvas) {
	for _, g := range s.Graphics {
		g.Draw(c, s.Transform)
	}
}

// Snapshot captures the transform, view size and graphics under one lock.
func (o *Overlay) Snapshot() (Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	t, err := o.transformLocked()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Transform: t, Graphics: slices.Clone(o.graphics)}, nil
}

// Render draws every attached graphic on c, in attachment order, using
// a single transform snapshot. Graphics attached first end up beneath
// later ones, so backgrounds must be attached before annotations.
func (o *Overlay) Render(c Canvas) error {
	snap, err := o.Snapshot()
	if err != nil {
		return err
	}
	snap.Draw(c)
	return nil
}
