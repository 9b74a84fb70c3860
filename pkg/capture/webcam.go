package capture

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/teslashibe/go-overlay/internal/log"
	"github.com/teslashibe/go-overlay/pkg/camera"
	"github.com/teslashibe/go-overlay/pkg/frame"
	"gocv.io/x/gocv"
)

// Webcam reads frames from a local capture device through OpenCV.
//
// Webcam images arrive upright. When the configured rotation is not
// zero they are turned back by that rotation before encoding, so the
// frames look like those of a sensor mounted at that angle and the
// overlay's rotation handling is exercised end to end.
type Webcam struct {
	cfg camera.Config

	mu     sync.Mutex
	cap    *gocv.VideoCapture
	mat    gocv.Mat
	closed bool
}

var _ Source = (*Webcam)(nil)

// OpenWebcam opens the device named by cfg.DeviceID and requests the
// configured resolution and framerate. Devices may ignore the request;
// frames report the size actually delivered.
func OpenWebcam(cfg camera.Config) (*Webcam, error) {
	vc, err := gocv.OpenVideoCapture(cfg.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", cfg.DeviceID, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	log.Info("webcam opened",
		"device", cfg.DeviceID,
		"width", vc.Get(gocv.VideoCaptureFrameWidth),
		"height", vc.Get(gocv.VideoCaptureFrameHeight),
		"rotation", int(cfg.Rotation),
		"facing", cfg.Facing.String())

	return &Webcam{cfg: cfg, cap: vc, mat: gocv.NewMat()}, nil
}

// Read implements Source.
func (w *Webcam) Read(ctx context.Context) ([]byte, frame.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, frame.Metadata{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, frame.Metadata{}, ErrClosed
	}

	if ok := w.cap.Read(&w.mat); !ok || w.mat.Empty() {
		return nil, frame.Metadata{}, ErrNoFrame
	}

	src := w.mat
	if code, ok := sensorRotation(w.cfg.Rotation); ok {
		rotated := gocv.NewMat()
		defer rotated.Close()
		gocv.Rotate(w.mat, &rotated, code)
		src = rotated
	}

	// NV21 needs even dimensions.
	even := src.Region(image.Rect(0, 0, src.Cols()&^1, src.Rows()&^1))
	defer even.Close()

	img, err := even.ToImage()
	if err != nil {
		return nil, frame.Metadata{}, fmt.Errorf("convert frame: %w", err)
	}

	b := img.Bounds()
	meta := frame.Metadata{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Rotation: w.cfg.Rotation,
		Facing:   w.cfg.Facing,
	}
	return frame.FromImage(img), meta, nil
}

// sensorRotation returns the OpenCV rotation that undoes r.
func sensorRotation(r frame.Rotation) (gocv.RotateFlag, bool) {
	switch r {
	case frame.Rotation90:
		return gocv.Rotate90CounterClockwise, true
	case frame.Rotation180:
		return gocv.Rotate180Clockwise, true
	case frame.Rotation270:
		return gocv.Rotate90Clockwise, true
	}
	return 0, false
}

// Close implements Source.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	w.mat.Close()
	return w.cap.Close()
}
