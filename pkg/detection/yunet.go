package detection

import (
	"context"
	"image"
	"sync"

	"github.com/teslashibe/go-overlay/internal/log"
	"github.com/teslashibe/go-overlay/pkg/frame"
	"gocv.io/x/gocv"
)

// YuNetDetector uses OpenCV's FaceDetectorYN for face detection
type YuNetDetector struct {
	detector gocv.FaceDetectorYN
	config   Config
	mu       sync.Mutex // Protects inference
	closed   bool
}

var _ Detector[[]Face] = (*YuNetDetector)(nil)

// NewYuNet creates a new YuNet face detector using GoCV's built-in FaceDetectorYN
func NewYuNet(cfg Config) (*YuNetDetector, error) {
	if err := checkModel(cfg.ModelPath); err != nil {
		return nil, err
	}

	// Initial input size is updated per frame
	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"",
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		float32(cfg.ConfidenceThresh),
		0.3,  // NMS threshold
		5000, // Top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNetDetector{
		detector: detector,
		config:   cfg,
	}, nil
}

// Detect finds faces in an NV21 frame.
func (d *YuNetDetector) Detect(ctx context.Context, data []byte, meta frame.Metadata) ([]Face, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := uprightBGR(data, meta)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	d.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()

	d.detector.Detect(img, &faces)

	var out []Face
	for r := 0; r < faces.Rows(); r++ {
		// YuNet output format (15 columns):
		// 0-3: x, y, w, h (bounding box in pixels)
		// 4-13: 5 facial landmarks (x,y pairs)
		// 14: face score
		f := Face{
			Detection: Detection{
				X:          float64(faces.GetFloatAt(r, 0)),
				Y:          float64(faces.GetFloatAt(r, 1)),
				W:          float64(faces.GetFloatAt(r, 2)),
				H:          float64(faces.GetFloatAt(r, 3)),
				Confidence: float64(faces.GetFloatAt(r, 14)),
			},
		}
		for i := range f.Landmarks {
			f.Landmarks[i] = Point{
				X: float64(faces.GetFloatAt(r, 4+2*i)),
				Y: float64(faces.GetFloatAt(r, 5+2*i)),
			}
		}
		out = append(out, f)
	}

	if len(out) > 0 {
		log.Debug("yunet detected faces", "count", len(out), "frame", meta.String())
	}

	return out, nil
}

// Close releases the detector resources
func (d *YuNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.detector.Close()
	return nil
}
