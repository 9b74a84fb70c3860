// Package detection wraps vision models behind one generic contract:
// a Detector consumes a raw NV21 frame and returns a typed result whose
// coordinates are pixels of the upright (rotated) frame.
package detection

import (
	"context"

	"github.com/teslashibe/go-overlay/pkg/frame"
)

// Detector is the capability every vision backend provides.
// Implementations are not required to be safe for concurrent Detect
// calls; the processor never overlaps them.
type Detector[T any] interface {
	// Detect runs the model on one frame. data holds exactly
	// meta.BufferSize() bytes of NV21 and must not be retained.
	Detect(ctx context.Context, data []byte, meta frame.Metadata) (T, error)

	// Close releases model resources. Calling Close more than once is safe.
	Close() error
}

// Point is a position in upright frame pixels.
type Point struct {
	X, Y float64
}

// Detection is an axis-aligned box in upright frame pixels.
type Detection struct {
	X, Y       float64 // Top-left corner
	W, H       float64 // Width and height
	Confidence float64 // Detection confidence (0-1)
}

// Center returns the center point of the detection
func (d Detection) Center() (x, y float64) {
	return d.X + d.W/2, d.Y + d.H/2
}

// Area returns the area of the bounding box
func (d Detection) Area() float64 {
	return d.W * d.H
}

// Face is a detected face with YuNet's five landmarks: right eye, left
// eye, nose tip, right and left mouth corners.
type Face struct {
	Detection
	Landmarks [5]Point
}

// Object is a detected object with class info
type Object struct {
	Detection
	ClassID   int    // COCO class ID
	ClassName string // Human-readable class name
}

// Label is one whole-frame classification result.
type Label struct {
	Text       string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Config holds detector configuration
type Config struct {
	ModelPath        string  // Path to ONNX model
	ConfidenceThresh float64 // Minimum confidence (default 0.5)
	InputWidth       int     // Model input width
	InputHeight      int     // Model input height
}

// DefaultConfig returns production defaults for YuNet
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.5,
		InputWidth:       320,
		InputHeight:      320,
	}
}

// SelectBest picks the most prominent face.
// Priority: confidence * 0.7 + relative area * 0.3.
func SelectBest(faces []Face) *Face {
	if len(faces) == 0 {
		return nil
	}

	if len(faces) == 1 {
		return &faces[0]
	}

	// Find max area for normalization
	maxArea := 0.0
	for _, f := range faces {
		if f.Area() > maxArea {
			maxArea = f.Area()
		}
	}

	bestScore := -1.0
	var best *Face

	for i := range faces {
		score := faces[i].Confidence * 0.7
		if maxArea > 0 {
			score += (faces[i].Area() / maxArea) * 0.3
		}
		if score > bestScore {
			bestScore = score
			best = &faces[i]
		}
	}

	return best
}

// Func adapts a plain function to the Detector interface. Useful for
// custom backends and tests.
type Func[T any] func(ctx context.Context, data []byte, meta frame.Metadata) (T, error)

// Detect implements Detector.
func (f Func[T]) Detect(ctx context.Context, data []byte, meta frame.Metadata) (T, error) {
	return f(ctx, data, meta)
}

// Close implements Detector.
func (f Func[T]) Close() error { return nil }
