package detection

import "errors"

// Sentinel errors for detector setup and input.
var (
	// ErrModelNotFound is returned when a model file does not exist.
	ErrModelNotFound = errors.New("detection: model file not found")

	// ErrEmptyFrame is returned when a frame decodes to no pixels.
	ErrEmptyFrame = errors.New("detection: empty frame")

	// ErrOddFrameSize is returned for NV21 frames with odd dimensions,
	// which OpenCV cannot convert.
	ErrOddFrameSize = errors.New("detection: NV21 frame dimensions must be even")

	// ErrClosed is returned by Detect after Close.
	ErrClosed = errors.New("detection: detector closed")
)
