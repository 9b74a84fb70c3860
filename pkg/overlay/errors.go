package overlay

import (
	"errors"
	"fmt"
)

// Sentinel errors for overlay state.
var (
	// ErrInvalidState is the root of every "called in the wrong state"
	// programming error in the pipeline.
	ErrInvalidState = errors.New("overlay: invalid state")

	// ErrNotConfigured is returned by transform queries issued before
	// SetCameraInfo and a view size have both been provided.
	ErrNotConfigured = fmt.Errorf("%w: camera info or view size not set", ErrInvalidState)

	// ErrForeignGraphic is returned when a graphic bound to a different
	// overlay is attached.
	ErrForeignGraphic = errors.New("overlay: graphic belongs to another overlay")
)
