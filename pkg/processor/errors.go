package processor

import (
	"errors"
	"fmt"

	"github.com/teslashibe/go-overlay/pkg/overlay"
)

var (
	// ErrStopped is returned by ProcessByteBuffer after Stop.
	ErrStopped = fmt.Errorf("%w: processor stopped", overlay.ErrInvalidState)

	// ErrDetection matches every *DetectionError with errors.Is.
	ErrDetection = errors.New("processor: detection failed")
)

// DetectionError wraps a failure returned by the detector for one frame.
// The overlay is left as it was before the frame.
type DetectionError struct {
	Processor string
	Err       error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("processor %s: detection failed: %v", e.Processor, e.Err)
}

func (e *DetectionError) Unwrap() error { return e.Err }

// Is reports ErrDetection as a match so callers need not know the type.
func (e *DetectionError) Is(target error) bool { return target == ErrDetection }
