// Package capture produces NV21 frames and feeds them to a processor.
//
// A Source yields one frame per Read together with its metadata. The
// buffer returned by Read stays valid until the next Read, which is
// exactly as long as a synchronous ProcessByteBuffer call needs it.
package capture

import (
	"context"
	"errors"

	"github.com/teslashibe/go-overlay/pkg/frame"
)

var (
	// ErrEndOfStream is returned by finite sources once exhausted.
	ErrEndOfStream = errors.New("capture: end of stream")

	// ErrNoFrame is returned when a device produced an empty frame.
	ErrNoFrame = errors.New("capture: no frame")

	// ErrClosed is returned by Read after Close.
	ErrClosed = errors.New("capture: source closed")
)

// Source produces camera frames.
type Source interface {
	// Read blocks until the next frame is available.
	Read(ctx context.Context) ([]byte, frame.Metadata, error)

	// Close releases the device. Calling Close more than once is safe.
	Close() error
}
