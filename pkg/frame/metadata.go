// Package frame describes raw camera frames as they arrive from the
// capture subsystem: their geometry, orientation and pixel layout.
package frame

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for frame validation.
var (
	// ErrPrecondition is returned when a caller hands over a frame whose
	// buffer or metadata cannot describe a valid image. It signals a bug
	// in the caller and is never retried.
	ErrPrecondition = errors.New("frame: precondition violated")

	// ErrUnsupportedRotation is returned for rotations other than
	// 0, 90, 180 and 270 degrees.
	ErrUnsupportedRotation = errors.New("frame: unsupported rotation")
)

// Rotation is the clockwise rotation in degrees that turns the sensor
// image upright relative to the device's natural orientation.
type Rotation int

// Supported rotations.
const (
	Rotation0   Rotation = 0
	Rotation90  Rotation = 90
	Rotation180 Rotation = 180
	Rotation270 Rotation = 270
)

// ParseRotation converts degrees into a Rotation.
func ParseRotation(degrees int) (Rotation, error) {
	r := Rotation(degrees)
	if !r.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedRotation, degrees)
	}
	return r, nil
}

// Inverse returns the rotation that undoes r.
func (r Rotation) Inverse() Rotation {
	return (360 - r) % 360
}

// Valid reports whether r is one of the four supported rotations.
func (r Rotation) Valid() bool {
	switch r {
	case Rotation0, Rotation90, Rotation180, Rotation270:
		return true
	}
	return false
}

// SwapsAxes reports whether the upright image has width and height
// exchanged relative to the sensor image.
func (r Rotation) SwapsAxes() bool {
	return r == Rotation90 || r == Rotation270
}

// Facing identifies which camera produced a frame.
type Facing int

const (
	// FacingBack is the world-facing camera. Never mirrored.
	FacingBack Facing = iota
	// FacingFront is the user-facing camera. Overlays are mirrored on X.
	FacingFront
)

// ParseFacing accepts "front" or "back" (case-insensitive).
func ParseFacing(s string) (Facing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "back", "rear", "":
		return FacingBack, nil
	case "front", "user":
		return FacingFront, nil
	}
	return FacingBack, fmt.Errorf("frame: unknown camera facing %q", s)
}

// String returns "front" or "back".
func (f Facing) String() string {
	if f == FacingFront {
		return "front"
	}
	return "back"
}

// MarshalText implements encoding.TextMarshaler.
func (f Facing) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Facing) UnmarshalText(b []byte) error {
	v, err := ParseFacing(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Metadata is the immutable per-frame descriptor delivered alongside
// every raw buffer. Width and Height are sensor dimensions, before
// Rotation is applied.
type Metadata struct {
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Rotation Rotation `json:"rotation"`
	Facing   Facing   `json:"facing"`
}

// Validate checks dimensions and rotation.
func (m Metadata) Validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("%w: frame size %dx%d", ErrPrecondition, m.Width, m.Height)
	}
	if !m.Rotation.Valid() {
		return fmt.Errorf("%w: %d", ErrUnsupportedRotation, m.Rotation)
	}
	return nil
}

// UprightSize returns the frame dimensions as seen by a detector once
// the rotation has been applied.
func (m Metadata) UprightSize() (w, h int) {
	if m.Rotation.SwapsAxes() {
		return m.Height, m.Width
	}
	return m.Width, m.Height
}

// BufferSize returns the number of bytes an NV21 buffer for m holds.
func (m Metadata) BufferSize() int {
	return NV21Size(m.Width, m.Height)
}

// String implements fmt.Stringer.
func (m Metadata) String() string {
	return fmt.Sprintf("%dx%d rot=%d %s", m.Width, m.Height, m.Rotation, m.Facing)
}
