package overlay

import "github.com/google/uuid"

// Handle identifies the overlay a graphic is bound to. Graphics keep a
// handle instead of a pointer so they never extend the overlay's
// lifetime and cannot mutate it.
type Handle struct {
	id uuid.UUID
}

// String returns the overlay ID.
func (h Handle) String() string { return h.id.String() }

// IsZero reports whether h was never assigned.
func (h Handle) IsZero() bool { return h.id == uuid.Nil }

// Graphic is one drawable annotation bound to an overlay. Draw must map
// every detector-space coordinate through t; raw view pixels are only
// valid for decorations such as stroke widths and text offsets.
//
// Implementations must be pointer types: Remove compares graphics by
// identity.
type Graphic interface {
	Handle() Handle
	Draw(c Canvas, t Transform)
}

// Base carries the overlay handle for concrete graphics to embed.
type Base struct {
	handle Handle
}

// NewBase binds a graphic to the overlay identified by h.
func NewBase(h Handle) Base {
	return Base{handle: h}
}

// Handle implements Graphic.
func (b Base) Handle() Handle { return b.handle }
