package capture

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"github.com/teslashibe/go-overlay/pkg/frame"
)

// Still replays a fixed set of images as camera frames. Images are
// taken to be upright and are encoded as if captured by a sensor with
// the given rotation and facing.
type Still struct {
	frames [][]byte
	metas  []frame.Metadata
	loop   bool

	mu     sync.Mutex
	next   int
	closed bool
}

var _ Source = (*Still)(nil)

// NewStill encodes imgs once. With loop set the images repeat forever,
// otherwise Read returns ErrEndOfStream after the last one.
func NewStill(rotation frame.Rotation, facing frame.Facing, loop bool, imgs ...image.Image) (*Still, error) {
	if !rotation.Valid() {
		return nil, fmt.Errorf("%w: %d", frame.ErrUnsupportedRotation, rotation)
	}
	if len(imgs) == 0 {
		return nil, fmt.Errorf("capture: no images")
	}

	s := &Still{loop: loop}
	for _, img := range imgs {
		sensor := frame.Rotate(img, rotation.Inverse())
		b := sensor.Bounds()
		s.frames = append(s.frames, frame.FromImage(sensor))
		s.metas = append(s.metas, frame.Metadata{Width: b.Dx(), Height: b.Dy(), Rotation: rotation, Facing: facing})
	}
	return s, nil
}

// OpenStill decodes JPEG or PNG files and builds a looping Still.
func OpenStill(rotation frame.Rotation, facing frame.Facing, paths ...string) (*Still, error) {
	imgs := make([]image.Image, 0, len(paths))
	for _, p := range paths {
		img, err := decodeFile(p)
		if err != nil {
			return nil, err
		}
		imgs = append(imgs, img)
	}
	return NewStill(rotation, facing, true, imgs...)
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Read implements Source. The returned buffer is shared and must not
// be modified.
func (s *Still) Read(ctx context.Context) ([]byte, frame.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, frame.Metadata{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, frame.Metadata{}, ErrClosed
	}
	if s.next >= len(s.frames) {
		if !s.loop {
			return nil, frame.Metadata{}, ErrEndOfStream
		}
		s.next = 0
	}

	i := s.next
	s.next++
	return s.frames[i], s.metas[i], nil
}

// Close implements Source.
func (s *Still) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
