package frame

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// NV21Size returns the byte length of an NV21 image: a full resolution
// Y plane followed by interleaved V/U samples at half resolution on
// both axes.
func NV21Size(width, height int) int {
	cw, ch := (width+1)/2, (height+1)/2
	return width*height + 2*cw*ch
}

// CheckBuffer verifies that data holds exactly one NV21 frame as
// described by m.
func CheckBuffer(data []byte, m Metadata) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if want := m.BufferSize(); len(data) != want {
		return fmt.Errorf("%w: buffer has %d bytes, %s needs %d", ErrPrecondition, len(data), m, want)
	}
	return nil
}

// ToImage converts an NV21 buffer into an upright image: the sensor
// image is rotated clockwise by m.Rotation. The returned image does not
// alias data.
func ToImage(data []byte, m Metadata) (image.Image, error) {
	if err := CheckBuffer(data, m); err != nil {
		return nil, err
	}

	w, h := m.Width, m.Height
	img := image.NewYCbCr(image.Rect(0, 0, w, h), image.YCbCrSubsampleRatio420)
	copy(img.Y, data[:w*h])

	vu := data[w*h:]
	cw, ch := (w+1)/2, (h+1)/2
	for row := 0; row < ch; row++ {
		for col := 0; col < cw; col++ {
			i := row*cw + col
			off := row*img.CStride + col
			img.Cr[off] = vu[2*i]
			img.Cb[off] = vu[2*i+1]
		}
	}

	if m.Rotation == Rotation0 {
		return img, nil
	}
	return Rotate(img, m.Rotation), nil
}

// Rotate turns src clockwise by r using an exact pixel remap.
func Rotate(src image.Image, r Rotation) image.Image {
	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	var s2d f64.Aff3
	dw, dh := b.Dx(), b.Dy()
	switch r {
	case Rotation90:
		s2d = f64.Aff3{0, -1, h, 1, 0, 0}
		dw, dh = dh, dw
	case Rotation180:
		s2d = f64.Aff3{-1, 0, w, 0, -1, h}
	case Rotation270:
		s2d = f64.Aff3{0, 1, 0, -1, 0, w}
		dw, dh = dh, dw
	default:
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.NearestNeighbor.Transform(dst, s2d, src, b, draw.Src, nil)
	return dst
}

// FromImage encodes img as NV21. Odd dimensions are allowed; the last
// chroma row and column then cover a single pixel.
func FromImage(img image.Image) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, NV21Size(w, h))
	cw := (w + 1) / 2

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			yy, cb, cr := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			out[y*w+x] = yy
			if x%2 == 0 && y%2 == 0 {
				i := w*h + 2*((y/2)*cw+x/2)
				out[i] = cr
				out[i+1] = cb
			}
		}
	}
	return out
}
